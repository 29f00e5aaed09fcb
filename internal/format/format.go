// Package format renders raw numeric strings as display text.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"avocado/internal/model"
)

var (
	billion  = decimal.New(1, 9)
	million  = decimal.New(1, 6)
	thousand = decimal.New(1, 3)
)

// USD formats a numeric string as a compact dollar amount ("$1.23M").
// Unparsable input renders as "$0.00".
func USD(value string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return "$0.00"
	}
	return usd(d)
}

// USDValue is USD for an already parsed number.
func USDValue(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "$0.00"
	}
	return usd(decimal.NewFromFloat(value))
}

func usd(d decimal.Decimal) string {
	switch {
	case d.GreaterThanOrEqual(billion):
		return "$" + d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(million):
		return "$" + d.Div(million).StringFixed(2) + "M"
	case d.GreaterThanOrEqual(thousand):
		return "$" + d.Div(thousand).StringFixed(2) + "K"
	default:
		return "$" + d.StringFixed(2)
	}
}

// Percentage formats a percent value with two decimals.
func Percentage(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0.00%"
	}
	return strconv.FormatFloat(value, 'f', 2, 64) + "%"
}

// FeeTierLabel renders a fee tier as a percent ("3000" -> "0.3%").
func FeeTierLabel(feeTier string) string {
	tier, err := strconv.Atoi(strings.TrimSpace(feeTier))
	if err != nil {
		return "0%"
	}
	return strconv.FormatFloat(float64(tier)/10000, 'f', -1, 64) + "%"
}

// FeeTierCategory returns the visual category of a fee tier. Unknown tiers
// fall back to "gray".
func FeeTierCategory(feeTier string) string {
	switch model.FeeTier(feeTier) {
	case model.FeeTier001:
		return "blue"
	case model.FeeTier005:
		return "green"
	case model.FeeTier030:
		return "yellow"
	case model.FeeTier100:
		return "red"
	default:
		return "gray"
	}
}

// PairName returns "TOKEN0/TOKEN1".
func PairName(pool model.Pool) string {
	return pool.Token0.Symbol + "/" + pool.Token1.Symbol
}

// PoolAge renders the time since pool creation as days, months or years.
func PoolAge(createdAtTimestamp string, now time.Time) string {
	if strings.TrimSpace(createdAtTimestamp) == "" {
		return "Unknown"
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(createdAtTimestamp), 10, 64)
	if err != nil {
		return "Unknown"
	}

	diff := now.Sub(time.Unix(secs, 0))
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(diff.Hours() / 24))

	switch {
	case days < 30:
		return strconv.Itoa(days) + "d"
	case days < 365:
		return strconv.Itoa(days/30) + "mo"
	default:
		return strconv.Itoa(days/365) + "y"
	}
}
