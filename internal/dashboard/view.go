package dashboard

import (
	"strings"
	"time"

	"avocado/internal/analytics"
	"avocado/internal/format"
	"avocado/internal/model"
)

// PoolView is a pool joined with its token prices and derived metrics.
type PoolView struct {
	Pool         model.Pool        `json:"pool"`
	Pair         string            `json:"pair"`
	FeeTier      string            `json:"feeTier"`
	FeeCategory  string            `json:"feeCategory"`
	TVL          string            `json:"tvl"`
	Volume       string            `json:"volume"`
	APR          float64           `json:"apr"`
	APRLabel     string            `json:"aprLabel"`
	Fees24h      string            `json:"fees24h"`
	VolumeChange float64           `json:"volumeChange"`
	Age          string            `json:"age"`
	Token0Price  *model.TokenPrice `json:"token0Price,omitempty"`
	Token1Price  *model.TokenPrice `json:"token1Price,omitempty"`
}

// BuildViews filters and sorts pools, then joins each with prices by
// uppercase token symbol.
func BuildViews(pools []model.Pool, prices map[string]model.TokenPrice, filters model.Filters, now time.Time) []PoolView {
	filtered := analytics.Apply(pools, filters)
	views := make([]PoolView, 0, len(filtered))
	for _, pool := range filtered {
		apr := analytics.EstimateAPR(pool)
		views = append(views, PoolView{
			Pool:         pool,
			Pair:         format.PairName(pool),
			FeeTier:      format.FeeTierLabel(pool.FeeTier),
			FeeCategory:  format.FeeTierCategory(pool.FeeTier),
			TVL:          format.USD(pool.TotalValueLockedUSD),
			Volume:       format.USD(pool.VolumeUSD),
			APR:          apr,
			APRLabel:     format.Percentage(apr),
			Fees24h:      format.USDValue(analytics.Fees24h(pool)),
			VolumeChange: analytics.VolumeChange(pool),
			Age:          format.PoolAge(pool.CreatedAtTimestamp, now),
			Token0Price:  lookup(prices, pool.Token0.Symbol),
			Token1Price:  lookup(prices, pool.Token1.Symbol),
		})
	}
	return views
}

func lookup(prices map[string]model.TokenPrice, symbol string) *model.TokenPrice {
	price, ok := prices[strings.ToUpper(symbol)]
	if !ok {
		return nil
	}
	return &price
}

// Symbols returns the distinct uppercase token symbols of pools in first-seen order.
func Symbols(pools []model.Pool) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, pool := range pools {
		for _, symbol := range pool.Symbols() {
			upper := strings.ToUpper(strings.TrimSpace(symbol))
			if upper == "" {
				continue
			}
			if _, ok := seen[upper]; ok {
				continue
			}
			seen[upper] = struct{}{}
			out = append(out, upper)
		}
	}
	return out
}
