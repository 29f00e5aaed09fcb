// Package analytics derives pool metrics and applies client-side filters.
package analytics

import (
	"strings"

	"avocado/internal/model"
)

const (
	aprWindowDays = 7
	weeksPerYear  = 52
	daysPerYear   = 365
)

// EstimateAPR annualizes the trailing fee yield of the pool's most recent
// seven snapshots. The weekly rate is multiplied by 52 without compounding.
// A snapshot without its own TVL uses the pool's current TVL.
func EstimateAPR(pool model.Pool) float64 {
	days := pool.PoolDayData
	if len(days) == 0 {
		return 0
	}
	if len(days) > aprWindowDays {
		days = days[:aprWindowDays]
	}

	var totalFees, totalTVL float64
	for _, day := range days {
		totalFees += ParseAmount(day.FeesUSD)
		tvl := day.TVLUSD
		if strings.TrimSpace(tvl) == "" {
			tvl = pool.TotalValueLockedUSD
		}
		totalTVL += ParseAmount(tvl)
	}

	avgTVL := totalTVL / float64(len(days))
	if avgTVL <= 0 {
		return 0
	}

	weekly := totalFees / avgTVL * 100
	apr := weekly * weeksPerYear
	if apr < 0 {
		return 0
	}
	return apr
}

// HistoricalAPR returns one annualized fee yield per day for up to days
// snapshots, oldest first. Days without TVL yield 0.
func HistoricalAPR(pool model.Pool, days int) []float64 {
	snapshots := pool.PoolDayData
	if len(snapshots) == 0 || days <= 0 {
		return nil
	}
	if len(snapshots) > days {
		snapshots = snapshots[:days]
	}

	out := make([]float64, len(snapshots))
	for i, day := range snapshots {
		fees := ParseAmount(day.FeesUSD)
		tvl := ParseAmount(day.TVLUSD)
		var apr float64
		if tvl > 0 {
			apr = fees / tvl * daysPerYear * 100
		}
		out[len(snapshots)-1-i] = apr
	}
	return out
}

// VolumeChange returns the percent change of the latest snapshot volume
// against the previous one, or 0 with fewer than two snapshots.
func VolumeChange(pool model.Pool) float64 {
	if len(pool.PoolDayData) < 2 {
		return 0
	}
	latest := ParseAmount(pool.PoolDayData[0].VolumeUSD)
	previous := ParseAmount(pool.PoolDayData[1].VolumeUSD)
	if previous == 0 {
		return 0
	}
	return (latest - previous) / previous * 100
}

// Fees24h returns the fees of the most recent snapshot.
func Fees24h(pool model.Pool) float64 {
	if len(pool.PoolDayData) == 0 {
		return 0
	}
	return ParseAmount(pool.PoolDayData[0].FeesUSD)
}
