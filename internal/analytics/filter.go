package analytics

import (
	"sort"
	"strings"

	"avocado/internal/model"
)

// Apply narrows pools by search text, TVL range and fee tier, then sorts the
// result. The input slice is not modified.
func Apply(pools []model.Pool, filters model.Filters) []model.Pool {
	out := make([]model.Pool, 0, len(pools))

	search := strings.ToLower(strings.TrimSpace(filters.Search))
	var tiers map[string]struct{}
	if len(filters.FeeTiers) > 0 {
		tiers = make(map[string]struct{}, len(filters.FeeTiers))
		for _, tier := range filters.FeeTiers {
			tiers[tier] = struct{}{}
		}
	}

	for _, pool := range pools {
		if search != "" && !matchesSearch(pool, search) {
			continue
		}
		tvl := ParseAmount(pool.TotalValueLockedUSD)
		if filters.MinTVL > 0 && tvl < filters.MinTVL {
			continue
		}
		if filters.MaxTVL > 0 && tvl > filters.MaxTVL {
			continue
		}
		if tiers != nil {
			if _, ok := tiers[pool.FeeTier]; !ok {
				continue
			}
		}
		out = append(out, pool)
	}

	sortPools(out, filters.SortBy, filters.SortDirection)
	return out
}

func matchesSearch(pool model.Pool, search string) bool {
	fields := [...]string{pool.Token0.Symbol, pool.Token1.Symbol, pool.Token0.Name, pool.Token1.Name}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func sortPools(pools []model.Pool, field model.SortField, direction model.SortDirection) {
	type keyed struct {
		pool model.Pool
		key  float64
	}
	entries := make([]keyed, len(pools))
	for i, pool := range pools {
		entries[i] = keyed{pool: pool, key: SortKey(pool, field)}
	}

	asc := direction == model.SortAsc
	sort.SliceStable(entries, func(i, j int) bool {
		if asc {
			return entries[i].key < entries[j].key
		}
		return entries[i].key > entries[j].key
	})

	for i, entry := range entries {
		pools[i] = entry.pool
	}
}

// SortKey returns the numeric value a pool is ordered by for field. Unknown
// fields order by TVL.
func SortKey(pool model.Pool, field model.SortField) float64 {
	switch field {
	case model.SortVolume:
		return ParseAmount(pool.VolumeUSD)
	case model.SortAPR:
		return EstimateAPR(pool)
	default:
		return ParseAmount(pool.TotalValueLockedUSD)
	}
}
