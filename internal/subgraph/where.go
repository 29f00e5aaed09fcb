package subgraph

import (
	"strconv"
	"strings"

	"avocado/internal/model"
)

// DustFloorUSD excludes pools below this TVL from every listing query.
const DustFloorUSD = "1000"

// Where translates filters into a Pool_filter predicate.
func Where(filters model.Filters) map[string]any {
	where := map[string]any{
		"totalValueLockedUSD_gt": DustFloorUSD,
	}
	if filters.MinTVL > 0 {
		where["totalValueLockedUSD_gte"] = formatAmount(filters.MinTVL)
	}
	if filters.MaxTVL > 0 {
		where["totalValueLockedUSD_lte"] = formatAmount(filters.MaxTVL)
	}
	if filters.MinVolume > 0 {
		where["volumeUSD_gte"] = formatAmount(filters.MinVolume)
	}
	if filters.MaxVolume > 0 {
		where["volumeUSD_lte"] = formatAmount(filters.MaxVolume)
	}
	if len(filters.FeeTiers) > 0 {
		tiers := make([]string, len(filters.FeeTiers))
		copy(tiers, filters.FeeTiers)
		where["feeTier_in"] = tiers
	}
	if term := strings.TrimSpace(filters.Search); term != "" {
		where["or"] = SearchPredicate(term)
	}
	return where
}

// SearchPredicate matches term against either token's symbol or name.
func SearchPredicate(term string) []map[string]any {
	return []map[string]any{
		{"token0_": map[string]any{"symbol_contains_nocase": term}},
		{"token1_": map[string]any{"symbol_contains_nocase": term}},
		{"token0_": map[string]any{"name_contains_nocase": term}},
		{"token1_": map[string]any{"name_contains_nocase": term}},
	}
}

// OrderBy maps a sort field to a subgraph column. APR is computed locally,
// so it orders by TVL upstream.
func OrderBy(field model.SortField) string {
	switch field {
	case model.SortVolume:
		return "volumeUSD"
	default:
		return "totalValueLockedUSD"
	}
}

// OrderDirection maps a sort direction to the subgraph value.
func OrderDirection(direction model.SortDirection) string {
	if direction == model.SortAsc {
		return "asc"
	}
	return "desc"
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
