package model

import (
	"fmt"
	"math"
	"strings"
)

// SortField selects the pool metric used for ordering.
type SortField string

const (
	SortTVL    SortField = "tvl"
	SortVolume SortField = "volume"
	SortAPR    SortField = "apr"
)

// SortDirection is either ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filters describes the user's pool selection. Zero thresholds mean unbounded
// and an empty fee-tier set means all tiers.
type Filters struct {
	Search        string        `json:"search"`
	MinTVL        float64       `json:"minTVL"`
	MaxTVL        float64       `json:"maxTVL"`
	MinVolume     float64       `json:"minVolume"`
	MaxVolume     float64       `json:"maxVolume"`
	FeeTiers      []string      `json:"feeTiers"`
	SortBy        SortField     `json:"sortBy"`
	SortDirection SortDirection `json:"sortDirection"`
}

// DefaultFilters returns filters that select everything sorted by TVL descending.
func DefaultFilters() Filters {
	return Filters{SortBy: SortTVL, SortDirection: SortDesc}
}

// Validate rejects negative or non-finite thresholds.
func (f Filters) Validate() error {
	bounds := []struct {
		name  string
		value float64
	}{
		{"minTVL", f.MinTVL},
		{"maxTVL", f.MaxTVL},
		{"minVolume", f.MinVolume},
		{"maxVolume", f.MaxVolume},
	}
	for _, b := range bounds {
		if math.IsNaN(b.value) || math.IsInf(b.value, 0) || b.value < 0 {
			return fmt.Errorf("invalid %s: %v", b.name, b.value)
		}
	}
	return nil
}

// ParseSortField converts user input into a SortField. Empty input yields SortTVL.
func ParseSortField(input string) (SortField, error) {
	switch SortField(strings.ToLower(strings.TrimSpace(input))) {
	case "", SortTVL:
		return SortTVL, nil
	case SortVolume:
		return SortVolume, nil
	case SortAPR:
		return SortAPR, nil
	default:
		return "", fmt.Errorf("invalid sort field: %s", input)
	}
}

// ParseSortDirection converts user input into a SortDirection. Empty input yields SortDesc.
func ParseSortDirection(input string) (SortDirection, error) {
	switch SortDirection(strings.ToLower(strings.TrimSpace(input))) {
	case "", SortDesc:
		return SortDesc, nil
	case SortAsc:
		return SortAsc, nil
	default:
		return "", fmt.Errorf("invalid sort direction: %s", input)
	}
}
