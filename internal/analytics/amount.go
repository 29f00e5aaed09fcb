package analytics

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount parses an untrusted numeric string. Unparsable or non-finite
// input yields 0.
func ParseAmount(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0
	}
	return parsed
}
