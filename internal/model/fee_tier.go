package model

// FeeTier is a Uniswap V3 fee tier in hundredths of a basis point.
type FeeTier string

const (
	FeeTier001 FeeTier = "100"
	FeeTier005 FeeTier = "500"
	FeeTier030 FeeTier = "3000"
	FeeTier100 FeeTier = "10000"
)

// FeeTiers lists the enumerated tiers in ascending order.
var FeeTiers = []FeeTier{FeeTier001, FeeTier005, FeeTier030, FeeTier100}

// Known reports whether the tier is one of the enumerated tiers.
func (t FeeTier) Known() bool {
	switch t {
	case FeeTier001, FeeTier005, FeeTier030, FeeTier100:
		return true
	default:
		return false
	}
}
