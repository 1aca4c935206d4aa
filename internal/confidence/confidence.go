package confidence

// Tier buckets a confidence value for display.
type Tier string

const (
	High   Tier = "High"
	Medium Tier = "Medium"
	Low    Tier = "Low"
)

// Tier boundaries, applied uniformly everywhere a tier is shown.
const (
	highMin   = 0.70
	mediumMin = 0.60
)

// Score maps a confidence value (the winning side's probability, 0.5–1.0)
// to its tier. Pure and total.
func Score(confidence float64) Tier {
	switch {
	case confidence >= highMin:
		return High
	case confidence >= mediumMin:
		return Medium
	default:
		return Low
	}
}
