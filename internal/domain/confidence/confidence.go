// Package confidence estimates how settled an item's rank is from the number
// of distinct opponents it has faced.
package confidence

const (
	absoluteCoverage = 0.15 // share of the population that saturates the absolute signal
	absoluteWeight   = 0.55
	relativeWeight   = 0.45
)

// Tier is an ordinal confidence label.
type Tier string

const (
	VeryLow  Tier = "very-low"
	Low      Tier = "low"
	Moderate Tier = "moderate"
	High     Tier = "high"
	VeryHigh Tier = "very-high"
)

// Tier boundaries. Policy constants.
const (
	veryLowBelow  = 0.10
	lowBelow      = 0.30
	moderateBelow = 0.60
	highBelow     = 0.80
)

// Score blends an absolute signal (coverage of ~15% of the population) with
// the relative fraction of all possible opponents faced. The result is in
// [0,1]; populations of one or fewer score 0.
func Score(uniqueOpponents, total int) float64 {
	if total <= 1 || uniqueOpponents <= 0 {
		return 0
	}
	absolute := min(float64(uniqueOpponents)/(float64(total)*absoluteCoverage), 1)
	relative := min(float64(uniqueOpponents)/float64(total-1), 1)
	return absoluteWeight*absolute + relativeWeight*relative
}

// Label maps a score onto its tier.
func Label(score float64) Tier {
	switch {
	case score < veryLowBelow:
		return VeryLow
	case score < lowBelow:
		return Low
	case score < moderateBelow:
		return Moderate
	case score < highBelow:
		return High
	default:
		return VeryHigh
	}
}

// Aggregate is the arithmetic mean of the given scores, or 0 when empty.
func Aggregate(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
