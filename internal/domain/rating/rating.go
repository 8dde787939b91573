// Package rating implements the Elo-style update model used to turn a
// pairwise choice into skill adjustments.
package rating

import "math"

const (
	// Scale is the rating gap giving 10:1 odds.
	Scale = 400.0

	minInputRating = 1.0
	maxInputRating = 10.0
	minSkill       = 800.0
	maxSkill       = 1200.0
)

// K-factor tiers keyed by the fraction of the population already faced.
const (
	KNew         = 40
	KDeveloping  = 30
	KEstablished = 20

	newFractionLimit        = 0.20
	developingFractionLimit = 0.40
)

// ExpectedOutcome returns the probability that a beats b. The weaker side is
// computed as the complement of the stronger, so ExpectedOutcome(a, b) +
// ExpectedOutcome(b, a) is exactly 1.
func ExpectedOutcome(a, b int) float64 {
	if a < b {
		return 1 - ExpectedOutcome(b, a)
	}
	return 1 / (1 + math.Pow(10, float64(b-a)/Scale))
}

// KFactor returns the step size for an item that has faced the given fraction
// of all other items.
func KFactor(fraction float64) int {
	switch {
	case fraction < newFractionLimit:
		return KNew
	case fraction < developingFractionLimit:
		return KDeveloping
	default:
		return KEstablished
	}
}

// Fraction is uniqueOpponents / (population-1). Population must be at least 2.
func Fraction(uniqueOpponents, population int) float64 {
	return float64(uniqueOpponents) / float64(population-1)
}

// Side is one participant of a resolved comparison.
type Side struct {
	Skill           int
	UniqueOpponents int
}

// Resolve returns the new skills of winner and loser. Each side uses its own
// k-factor, so the update is not zero-sum when their histories differ.
// Deltas are rounded half away from zero.
func Resolve(winner, loser Side, population int) (newWinner, newLoser int) {
	kw := KFactor(Fraction(winner.UniqueOpponents, population))
	kl := KFactor(Fraction(loser.UniqueOpponents, population))

	ew := ExpectedOutcome(winner.Skill, loser.Skill)
	el := ExpectedOutcome(loser.Skill, winner.Skill)

	newWinner = winner.Skill + int(math.Round(float64(kw)*(1-ew)))
	newLoser = loser.Skill + int(math.Round(float64(kl)*(0-el)))
	return newWinner, newLoser
}

// InitialSkill maps a 1-10 input rating linearly onto 800-1200.
func InitialSkill(r float64) int {
	return int(math.Round(minSkill + (r-minInputRating)*((maxSkill-minSkill)/(maxInputRating-minInputRating))))
}

// ValidInput reports whether r is on the accepted input scale.
func ValidInput(r float64) bool {
	return !math.IsNaN(r) && r >= minInputRating && r <= maxInputRating
}
