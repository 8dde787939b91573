// Package selection picks the next pair of items to compare, favouring items
// with sparse history and pairs that carry the most ranking information.
package selection

import (
	"math"
	"math/rand"
	"time"

	"github.com/okian/bookarena/internal/domain/model"
	"github.com/okian/bookarena/internal/domain/rating"
)

// Stage-one weighting.
const (
	sparseShare   = 0.05
	sparseWeight  = 2.0
	thinShare     = 0.10
	thinWeight    = 1.5
	weightFloor   = 0.1
	minPopulation = 2
)

// Stats is the slice of opponent history the selector reads.
type Stats interface {
	UniqueOpponents(id int64) int
	TimesMatched(a, b int64) int
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithRand sets the random source. Tests pass a seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithSeed seeds the random source. Zero keeps the time-based default.
func WithSeed(seed int64) Option {
	return func(s *Selector) {
		if seed != 0 {
			s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // not security sensitive
		}
	}
}

// Selector draws pairs with two independent categorical draws.
type Selector struct {
	rng *rand.Rand
}

// New creates a Selector.
func New(opts ...Option) *Selector {
	s := &Selector{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseWeight is the stage-one weight for an item with the given number of
// unique opponents in a population of n. It is never below 0.1.
func BaseWeight(uniqueOpponents, n int) float64 {
	u := float64(uniqueOpponents)
	switch {
	case u <= sparseShare*float64(n):
		return sparseWeight
	case u <= thinShare*float64(n):
		return thinWeight
	default:
		return math.Max(weightFloor, 1-u/float64(n-1))
	}
}

// PairWeight is the stage-two weight of candidate b given the first pick a:
// the base weight divided by a rematch penalty and a skill-gap penalty.
func PairWeight(base float64, a, b model.Item, stats Stats) float64 {
	rematch := 1 + float64(stats.TimesMatched(a.ID, b.ID))
	gap := 1 + math.Abs(float64(a.Skill-b.Skill))/rating.Scale
	return base / rematch / gap
}

// Select returns two distinct items drawn from items.
func (s *Selector) Select(items []model.Item, stats Stats) (model.Item, model.Item, error) {
	n := len(items)
	if n < minPopulation {
		return model.Item{}, model.Item{}, ErrDegeneratePopulation
	}

	base := make([]float64, n)
	for i, it := range items {
		base[i] = BaseWeight(stats.UniqueOpponents(it.ID), n)
	}
	ai := s.draw(base)
	a := items[ai]

	adjusted := make([]float64, n)
	for i, it := range items {
		if i == ai {
			continue
		}
		adjusted[i] = PairWeight(base[i], a, it, stats)
	}
	bi := s.draw(adjusted)
	return a, items[bi], nil
}

// draw samples an index with probability proportional to weights. Zero
// weights are never chosen.
func (s *Selector) draw(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	r := s.rng.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if r < w {
			return i
		}
		r -= w
	}
	return last
}
