package service

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bookarena/internal/domain/confidence"
	"github.com/okian/bookarena/internal/domain/history"
	"github.com/okian/bookarena/internal/domain/model"
)

// Session is the engine's working set: the item snapshot plus the opponent
// history index built from the comparison log. It is owned by one Engine.
type Session struct {
	ID        string
	StartedAt time.Time

	items    []model.Item
	byID     map[int64]int
	history  *history.Index
	resolved int
}

func newSession(items []model.Item, records []model.ComparisonRecord, now time.Time) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		StartedAt: now,
		items:     items,
		byID:      make(map[int64]int, len(items)),
		history:   history.Build(records),
	}
	for i, it := range items {
		s.byID[it.ID] = i
	}
	return s
}

func (s *Session) item(id int64) (model.Item, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Item{}, false
	}
	return s.items[i], true
}

func (s *Session) setSkill(id int64, skill int) {
	if i, ok := s.byID[id]; ok {
		s.items[i].Skill = skill
	}
}

// Population is the number of items in the snapshot.
func (s *Session) Population() int { return len(s.items) }

// Confidence scores one item against the current population.
func (s *Session) Confidence(id int64) float64 {
	return confidence.Score(s.history.UniqueOpponents(id), len(s.items))
}

// Aggregate is the mean confidence over all items.
func (s *Session) Aggregate() float64 {
	scores := make([]float64, len(s.items))
	for i, it := range s.items {
		scores[i] = s.Confidence(it.ID)
	}
	return confidence.Aggregate(scores)
}

// Ranked returns every item ordered by skill descending, then id ascending.
func (s *Session) Ranked() []model.Ranked {
	sorted := slices.Clone(s.items)
	slices.SortFunc(sorted, func(a, b model.Item) int {
		if c := cmp.Compare(b.Skill, a.Skill); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	out := make([]model.Ranked, len(sorted))
	for i, it := range sorted {
		score := s.Confidence(it.ID)
		out[i] = model.Ranked{
			Rank:       i + 1,
			ID:         it.ID,
			Title:      it.Title,
			Author:     it.Author,
			Rating:     it.Rating,
			Skill:      it.Skill,
			Opponents:  s.history.UniqueOpponents(it.ID),
			Confidence: score,
			Tier:       string(confidence.Label(score)),
		}
	}
	return out
}
