package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/bookarena/internal/domain/history"
	"github.com/okian/bookarena/internal/domain/model"
)

// Commit operations that MemoryStore can be told to fail.
const (
	OpRecordComparison = "record_comparison"
	OpUpdateSkill      = "update_skill"
)

// MemoryStore is an in-process Store. Writes made inside InTx are staged and
// only become visible when fn returns nil.
type MemoryStore struct {
	mu      sync.RWMutex
	items   []model.Item
	records []model.ComparisonRecord
	nextID  int64
	failOn  map[string]error
	now     func() time.Time
	closed  bool
}

// NewMemoryStore returns an empty store seeded with items. Items keep their
// IDs when non-zero.
func NewMemoryStore(items ...model.Item) *MemoryStore {
	m := &MemoryStore{failOn: make(map[string]error), now: time.Now}
	for _, it := range items {
		if it.ID == 0 {
			it.ID = m.nextID + 1
		}
		m.nextID = max(m.nextID, it.ID)
		m.items = append(m.items, it)
	}
	return m
}

// FailOn makes every later call of op return err. A nil err clears it.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOn, op)
		return
	}
	m.failOn[op] = err
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// LoadAll returns a copy of every item.
func (m *MemoryStore) LoadAll(_ context.Context) ([]model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return slices.Clone(m.items), nil
}

// AddItems appends items with freshly assigned ids.
func (m *MemoryStore) AddItems(_ context.Context, items []model.Item) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	for _, it := range items {
		m.nextID++
		it.ID = m.nextID
		m.items = append(m.items, it)
	}
	return len(items), nil
}

// OpponentCounts aggregates the record log.
func (m *MemoryStore) OpponentCounts(_ context.Context) (map[int64]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return history.Build(m.records).OpponentCounts(), nil
}

// PastOpponents aggregates the record log for one item.
func (m *MemoryStore) PastOpponents(_ context.Context, id int64) (map[int64]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return history.Build(m.records).PastOpponents(id), nil
}

// Comparisons returns a copy of the record log.
func (m *MemoryStore) Comparisons(_ context.Context) ([]model.ComparisonRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records), nil
}

// InTx stages writes and applies them only when fn succeeds.
func (m *MemoryStore) InTx(ctx context.Context, fn func(CommitSink) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	st := &memSink{parent: m, skills: make(map[int64]int)}
	if err := fn(st); err != nil {
		return err
	}
	m.records = append(m.records, st.records...)
	for i := range m.items {
		if s, ok := st.skills[m.items[i].ID]; ok {
			m.items[i].Skill = s
		}
	}
	return nil
}

func (m *MemoryStore) has(id int64) bool {
	return slices.ContainsFunc(m.items, func(it model.Item) bool { return it.ID == id })
}

// memSink runs with the parent lock held.
type memSink struct {
	parent  *MemoryStore
	records []model.ComparisonRecord
	skills  map[int64]int
}

func (s *memSink) RecordComparison(_ context.Context, winnerID, loserID int64) error {
	if err := s.parent.failOn[OpRecordComparison]; err != nil {
		return err
	}
	if winnerID == loserID || !s.parent.has(winnerID) || !s.parent.has(loserID) {
		return fmt.Errorf("record %d over %d: %w", winnerID, loserID, ErrUnknownItem)
	}
	s.records = append(s.records, model.ComparisonRecord{
		WinnerID:  winnerID,
		LoserID:   loserID,
		Timestamp: s.parent.now().UTC(),
	})
	return nil
}

func (s *memSink) UpdateSkill(_ context.Context, id int64, skill int) error {
	if err := s.parent.failOn[OpUpdateSkill]; err != nil {
		return err
	}
	if !s.parent.has(id) {
		return fmt.Errorf("update skill for %d: %w", id, ErrNotFound)
	}
	s.skills[id] = skill
	return nil
}
