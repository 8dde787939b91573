// Package service drives the pairwise ranking loop: it asks the selector for
// a pair, waits for a decision, resolves it through the rating model and
// commits the result.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	repository "github.com/okian/bookarena/internal/adapters/repository"
	"github.com/okian/bookarena/internal/domain/model"
	"github.com/okian/bookarena/internal/domain/rating"
	"github.com/okian/bookarena/internal/domain/selection"
	"github.com/okian/bookarena/pkg/logger"
	"github.com/okian/bookarena/pkg/metrics"
)

// Pair is the next comparison to show.
type Pair struct {
	A model.Item `json:"a"`
	B model.Item `json:"b"`
}

// Outcome describes a committed resolution.
type Outcome struct {
	Winner      model.Item `json:"winner"`
	Loser       model.Item `json:"loser"`
	WinnerDelta int        `json:"winner_delta"`
	LoserDelta  int        `json:"loser_delta"`
}

// Engine owns one dataset. All methods are safe for concurrent use; the
// mutex serializes resolutions so no two comparisons are in flight at once.
type Engine struct {
	mu sync.Mutex

	store    repository.Store
	selector *selection.Selector
	session  *Session
	now      func() time.Time
	logger   logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSelector sets the pair selector.
func WithSelector(s *selection.Selector) Option {
	return func(e *Engine) {
		if s != nil {
			e.selector = s
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Engine over store. Call Open before use.
func New(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		selector: selection.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}
	return e
}

// Open loads items and the comparison log into a fresh session.
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(ctx)
}

// Reload replaces the session after the store changed underneath, e.g. after
// an import.
func (e *Engine) Reload(ctx context.Context) error {
	return e.Open(ctx)
}

func (e *Engine) load(ctx context.Context) error {
	items, err := e.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	records, err := e.store.Comparisons(ctx)
	if err != nil {
		return fmt.Errorf("load comparisons: %w", err)
	}
	e.session = newSession(items, records, e.now())
	e.refreshGauges()

	e.logger.Info(ctx, "session opened",
		logger.String("session", e.session.ID),
		logger.Int("items", len(items)),
		logger.Int("comparisons", len(records)),
	)
	return nil
}

// Population is the number of items in the current session.
func (e *Engine) Population() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0
	}
	return e.session.Population()
}

// Next selects the next pair. It fails with ErrDegeneratePopulation when
// fewer than two items exist.
func (e *Engine) Next(_ context.Context) (Pair, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return Pair{}, ErrNotOpen
	}

	a, b, err := e.selector.Select(e.session.items, e.session.history)
	if err != nil {
		return Pair{}, err
	}
	metrics.RecordPairSelected()
	return Pair{A: a, B: b}, nil
}

// Resolve records that winnerID beat loserID. New skills are computed from
// the current history snapshot and committed in one transaction; the
// session is only updated after the commit succeeds. A commit failure is
// returned wrapped in ErrPersistence and leaves every in-memory value as it
// was.
func (e *Engine) Resolve(ctx context.Context, winnerID, loserID int64) (Outcome, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return Outcome{}, ErrNotOpen
	}
	s := e.session

	if s.Population() < 2 {
		return Outcome{}, ErrDegeneratePopulation
	}
	if winnerID == loserID {
		return Outcome{}, ErrSameItem
	}
	winner, ok := s.item(winnerID)
	if !ok {
		return Outcome{}, fmt.Errorf("winner %d: %w", winnerID, ErrUnknownItem)
	}
	loser, ok := s.item(loserID)
	if !ok {
		return Outcome{}, fmt.Errorf("loser %d: %w", loserID, ErrUnknownItem)
	}

	newW, newL := rating.Resolve(
		rating.Side{Skill: winner.Skill, UniqueOpponents: s.history.UniqueOpponents(winner.ID)},
		rating.Side{Skill: loser.Skill, UniqueOpponents: s.history.UniqueOpponents(loser.ID)},
		s.Population(),
	)

	err := e.store.InTx(ctx, func(sink repository.CommitSink) error {
		if err := sink.RecordComparison(ctx, winner.ID, loser.ID); err != nil {
			return err
		}
		if err := sink.UpdateSkill(ctx, winner.ID, newW); err != nil {
			return err
		}
		return sink.UpdateSkill(ctx, loser.ID, newL)
	})
	if err != nil {
		metrics.RecordPersistenceFailure()
		e.logger.Error(ctx, "comparison not committed",
			logger.String("session", s.ID),
			logger.Int64("winner", winner.ID),
			logger.Int64("loser", loser.ID),
			logger.Error(err),
		)
		return Outcome{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.history.Append(model.ComparisonRecord{WinnerID: winner.ID, LoserID: loser.ID, Timestamp: e.now()})
	s.setSkill(winner.ID, newW)
	s.setSkill(loser.ID, newL)
	s.resolved++

	out := Outcome{
		WinnerDelta: newW - winner.Skill,
		LoserDelta:  newL - loser.Skill,
	}
	out.Winner, _ = s.item(winner.ID)
	out.Loser, _ = s.item(loser.ID)

	metrics.RecordComparisonResolved()
	metrics.RecordResolveLatency(float64(time.Since(start).Microseconds()) / 1000)
	e.refreshGauges()

	e.logger.Debug(ctx, "comparison resolved",
		logger.String("session", s.ID),
		logger.Int64("winner", winner.ID),
		logger.Int("winner_skill", newW),
		logger.Int64("loser", loser.ID),
		logger.Int("loser_skill", newL),
	)
	return out, nil
}

// Rankings returns every item ordered by skill with its confidence.
func (e *Engine) Rankings(_ context.Context) []model.Ranked {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	return e.session.Ranked()
}

// Rank returns the ranked entry of one item.
func (e *Engine) Rank(ctx context.Context, id int64) (model.Ranked, error) {
	ranked := e.Rankings(ctx)
	if ranked == nil {
		return model.Ranked{}, ErrNotOpen
	}
	for _, r := range ranked {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Ranked{}, fmt.Errorf("item %d: %w", id, ErrUnknownItem)
}

// Aggregate is the mean confidence of the current session.
func (e *Engine) Aggregate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0
	}
	return e.session.Aggregate()
}

// GetStats returns engine statistics for monitoring.
func (e *Engine) GetStats() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := map[string]interface{}{
		"open": e.session != nil,
	}
	if e.session == nil {
		return stats
	}
	stats["session"] = e.session.ID
	stats["startedAt"] = e.session.StartedAt.UTC().Format(time.RFC3339)
	stats["items"] = e.session.Population()
	stats["comparisons"] = e.session.history.Len()
	stats["resolvedThisSession"] = e.session.resolved
	stats["aggregateConfidence"] = e.session.Aggregate()
	return stats
}

// refreshGauges must be called with mu held.
func (e *Engine) refreshGauges() {
	metrics.UpdateItemsTotal(e.session.Population())
	metrics.UpdateComparisonsTotal(e.session.history.Len())
	metrics.UpdateAggregateConfidence(e.session.Aggregate())
}
