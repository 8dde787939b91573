// Package repository defines the storage contracts consumed by the ranking
// engine and provides SQLite and in-memory implementations.
package repository

import (
	"context"

	"github.com/okian/bookarena/internal/domain/model"
)

// ItemSource loads the current item snapshot.
type ItemSource interface {
	LoadAll(ctx context.Context) ([]model.Item, error)
}

// HistorySource exposes opponent statistics derived from every committed
// comparison record.
type HistorySource interface {
	// OpponentCounts returns item id -> number of distinct opponents.
	OpponentCounts(ctx context.Context) (map[int64]int, error)
	// PastOpponents returns opponent id -> times matched for one item.
	PastOpponents(ctx context.Context, id int64) (map[int64]int, error)
	// Comparisons returns the full record log in insertion order.
	Comparisons(ctx context.Context) ([]model.ComparisonRecord, error)
}

// CommitSink durably records the effects of one resolved comparison.
type CommitSink interface {
	RecordComparison(ctx context.Context, winnerID, loserID int64) error
	UpdateSkill(ctx context.Context, id int64, skill int) error
}

// Transactor runs fn against a CommitSink whose writes either all commit or
// all roll back. fn must only touch the store through the sink.
type Transactor interface {
	InTx(ctx context.Context, fn func(CommitSink) error) error
}

// ItemWriter adds newly imported items.
type ItemWriter interface {
	// AddItems inserts items and returns how many were written. IDs of the
	// given items are ignored and assigned by the store.
	AddItems(ctx context.Context, items []model.Item) (int, error)
}

// Store is everything the engine and the importer need.
type Store interface {
	ItemSource
	HistorySource
	Transactor
	ItemWriter
	Close() error
}
