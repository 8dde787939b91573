// Package history derives opponent statistics from the append-only log of
// comparison records.
package history

import "github.com/okian/bookarena/internal/domain/model"

// Index is a read model over comparison records: for every item, how many
// times it met each opponent. It equals a full recomputation from the log as
// long as every committed record is passed to Append exactly once.
type Index struct {
	pairs   map[int64]map[int64]int
	records int
}

// New returns an empty index.
func New() *Index {
	return &Index{pairs: make(map[int64]map[int64]int)}
}

// Build aggregates records into a fresh index.
func Build(records []model.ComparisonRecord) *Index {
	idx := New()
	for _, r := range records {
		idx.Append(r)
	}
	return idx
}

// Append extends the index with one more committed record.
func (x *Index) Append(r model.ComparisonRecord) {
	x.bump(r.WinnerID, r.LoserID)
	x.bump(r.LoserID, r.WinnerID)
	x.records++
}

func (x *Index) bump(id, opponent int64) {
	m, ok := x.pairs[id]
	if !ok {
		m = make(map[int64]int)
		x.pairs[id] = m
	}
	m[opponent]++
}

// UniqueOpponents is the number of distinct items id has been compared with.
func (x *Index) UniqueOpponents(id int64) int {
	return len(x.pairs[id])
}

// TimesMatched is how often a and b have been compared, in either order.
func (x *Index) TimesMatched(a, b int64) int {
	return x.pairs[a][b]
}

// PastOpponents returns a copy of opponent id -> times matched for id.
func (x *Index) PastOpponents(id int64) map[int64]int {
	out := make(map[int64]int, len(x.pairs[id]))
	for k, v := range x.pairs[id] {
		out[k] = v
	}
	return out
}

// OpponentCounts returns item id -> unique opponent count for every item
// that appears in at least one record.
func (x *Index) OpponentCounts() map[int64]int {
	out := make(map[int64]int, len(x.pairs))
	for id, m := range x.pairs {
		out[id] = len(m)
	}
	return out
}

// Len is the number of records folded into the index.
func (x *Index) Len() int {
	return x.records
}
