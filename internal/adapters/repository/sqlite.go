package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/bookarena/internal/domain/model"

	_ "modernc.org/sqlite"
)

const (
	defaultBusyTimeout = 5 * time.Second
	dirPermission      = 0o755
	timestampLayout    = time.RFC3339Nano
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	title   TEXT NOT NULL,
	author  TEXT NOT NULL,
	rating  REAL NOT NULL,
	skill   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS comparisons (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	winner_id  INTEGER NOT NULL REFERENCES books(id),
	loser_id   INTEGER NOT NULL REFERENCES books(id),
	ts         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS comparisons_winner ON comparisons(winner_id);
CREATE INDEX IF NOT EXISTS comparisons_loser ON comparisons(loser_id);
`

// sides flattens the comparison log so each record appears once per participant.
const sides = `
	SELECT winner_id AS book_id, loser_id AS opponent_id FROM comparisons
	UNION ALL
	SELECT loser_id AS book_id, winner_id AS opponent_id FROM comparisons
`

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db          *sql.DB
	path        string
	busyTimeout time.Duration
	now         func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		path:        path,
		busyTimeout: defaultBusyTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirPermission); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps the single-writer model explicit.
	db.SetMaxOpenConns(1)
	s.db = db

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Snapshot writes a consistent copy of the database to dest, which must not
// exist yet.
func (s *SQLiteStore) Snapshot(ctx context.Context, dest string) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("snapshot to %s: %w", dest, err)
	}
	return nil
}

// LoadAll returns every book ordered by id.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, author, rating, skill FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Author, &it.Rating, &it.Skill); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddItems inserts items in one transaction.
func (s *SQLiteStore) AddItems(ctx context.Context, items []model.Item) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO books (title, author, rating, skill) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, it.Title, it.Author, it.Rating, it.Skill); err != nil {
			return 0, fmt.Errorf("insert %q: %w", it.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(items), nil
}

// OpponentCounts returns item id -> distinct opponents.
func (s *SQLiteStore) OpponentCounts(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, COUNT(DISTINCT opponent_id)
		FROM (`+sides+`)
		GROUP BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("opponent counts: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan opponent count: %w", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}

// PastOpponents returns opponent id -> times matched for id.
func (s *SQLiteStore) PastOpponents(ctx context.Context, id int64) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT opponent_id, COUNT(*)
		FROM (`+sides+`)
		WHERE book_id = ?
		GROUP BY opponent_id`, id)
	if err != nil {
		return nil, fmt.Errorf("past opponents: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var opp int64
		var n int
		if err := rows.Scan(&opp, &n); err != nil {
			return nil, fmt.Errorf("scan past opponent: %w", err)
		}
		out[opp] = n
	}
	return out, rows.Err()
}

// Comparisons returns the record log in insertion order.
func (s *SQLiteStore) Comparisons(ctx context.Context) ([]model.ComparisonRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT winner_id, loser_id, ts FROM comparisons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load comparisons: %w", err)
	}
	defer rows.Close()

	var out []model.ComparisonRecord
	for rows.Next() {
		var r model.ComparisonRecord
		var ts string
		if err := rows.Scan(&r.WinnerID, &r.LoserID, &ts); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		if r.Timestamp, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, fmt.Errorf("parse comparison time %q: %w", ts, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InTx runs fn inside a database transaction. Any error from fn, or from the
// commit itself, rolls every write back.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(CommitSink) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&txSink{tx: tx, now: s.now}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type txSink struct {
	tx  *sql.Tx
	now func() time.Time
}

func (t *txSink) RecordComparison(ctx context.Context, winnerID, loserID int64) error {
	var n int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE id IN (?, ?)`, winnerID, loserID).Scan(&n)
	if err != nil {
		return fmt.Errorf("check participants: %w", err)
	}
	if winnerID == loserID || n != 2 {
		return fmt.Errorf("record %d over %d: %w", winnerID, loserID, ErrUnknownItem)
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO comparisons (winner_id, loser_id, ts) VALUES (?, ?, ?)`,
		winnerID, loserID, t.now().UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert comparison: %w", err)
	}
	return nil
}

func (t *txSink) UpdateSkill(ctx context.Context, id int64, skill int) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE books SET skill = ? WHERE id = ?`, skill, id)
	if err != nil {
		return fmt.Errorf("update skill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update skill: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update skill for %d: %w", id, ErrNotFound)
	}
	return nil
}

// IsNotFound reports whether err carries one of this package's missing-row kinds.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnknownItem)
}
