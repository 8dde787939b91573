// Package backup keeps dated copies of the library database and prunes the
// oldest ones.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/okian/bookarena/pkg/logger"
	"github.com/okian/bookarena/pkg/metrics"
)

const (
	defaultKeep   = 5
	filePrefix    = "backup_"
	fileSuffix    = ".db"
	nameLayout    = "2006-01-02_15-04-05"
	dirPermission = 0o755
)

// Snapshotter writes a consistent copy of a database to dest.
type Snapshotter interface {
	Snapshot(ctx context.Context, dest string) error
}

// FileCopy snapshots by copying a closed database file byte for byte.
type FileCopy string

// Snapshot copies the file at f to dest.
func (f FileCopy) Snapshot(_ context.Context, dest string) error {
	src, err := os.Open(string(f))
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Rotator writes backup_YYYY-MM-DD_HH-MM-SS.db files into one directory and
// keeps only the newest ones.
type Rotator struct {
	dir    string
	keep   int
	now    func() time.Time
	logger logger.Logger
}

// NewRotator creates dir if needed.
func NewRotator(dir string, opts ...Option) (*Rotator, error) {
	r := &Rotator{dir: dir, keep: defaultKeep, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.keep < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeep, r.keep)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("backup")
	}
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return r, nil
}

// Backup snapshots src into a new dated file, then prunes. It returns the
// new file's path.
func (r *Rotator) Backup(ctx context.Context, src Snapshotter) (string, error) {
	path, err := r.nextPath()
	if err != nil {
		metrics.RecordBackup("failure")
		return "", err
	}
	if err := src.Snapshot(ctx, path); err != nil {
		metrics.RecordBackup("failure")
		return "", fmt.Errorf("backup: %w", err)
	}
	metrics.RecordBackup("success")
	r.logger.Info(ctx, "backup written", logger.String("path", path))

	removed, err := r.Prune()
	if err != nil {
		return path, fmt.Errorf("prune backups: %w", err)
	}
	if len(removed) > 0 {
		r.logger.Debug(ctx, "old backups removed", logger.Int("count", len(removed)))
	}
	return path, nil
}

// List returns the backup files in dir, oldest first.
func (r *Rotator) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	// The timestamp layout sorts lexically.
	slices.Sort(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(r.dir, n)
	}
	return paths, nil
}

// Prune removes all but the newest keep backups and returns what it removed.
func (r *Rotator) Prune() ([]string, error) {
	paths, err := r.List()
	if err != nil {
		return nil, err
	}
	if len(paths) <= r.keep {
		return nil, nil
	}
	stale := paths[:len(paths)-r.keep]
	for _, p := range stale {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return stale, nil
}

// nextPath avoids clobbering a backup taken within the same second.
func (r *Rotator) nextPath() (string, error) {
	base := filePrefix + r.now().Format(nameLayout)
	for n := 1; ; n++ {
		name := base + fileSuffix
		if n > 1 {
			name = fmt.Sprintf("%s_%d%s", base, n, fileSuffix)
		}
		path := filepath.Join(r.dir, name)
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", err
		}
	}
}
