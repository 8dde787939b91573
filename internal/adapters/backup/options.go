package backup

import (
	"time"

	"github.com/okian/bookarena/pkg/logger"
)

// Option applies a configuration option to the Rotator.
type Option func(*Rotator)

// WithKeep sets how many backups survive a prune.
func WithKeep(n int) Option {
	return func(r *Rotator) {
		r.keep = n
	}
}

// WithClock overrides time.Now for backup names.
func WithClock(now func() time.Time) Option {
	return func(r *Rotator) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Rotator) {
		if l != nil {
			r.logger = l
		}
	}
}
