package backup

import "errors"

// ErrInvalidKeep means the retention count is below one.
var ErrInvalidKeep = errors.New("backup keep must be at least 1")
