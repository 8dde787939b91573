package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound    = errors.New("item not found")
	ErrUnknownItem = errors.New("comparison references unknown item")
	ErrClosed      = errors.New("store closed")
)
