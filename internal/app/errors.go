package service

import (
	"errors"

	"github.com/okian/bookarena/internal/domain/model"
	"github.com/okian/bookarena/internal/domain/selection"
)

// Sentinel kinds surfaced by the engine.
var (
	// ErrDegeneratePopulation means fewer than two items are loaded.
	ErrDegeneratePopulation = selection.ErrDegeneratePopulation
	// ErrInvalidDecision is an input outside select-A, select-B, go-back, quit.
	ErrInvalidDecision = model.ErrInvalidDecision
	// ErrPersistence wraps any commit sink failure. State is left unchanged.
	ErrPersistence = errors.New("persistence failure")
	// ErrUnknownItem means the id is not part of the current session.
	ErrUnknownItem = errors.New("unknown item")
	// ErrSameItem means an item was asked to play itself.
	ErrSameItem = errors.New("winner and loser must differ")
	// ErrNotOpen means the engine has no session loaded.
	ErrNotOpen = errors.New("engine not open")
)
