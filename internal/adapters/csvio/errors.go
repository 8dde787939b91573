package csvio

import "errors"

// Sentinel kinds for CSV errors.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidRating = errors.New("invalid rating")
	ErrNotCSV        = errors.New("not a csv file")
)
