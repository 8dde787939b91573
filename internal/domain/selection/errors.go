package selection

import "errors"

// ErrDegeneratePopulation means fewer than two items are available.
var ErrDegeneratePopulation = errors.New("need at least two items to compare")
