package simulate

import "errors"

var (
	ErrUnhealthy   = errors.New("service unhealthy")
	ErrTooFewBooks = errors.New("need at least two books to vote on")
	ErrStatus      = errors.New("unexpected status")
)
