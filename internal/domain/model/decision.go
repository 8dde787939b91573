package model

import (
	"errors"
	"strings"
)

// Decision is one of the four inputs accepted while a pair is on screen.
type Decision int

const (
	DecisionInvalid Decision = iota
	SelectA
	SelectB
	GoBack
	Quit
)

// ErrInvalidDecision reports an input outside {1, 2, b, q}.
var ErrInvalidDecision = errors.New("invalid decision")

// ParseDecision maps raw terminal input to a Decision.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1":
		return SelectA, nil
	case "2":
		return SelectB, nil
	case "b":
		return GoBack, nil
	case "q":
		return Quit, nil
	}
	return DecisionInvalid, ErrInvalidDecision
}

func (d Decision) String() string {
	switch d {
	case SelectA:
		return "select-a"
	case SelectB:
		return "select-b"
	case GoBack:
		return "go-back"
	case Quit:
		return "quit"
	}
	return "invalid"
}
