package service

import (
	"context"

	"github.com/okian/bookarena/internal/domain/model"
	"github.com/okian/bookarena/pkg/metrics"
)

// State is a step of the comparison loop.
type State int

const (
	AwaitingPair State = iota
	AwaitingDecision
	Resolving
	Exited
)

func (s State) String() string {
	switch s {
	case AwaitingPair:
		return "awaiting-pair"
	case AwaitingDecision:
		return "awaiting-decision"
	case Resolving:
		return "resolving"
	default:
		return "exited"
	}
}

// Exit tells the caller why the loop stopped.
type Exit int

const (
	ExitBack Exit = iota // return to the menu
	ExitQuit             // end the process
)

// Prompter is the user side of the loop.
type Prompter interface {
	// Prompt shows pair number match and blocks until the user answers.
	Prompt(ctx context.Context, match int, p Pair) (string, error)
	// Reject tells the user the last input was not understood.
	Reject(ctx context.Context, input string)
}

// Run drives the comparison loop until the user goes back or quits, an
// error occurs, or ctx is done. Invalid input re-prompts the same pair
// without touching any state.
func (e *Engine) Run(ctx context.Context, p Prompter) (Exit, error) {
	if e.Population() < 2 {
		return ExitBack, ErrDegeneratePopulation
	}

	var (
		state         = AwaitingPair
		pair          Pair
		winner, loser model.Item
		match         = 1
	)
	for {
		if err := ctx.Err(); err != nil {
			return ExitQuit, err
		}

		switch state {
		case AwaitingPair:
			next, err := e.Next(ctx)
			if err != nil {
				return ExitBack, err
			}
			pair = next
			state = AwaitingDecision

		case AwaitingDecision:
			raw, err := p.Prompt(ctx, match, pair)
			if err != nil {
				return ExitQuit, err
			}
			d, err := model.ParseDecision(raw)
			if err != nil {
				metrics.RecordInvalidDecision()
				p.Reject(ctx, raw)
				continue
			}
			switch d {
			case model.GoBack:
				return ExitBack, nil
			case model.Quit:
				return ExitQuit, nil
			case model.SelectA:
				winner, loser = pair.A, pair.B
			case model.SelectB:
				winner, loser = pair.B, pair.A
			}
			state = Resolving

		case Resolving:
			if _, err := e.Resolve(ctx, winner.ID, loser.ID); err != nil {
				return ExitBack, err
			}
			match++
			state = AwaitingPair

		case Exited:
			return ExitQuit, nil
		}
	}
}
