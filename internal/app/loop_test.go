package service_test

import (
	"context"
	"errors"
	"io"
	"testing"

	repository "github.com/okian/bookarena/internal/adapters/repository"
	service "github.com/okian/bookarena/internal/app"
	"github.com/okian/bookarena/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// scripted answers prompts from a fixed list and records what it saw.
type scripted struct {
	answers  []string
	pairs    []service.Pair
	matches  []int
	rejected []string
}

func (s *scripted) Prompt(_ context.Context, match int, p service.Pair) (string, error) {
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	s.pairs = append(s.pairs, p)
	s.matches = append(s.matches, match)
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scripted) Reject(_ context.Context, input string) {
	s.rejected = append(s.rejected, input)
}

func threeBooks() *repository.MemoryStore {
	return repository.NewMemoryStore(
		model.Item{ID: 1, Title: "Dune", Author: "Frank Herbert", Skill: 1000},
		model.Item{ID: 2, Title: "Emma", Author: "Jane Austen", Skill: 1000},
		model.Item{ID: 3, Title: "Ubik", Author: "Philip K. Dick", Skill: 1000},
	)
}

func TestRun(t *testing.T) {
	Convey("Given an open engine over three items", t, func() {
		ctx := context.Background()
		store := threeBooks()
		engine := newEngine(store)
		So(engine.Open(ctx), ShouldBeNil)

		Convey("When the user types garbage, then picks A, then goes back", func() {
			p := &scripted{answers: []string{"x", "1", "b"}}
			exit, err := engine.Run(ctx, p)
			So(err, ShouldBeNil)
			So(exit, ShouldEqual, service.ExitBack)

			Convey("Then the garbage is rejected and the same pair shown again", func() {
				So(p.rejected, ShouldResemble, []string{"x"})
				So(p.pairs[0], ShouldResemble, p.pairs[1])
				So(p.matches, ShouldResemble, []int{1, 1, 2})
			})

			Convey("Then exactly one comparison was recorded for the first pair's A side", func() {
				records, _ := store.Comparisons(ctx)
				So(len(records), ShouldEqual, 1)
				So(records[0].WinnerID, ShouldEqual, p.pairs[1].A.ID)
				So(records[0].LoserID, ShouldEqual, p.pairs[1].B.ID)
			})
		})

		Convey("When the user picks B and quits", func() {
			p := &scripted{answers: []string{"2", "Q"}}
			exit, err := engine.Run(ctx, p)
			So(err, ShouldBeNil)
			So(exit, ShouldEqual, service.ExitQuit)

			records, _ := store.Comparisons(ctx)
			So(len(records), ShouldEqual, 1)
			So(records[0].WinnerID, ShouldEqual, p.pairs[0].B.ID)
		})

		Convey("When input ends", func() {
			exit, err := engine.Run(ctx, &scripted{})
			So(errors.Is(err, io.EOF), ShouldBeTrue)
			So(exit, ShouldEqual, service.ExitQuit)
		})

		Convey("When the store fails mid-loop", func() {
			store.FailOn(repository.OpRecordComparison, errDisk)
			exit, err := engine.Run(ctx, &scripted{answers: []string{"1"}})
			So(errors.Is(err, service.ErrPersistence), ShouldBeTrue)
			So(exit, ShouldEqual, service.ExitBack)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := engine.Run(cctx, &scripted{answers: []string{"1"}})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a single item", t, func() {
		ctx := context.Background()
		engine := newEngine(repository.NewMemoryStore(model.Item{ID: 1, Title: "Solo", Author: "Han", Skill: 1000}))
		So(engine.Open(ctx), ShouldBeNil)

		Convey("Then the loop refuses to start", func() {
			p := &scripted{answers: []string{"1"}}
			exit, err := engine.Run(ctx, p)
			So(errors.Is(err, service.ErrDegeneratePopulation), ShouldBeTrue)
			So(exit, ShouldEqual, service.ExitBack)
			So(p.pairs, ShouldBeEmpty)
		})
	})
}

func TestStateString(t *testing.T) {
	Convey("States have readable names", t, func() {
		So(service.AwaitingPair.String(), ShouldEqual, "awaiting-pair")
		So(service.AwaitingDecision.String(), ShouldEqual, "awaiting-decision")
		So(service.Resolving.String(), ShouldEqual, "resolving")
		So(service.Exited.String(), ShouldEqual, "exited")
	})
}
