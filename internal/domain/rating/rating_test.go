package rating_test

import (
	"math/rand"
	"testing"

	"github.com/okian/bookarena/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExpectedOutcome(t *testing.T) {
	Convey("Given the logistic expectation", t, func() {
		Convey("When both sides are equal", func() {
			for _, a := range []int{0, 800, 1000, 1200, -50} {
				So(rating.ExpectedOutcome(a, a), ShouldEqual, 0.5)
			}
		})

		Convey("When swapping the sides", func() {
			rng := rand.New(rand.NewSource(7))
			for range 500 {
				a := rng.Intn(3000) - 500
				b := rng.Intn(3000) - 500
				sum := rating.ExpectedOutcome(a, b) + rating.ExpectedOutcome(b, a)
				So(sum, ShouldAlmostEqual, 1.0, 1e-12)
			}
		})

		Convey("When the gap is 400 points", func() {
			So(rating.ExpectedOutcome(1200, 800), ShouldAlmostEqual, 10.0/11.0, 1e-9)
			So(rating.ExpectedOutcome(800, 1200), ShouldAlmostEqual, 1.0/11.0, 1e-9)
		})

		Convey("Then the result stays strictly inside (0,1)", func() {
			p := rating.ExpectedOutcome(1400, 600)
			So(p, ShouldBeLessThan, 1)
			So(p, ShouldBeGreaterThan, 0.5)
		})
	})
}

func TestKFactor(t *testing.T) {
	Convey("Given the k-factor tiers", t, func() {
		So(rating.KFactor(0), ShouldEqual, 40)
		So(rating.KFactor(0.19), ShouldEqual, 40)
		So(rating.KFactor(0.20), ShouldEqual, 30)
		So(rating.KFactor(0.39), ShouldEqual, 30)
		So(rating.KFactor(0.40), ShouldEqual, 20)
		So(rating.KFactor(1), ShouldEqual, 20)

		Convey("Then it never increases as the fraction grows", func() {
			prev := rating.KFactor(0)
			for f := 0.0; f <= 1.0; f += 0.01 {
				k := rating.KFactor(f)
				So(k, ShouldBeLessThanOrEqualTo, prev)
				So([]int{40, 30, 20}, ShouldContain, k)
				prev = k
			}
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Given two fresh items of equal skill in a population of two", t, func() {
		w, l := rating.Resolve(
			rating.Side{Skill: 1000},
			rating.Side{Skill: 1000},
			2,
		)

		Convey("Then the winner gains 20 and the loser drops 20", func() {
			So(w, ShouldEqual, 1020)
			So(l, ShouldEqual, 980)
		})
	})

	Convey("Given an established favourite beating an underdog", t, func() {
		// 10 unique opponents out of 19 others puts the winner in the k=20 tier.
		w, l := rating.Resolve(
			rating.Side{Skill: 1200, UniqueOpponents: 10},
			rating.Side{Skill: 800, UniqueOpponents: 0},
			20,
		)

		Convey("Then the winner barely moves", func() {
			So(w, ShouldEqual, 1202)
		})

		Convey("And the loser uses its own k-factor", func() {
			// k=40, expected 1/11: 40 * -0.0909 = -3.64 -> -4
			So(l, ShouldEqual, 796)
		})
	})

	Convey("Given sides with different histories", t, func() {
		w, l := rating.Resolve(
			rating.Side{Skill: 1000, UniqueOpponents: 0},
			rating.Side{Skill: 1000, UniqueOpponents: 9},
			10,
		)

		Convey("Then the update is not zero-sum", func() {
			So(w-1000, ShouldEqual, 20)
			So(1000-l, ShouldEqual, 10)
		})
	})
}

func TestInitialSkill(t *testing.T) {
	Convey("Given the input rating map", t, func() {
		So(rating.InitialSkill(1), ShouldEqual, 800)
		So(rating.InitialSkill(10), ShouldEqual, 1200)
		So(rating.InitialSkill(5.5), ShouldEqual, 1000)
		So(rating.InitialSkill(7), ShouldEqual, 1067)

		Convey("And the validator accepts only 1..10", func() {
			So(rating.ValidInput(1), ShouldBeTrue)
			So(rating.ValidInput(10), ShouldBeTrue)
			So(rating.ValidInput(0.5), ShouldBeFalse)
			So(rating.ValidInput(11), ShouldBeFalse)
		})
	})
}
