package waitlist_test

import (
	"testing"
	"time"

	"github.com/matchday/engine/internal/domain/waitlist"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEffectiveXP(t *testing.T) {
	Convey("Given reserve candidates", t, func() {
		Convey("When counters are mixed", func() {
			c := waitlist.Candidate{Caps: 20, Bonuses: 4, Penalties: 2, Streak: 3, DropoutPenalties: 1}

			Convey("Then caps multiply the adjusted base", func() {
				// 20 * (10+4-2+3-5) = 200
				So(waitlist.EffectiveXP(c), ShouldEqual, 200)
			})
		})

		Convey("When penalties overwhelm the base", func() {
			c := waitlist.Candidate{Caps: 8, Penalties: 30}

			Convey("Then the multiplier floors at 1", func() {
				So(waitlist.EffectiveXP(c), ShouldEqual, 8)
			})
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given a ranker", t, func() {
		r := waitlist.New()
		t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		Convey("When candidates differ in effective XP", func() {
			ranked := r.Rank([]waitlist.Candidate{
				{PlayerID: "low", Caps: 5, RegisteredAt: t0},
				{PlayerID: "high", Caps: 50, RegisteredAt: t0.Add(time.Hour)},
			})

			Convey("Then higher XP ranks first", func() {
				So(ranked[0].PlayerID, ShouldEqual, "high")
				So(ranked[1].PlayerID, ShouldEqual, "low")
			})
		})

		Convey("When effective XP ties", func() {
			ranked := r.Rank([]waitlist.Candidate{
				{PlayerID: "later", Caps: 10, RegisteredAt: t0.Add(time.Minute)},
				{PlayerID: "earlier", Caps: 10, RegisteredAt: t0},
			})

			Convey("Then the first-registered wins the tie", func() {
				So(ranked[0].PlayerID, ShouldEqual, "earlier")
			})
		})

		Convey("When ranking twice", func() {
			in := []waitlist.Candidate{
				{PlayerID: "a", Caps: 10, RegisteredAt: t0},
				{PlayerID: "b", Caps: 12, RegisteredAt: t0},
				{PlayerID: "c", Caps: 10, RegisteredAt: t0},
			}

			Convey("Then the order is deterministic and the input untouched", func() {
				first := r.Rank(in)
				second := r.Rank(in)
				So(second, ShouldResemble, first)
				So(in[0].PlayerID, ShouldEqual, "a")
			})
		})
	})
}

func TestOfferedCount(t *testing.T) {
	Convey("Given the default 48-hour window", t, func() {
		r := waitlist.New()

		Convey("When the game is 48 or more hours out", func() {
			Convey("Then only the top reserve is eligible", func() {
				So(r.OfferedCount(10, 48), ShouldEqual, 1)
				So(r.OfferedCount(10, 72), ShouldEqual, 1)
			})
		})

		Convey("When the game is 36 hours out", func() {
			Convey("Then a quarter of the list rounds up", func() {
				So(r.OfferedCount(10, 36), ShouldEqual, 3) // ceil(10*0.25)
				So(r.OfferedCount(4, 36), ShouldEqual, 1)
				So(r.OfferedCount(5, 36), ShouldEqual, 2)
			})
		})

		Convey("When game day arrives", func() {
			Convey("Then every reserve is eligible", func() {
				So(r.OfferedCount(10, 0), ShouldEqual, 10)
				So(r.OfferedCount(10, -3), ShouldEqual, 10)
			})
		})

		Convey("When there are no reserves", func() {
			So(r.OfferedCount(0, 12), ShouldEqual, 0)
		})
	})
}
