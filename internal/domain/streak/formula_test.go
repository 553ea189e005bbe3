package streak_test

import (
	"testing"

	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/internal/domain/streak"
	. "github.com/smartystreets/goconvey/convey"
)

func selected(gamesAgo int) streak.Appearance {
	return streak.Appearance{GamesAgo: gamesAgo, Status: model.StatusSelected, Paid: true}
}

func reserve(gamesAgo int) streak.Appearance {
	return streak.Appearance{GamesAgo: gamesAgo, Status: model.StatusReserve, Paid: true}
}

func TestParseFormula(t *testing.T) {
	Convey("Given formula identifiers", t, func() {
		Convey("Then known ids parse and empty defaults to step", func() {
			f, err := streak.ParseFormula("linear")
			So(err, ShouldBeNil)
			So(f, ShouldEqual, streak.FormulaLinear)

			f, err = streak.ParseFormula("")
			So(err, ShouldBeNil)
			So(f, ShouldEqual, streak.FormulaStep)
		})

		Convey("And unknown ids are rejected", func() {
			_, err := streak.ParseFormula("v3")
			So(err, ShouldWrap, streak.ErrUnknownFormula)
		})
	})
}

func TestComputeXPStep(t *testing.T) {
	Convey("Given the step formula", t, func() {
		p := model.Player{ID: "p1"}

		Convey("When the player played the most recent game", func() {
			xp := streak.ComputeXP(p, []streak.Appearance{selected(0)}, streak.FormulaStep)

			Convey("Then the newest bracket awards 20", func() {
				So(xp, ShouldEqual, 20)
			})
		})

		Convey("When appearances span the age brackets", func() {
			history := []streak.Appearance{selected(0), selected(1), selected(3), selected(5), selected(10), selected(20), selected(30), selected(40)}
			xp := streak.ComputeXP(p, history, streak.FormulaStep)

			Convey("Then each bracket contributes its step value", func() {
				So(xp, ShouldEqual, 20+18+16+14+12+10+5+0)
			})
		})

		Convey("When reserve appearances exist", func() {
			history := []streak.Appearance{reserve(1), reserve(39), reserve(40)}
			xp := streak.ComputeXP(p, history, streak.FormulaStep)

			Convey("Then only the most recent 40 games earn +5 each", func() {
				// reserve(1) and reserve(39) count, reserve(40) is outside the window
				So(xp, ShouldEqual, 10)
			})
		})

		Convey("When a late reserve appearance exists", func() {
			history := []streak.Appearance{{GamesAgo: 1, Status: model.StatusReserve, Late: true}}
			xp := streak.ComputeXP(p, history, streak.FormulaStep)

			Convey("Then it earns nothing", func() {
				So(xp, ShouldEqual, 0)
			})
		})

		Convey("When the player rode the bench in the most recent game", func() {
			history := []streak.Appearance{reserve(0), selected(1)}
			xp := streak.ComputeXP(p, history, streak.FormulaStep)

			Convey("Then the +5% bench-warmer bonus applies", func() {
				So(xp, ShouldEqual, 24) // (5+18) * 1.05 = 24.15 -> 24
			})
		})

		Convey("When a streak is active", func() {
			p.CurrentStreak = 3
			xp := streak.ComputeXP(p, []streak.Appearance{selected(0)}, streak.FormulaStep)

			Convey("Then the linear modifier adds 10% per streak game", func() {
				So(xp, ShouldEqual, 26) // 20 * 1.3
			})
		})

		Convey("When unpaid games pile up", func() {
			p.UnpaidGames = 2
			history := []streak.Appearance{selected(0), selected(1)}
			xp := streak.ComputeXP(p, history, streak.FormulaStep)

			Convey("Then the -50% per unpaid game can floor XP at zero", func() {
				So(xp, ShouldEqual, 0)
			})
		})

		Convey("When a dropout appears in history", func() {
			history := []streak.Appearance{{GamesAgo: 0, Status: model.StatusSelected, DroppedOut: true}, selected(1)}
			xp := streak.ComputeXP(p, history, streak.FormulaStep)

			Convey("Then the dropped game earns no base XP", func() {
				So(xp, ShouldEqual, 18)
			})
		})

		Convey("When the registration streak grows", func() {
			p.RegistrationStreak = 4
			xp := streak.ComputeXP(p, []streak.Appearance{selected(0)}, streak.FormulaStep)

			Convey("Then +2.5% per eligible registration applies", func() {
				So(xp, ShouldEqual, 22) // 20 * 1.10
			})
		})
	})
}

func TestComputeXPLinear(t *testing.T) {
	Convey("Given the linear-decay formula", t, func() {
		p := model.Player{ID: "p1"}

		Convey("When recency decays", func() {
			xp := streak.ComputeXP(p, []streak.Appearance{selected(10)}, streak.FormulaLinear)

			Convey("Then the value is 20 - 0.5*games_ago", func() {
				So(xp, ShouldEqual, 15)
			})
		})

		Convey("When a game is very old", func() {
			xp := streak.ComputeXP(p, []streak.Appearance{selected(100)}, streak.FormulaLinear)

			Convey("Then the value floors at 1", func() {
				So(xp, ShouldEqual, 1)
			})
		})

		Convey("When reserve credit is older than the step window", func() {
			xp := streak.ComputeXP(p, []streak.Appearance{reserve(45)}, streak.FormulaLinear)

			Convey("Then the linear variant still counts it", func() {
				So(xp, ShouldEqual, 5)
			})
		})

		Convey("When the streak is within the diminishing range", func() {
			p.CurrentStreak = 3
			xp := streak.ComputeXP(p, []streak.Appearance{selected(0)}, streak.FormulaLinear)

			Convey("Then the bonus is 10+9+8 percent", func() {
				So(xp, ShouldEqual, 25) // 20 * 1.27 = 25.4 -> 25
			})
		})

		Convey("When the streak passes ten games", func() {
			p.CurrentStreak = 12
			xp := streak.ComputeXP(p, []streak.Appearance{selected(0)}, streak.FormulaLinear)

			Convey("Then the bonus is 55 plus 1 percent per extra game", func() {
				So(xp, ShouldEqual, 31) // 20 * 1.57 = 31.4 -> 31
			})
		})
	})
}

func TestEffectiveStreakUnderShield(t *testing.T) {
	Convey("Given a player with an active shield", t, func() {
		p := model.Player{ID: "p1", ShieldActive: true, ProtectedStreakBase: 14}

		Convey("When the natural streak is still low", func() {
			p.CurrentStreak = 2

			Convey("Then the protected base decays toward the natural streak", func() {
				So(p.EffectiveStreak(), ShouldEqual, 12)
			})
		})

		Convey("When natural attendance overtakes the decayed value", func() {
			p.CurrentStreak = 9

			Convey("Then the natural streak wins", func() {
				So(p.EffectiveStreak(), ShouldEqual, 9)
			})
		})

		Convey("When no shield is active", func() {
			p.ShieldActive = false
			p.CurrentStreak = 4

			Convey("Then the natural streak is used directly", func() {
				So(p.EffectiveStreak(), ShouldEqual, 4)
			})
		})
	})
}

func TestActiveMultiplier(t *testing.T) {
	Convey("Given the balancing multiplier", t, func() {
		Convey("When the player carries no counters", func() {
			So(streak.ActiveMultiplier(model.Player{}), ShouldEqual, 1.0)
		})

		Convey("When a registration streak is running", func() {
			p := model.Player{ID: "p1", RegistrationStreak: 4}
			So(streak.ActiveMultiplier(p), ShouldEqual, 1.1)
		})

		Convey("When one unpaid game penalizes", func() {
			p := model.Player{ID: "p1", UnpaidGames: 1}
			So(streak.ActiveMultiplier(p), ShouldEqual, 0.5)
		})

		Convey("When penalties overwhelm the bonuses", func() {
			p := model.Player{ID: "p1", RegistrationStreak: 2, UnpaidGames: 3}

			Convey("Then the multiplier floors instead of going negative", func() {
				So(streak.ActiveMultiplier(p), ShouldEqual, 0.1)
			})
		})
	})
}
