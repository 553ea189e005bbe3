package balance_test

import (
	"fmt"
	"testing"

	"github.com/matchday/engine/internal/domain/balance"
	. "github.com/smartystreets/goconvey/convey"
)

// eightRanked returns players whose weighted scores rank them p1..p8.
func eightRanked() []balance.PlayerInput {
	players := make([]balance.PlayerInput, 0, 8)
	for i := 1; i <= 8; i++ {
		players = append(players, balance.PlayerInput{
			PlayerID: fmt.Sprintf("p%d", i),
			Attack:   float64(10 - i),
			Defense:  float64(10 - i),
		})
	}
	return players
}

func teamIDs(team []balance.PlayerInput) []string {
	ids := make([]string, 0, len(team))
	for _, p := range team {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

func TestSplit(t *testing.T) {
	Convey("Given the default balancer", t, func() {
		b := balance.New()

		Convey("When splitting 8 players ranked 1-8", func() {
			out := b.Split(eightRanked())

			Convey("Then ranks {1,4,5,8} form team A and {2,3,6,7} team B", func() {
				So(teamIDs(out.TeamA), ShouldResemble, []string{"p1", "p4", "p5", "p8"})
				So(teamIDs(out.TeamB), ShouldResemble, []string{"p2", "p3", "p6", "p7"})
				So(out.TeamA, ShouldHaveLength, 4)
				So(out.TeamB, ShouldHaveLength, 4)
			})

			Convey("And the differential report matches the sums", func() {
				// A: 9+6+5+2=22, B: 8+7+4+3=22 on both axes.
				So(out.Stats.AttackDifferential, ShouldAlmostEqual, 0)
				So(out.Stats.DefenseDifferential, ShouldAlmostEqual, 0)
				So(out.Stats.PerTeamTotals[balance.TeamA].Attack, ShouldAlmostEqual, 22)
				So(out.Stats.PerTeamTotals[balance.TeamB].Attack, ShouldAlmostEqual, 22)
			})
		})

		Convey("When splitting the same input twice", func() {
			first := b.Split(eightRanked())
			second := b.Split(eightRanked())

			Convey("Then the result is identical", func() {
				So(second, ShouldResemble, first)
			})
		})

		Convey("When scores tie", func() {
			players := []balance.PlayerInput{
				{PlayerID: "z", Attack: 5, Defense: 5, Experience: 10},
				{PlayerID: "a", Attack: 5, Defense: 5, Experience: 10},
				{PlayerID: "m", Attack: 5, Defense: 5, Experience: 40},
			}
			out := b.Split(players)

			Convey("Then XP breaks the tie, then player id", func() {
				// Rank order: m (higher XP), then a, z by id.
				So(teamIDs(out.TeamA), ShouldResemble, []string{"m"})
				So(teamIDs(out.TeamB), ShouldResemble, []string{"a", "z"})
			})
		})

		Convey("When a penalty multiplier drags a strong player down", func() {
			players := []balance.PlayerInput{
				{PlayerID: "strong", Attack: 9, Defense: 9, Multiplier: 0.4},
				{PlayerID: "steady", Attack: 6, Defense: 6},
			}
			out := b.Split(players)

			Convey("Then ranking uses the scaled score", func() {
				// strong: 18*0.4=7.2 < steady: 12.
				So(teamIDs(out.TeamA), ShouldResemble, []string{"steady"})
			})
		})

		Convey("When the roster is odd-sized", func() {
			players := eightRanked()[:7]
			out := b.Split(players)

			Convey("Then team sizes stay near equal", func() {
				So(len(out.TeamA)+len(out.TeamB), ShouldEqual, 7)
				So(len(out.TeamA)-len(out.TeamB), ShouldBeBetweenOrEqual, -1, 1)
			})
		})

		Convey("When members are presented", func() {
			out := b.Split(eightRanked())

			Convey("Then each team is sorted by attack+defense descending", func() {
				a := out.TeamA
				for i := 1; i < len(a); i++ {
					So(a[i-1].Attack+a[i-1].Defense, ShouldBeGreaterThanOrEqualTo, a[i].Attack+a[i].Defense)
				}
			})
		})
	})

	Convey("Given configured attack/defense weights", t, func() {
		b := balance.New(balance.WithWeights(2, 1))

		Convey("When an attacker and a defender have mirrored ratings", func() {
			players := []balance.PlayerInput{
				{PlayerID: "att", Attack: 8, Defense: 2},
				{PlayerID: "def", Attack: 2, Defense: 8},
			}
			out := b.Split(players)

			Convey("Then the attack-weighted player ranks first", func() {
				So(teamIDs(out.TeamA), ShouldResemble, []string{"att"})
			})
		})
	})
}
