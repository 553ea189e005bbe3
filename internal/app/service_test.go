package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matchday/engine/internal/adapters/notify"
	"github.com/matchday/engine/internal/adapters/repository"
	service "github.com/matchday/engine/internal/app"
	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/internal/domain/streak"
	"github.com/matchday/engine/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func newStarted(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func f(v float64) *float64 { return &v }

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithAssignmentTTL(30*time.Minute),
			service.WithOfferWindowHours(24),
			service.WithChemistryThresholds(5, 3, 2, 8),
			service.WithBalanceWeights(1.5, 0.8),
			service.WithTokenPolicy(2, 5),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When starting the service", func() {
			err := svc.Start(context.Background())

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})
		})
	})
}

func TestService_Ratings(t *testing.T) {
	Convey("Given a started service with two players", t, func() {
		ctx := context.Background()
		svc := newStarted(t)
		So(svc.CreatePlayer(ctx, "alice", "Alice"), ShouldBeNil)
		So(svc.CreatePlayer(ctx, "bob", "Bob"), ShouldBeNil)

		Convey("When submitting a valid rating", func() {
			err := svc.SubmitRating(ctx, model.Rating{
				RaterID: "alice", RatedID: "bob",
				Attack: f(8), Defense: f(6), StyleID: "finisher",
			})

			Convey("Then the derived attributes should be recomputed", func() {
				So(err, ShouldBeNil)
				d, err := svc.PlayerAttributes(ctx, "bob")
				So(err, ShouldBeNil)
				So(d.Attack, ShouldEqual, 8)
				So(d.Defense, ShouldEqual, 6)
				So(d.TopStyle, ShouldEqual, "finisher")
				So(d.StyleSamples, ShouldEqual, 1)
			})
		})

		Convey("When submitting a self-rating", func() {
			err := svc.SubmitRating(ctx, model.Rating{RaterID: "bob", RatedID: "bob", Attack: f(10)})

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When submitting an out-of-range metric", func() {
			err := svc.SubmitRating(ctx, model.Rating{RaterID: "alice", RatedID: "bob", Attack: f(11)})

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When deleting the only rating", func() {
			So(svc.SubmitRating(ctx, model.Rating{RaterID: "alice", RatedID: "bob", Attack: f(8)}), ShouldBeNil)
			So(svc.DeleteRating(ctx, "alice", "bob"), ShouldBeNil)

			Convey("Then the aggregate should return to zero", func() {
				d, err := svc.PlayerAttributes(ctx, "bob")
				So(err, ShouldBeNil)
				So(d.Attack, ShouldEqual, 0)
			})
		})
	})
}

func TestService_DuplicateCreation(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newStarted(t)

		Convey("When creating the same player twice", func() {
			So(svc.CreatePlayer(ctx, "alice", "Alice"), ShouldBeNil)
			err := svc.CreatePlayer(ctx, "alice", "Alice Again")

			Convey("Then the second attempt should conflict", func() {
				So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When creating the same game twice", func() {
			So(svc.CreateGame(ctx, "g1", time.Now().Add(24*time.Hour)), ShouldBeNil)
			err := svc.CreateGame(ctx, "g1", time.Now())

			Convey("Then the second attempt should conflict", func() {
				So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When registering for an unknown game", func() {
			So(svc.CreatePlayer(ctx, "bob", "Bob"), ShouldBeNil)
			err := svc.Register(ctx, model.GameRegistration{GameID: "missing", PlayerID: "bob"})

			Convey("Then it should report not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_ShieldTokens(t *testing.T) {
	Convey("Given a started service with a player and a game", t, func() {
		ctx := context.Background()
		svc := newStarted(t)
		So(svc.CreatePlayer(ctx, "alice", "Alice"), ShouldBeNil)
		So(svc.CreateGame(ctx, "g1", time.Now().Add(48*time.Hour)), ShouldBeNil)

		Convey("When using a token without holding any", func() {
			_, err := svc.UseShieldToken(ctx, "alice", "g1", "alice")

			Convey("Then it should fail eligibility", func() {
				So(errors.Is(err, service.ErrEligibility), ShouldBeTrue)
			})
		})

		Convey("When an admin issues and the player spends a token", func() {
			So(svc.IssueShieldToken(ctx, "alice", "admin", "season opener grant"), ShouldBeNil)
			usage, err := svc.UseShieldToken(ctx, "alice", "g1", "alice")

			Convey("Then the protection should be active", func() {
				So(err, ShouldBeNil)
				So(usage.Active, ShouldBeTrue)
				So(usage.GameID, ShouldEqual, "g1")
				p, err := svc.Player(ctx, "alice")
				So(err, ShouldBeNil)
				So(p.ShieldActive, ShouldBeTrue)
				So(p.ShieldTokens, ShouldEqual, 0)
			})

			Convey("And a second use should fail while one is active", func() {
				So(err, ShouldBeNil)
				So(svc.IssueShieldToken(ctx, "alice", "admin", "extra"), ShouldBeNil)
				_, err := svc.UseShieldToken(ctx, "alice", "g1", "alice")
				So(errors.Is(err, service.ErrEligibility), ShouldBeTrue)
			})

			Convey("And the ledger should record both transitions", func() {
				So(err, ShouldBeNil)
				ledger, err := svc.TokenLedger(ctx, "alice")
				So(err, ShouldBeNil)
				So(len(ledger), ShouldEqual, 2)
				So(ledger[0].Action, ShouldEqual, model.TokenIssued)
				So(ledger[1].Action, ShouldEqual, model.TokenUsed)
			})

			Convey("And returning the token should restore it", func() {
				So(err, ShouldBeNil)
				So(svc.ReturnShieldToken(ctx, "alice", "admin", "registered after all"), ShouldBeNil)
				p, err := svc.Player(ctx, "alice")
				So(err, ShouldBeNil)
				So(p.ShieldActive, ShouldBeFalse)
				So(p.ShieldTokens, ShouldEqual, 1)
			})

			Convey("And removing protection should not refund", func() {
				So(err, ShouldBeNil)
				So(svc.RemoveShieldProtection(ctx, "alice", "admin", "abuse"), ShouldBeNil)
				p, err := svc.Player(ctx, "alice")
				So(err, ShouldBeNil)
				So(p.ShieldActive, ShouldBeFalse)
				So(p.ShieldTokens, ShouldEqual, 0)
			})
		})

		Convey("When issuing beyond the cap", func() {
			for i := 0; i < model.MaxShieldTokens; i++ {
				So(svc.IssueShieldToken(ctx, "alice", "admin", "grant"), ShouldBeNil)
			}
			err := svc.IssueShieldToken(ctx, "alice", "admin", "one too many")

			Convey("Then the extra grant should fail eligibility", func() {
				So(errors.Is(err, service.ErrEligibility), ShouldBeTrue)
			})
		})

		Convey("When removing more tokens than held", func() {
			err := svc.RemoveTokens(ctx, "alice", 3, "admin", "cleanup")

			Convey("Then it should fail eligibility", func() {
				So(errors.Is(err, service.ErrEligibility), ShouldBeTrue)
			})
		})

		Convey("When resetting token progress", func() {
			So(svc.ResetTokenProgress(ctx, "alice", "admin", "season rollover"), ShouldBeNil)

			Convey("Then the player progress should be zero", func() {
				p, err := svc.Player(ctx, "alice")
				So(err, ShouldBeNil)
				So(p.TokenProgress, ShouldEqual, 0)
			})
		})
	})
}

func TestService_Offers(t *testing.T) {
	Convey("Given a game with three ranked reserves", t, func() {
		ctx := context.Background()
		rec := notify.NewRecorder()
		svc2 := newStarted(t, service.WithDispatcher(rec))

		base := time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)
		So(svc2.CreateGame(ctx, "g1", base.Add(72*time.Hour)), ShouldBeNil)
		for i, id := range []string{"r1", "r2", "r3"} {
			So(svc2.CreatePlayer(ctx, id, id), ShouldBeNil)
			So(svc2.Register(ctx, model.GameRegistration{
				GameID:       "g1",
				PlayerID:     id,
				Status:       model.StatusReserve,
				RegisteredAt: base.Add(time.Duration(i) * time.Minute),
			}), ShouldBeNil)
		}

		Convey("When listing reserves", func() {
			rows, err := svc2.Reserves(ctx, "g1")

			Convey("Then all reserves should appear ranked", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)
				So(rows[0].Rank, ShouldEqual, 1)
				// Equal XP ties break by registration time.
				So(rows[0].PlayerID, ShouldEqual, "r1")
			})
		})

		Convey("When creating offers far before kickoff", func() {
			offers, err := svc2.CreateSlotOffers(ctx, "g1", 72)

			Convey("Then only the top reserve should be offered", func() {
				So(err, ShouldBeNil)
				So(len(offers), ShouldEqual, 1)
				So(offers[0].PlayerID, ShouldEqual, "r1")
				So(offers[0].Status, ShouldEqual, model.OfferPending)
			})

			Convey("And repeating the call should not duplicate offers", func() {
				So(err, ShouldBeNil)
				again, err := svc2.CreateSlotOffers(ctx, "g1", 72)
				So(err, ShouldBeNil)
				So(len(again), ShouldEqual, 1)
				So(again[0].ID, ShouldEqual, offers[0].ID)
			})
		})

		Convey("When the window is nearly closed", func() {
			rows, err := svc2.OfferCandidates(ctx, "g1", 1)

			Convey("Then nearly the whole list should be eligible", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)
			})
		})

		Convey("When a reserve accepts an offer", func() {
			_, err := svc2.CreateSlotOffers(ctx, "g1", 0)
			So(err, ShouldBeNil)
			So(svc2.AcceptSlotOffer(ctx, "g1", "r2"), ShouldBeNil)

			Convey("Then the acceptor should be selected and other offers voided", func() {
				reg, err := svc2.Reserves(ctx, "g1")
				So(err, ShouldBeNil)
				So(len(reg), ShouldEqual, 2) // r2 promoted out of the reserve list
				kinds := map[notify.Kind]int{}
				for _, m := range rec.Messages() {
					kinds[m.Kind]++
				}
				So(kinds[notify.KindOfferAccepted], ShouldEqual, 1)
				So(kinds[notify.KindOfferVoided], ShouldEqual, 2)
			})

			Convey("And accepting twice should conflict", func() {
				err := svc2.AcceptSlotOffer(ctx, "g1", "r2")
				So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			})

			Convey("And accepting without an offer should fail eligibility", func() {
				So(svc2.CreatePlayer(ctx, "r4", "r4"), ShouldBeNil)
				err := svc2.AcceptSlotOffer(ctx, "g1", "r4")
				So(errors.Is(err, service.ErrEligibility), ShouldBeTrue)
			})
		})
	})
}

func TestService_CompleteGame(t *testing.T) {
	Convey("Given a game with selected players", t, func() {
		ctx := context.Background()
		svc := newStarted(t)
		So(svc.CreateGame(ctx, "g1", time.Now().Add(time.Hour)), ShouldBeNil)
		for _, id := range []string{"a", "b"} {
			So(svc.CreatePlayer(ctx, id, id), ShouldBeNil)
			So(svc.Register(ctx, model.GameRegistration{
				GameID: "g1", PlayerID: id, Status: model.StatusSelected, Paid: true,
			}), ShouldBeNil)
		}

		Convey("When completing with a contradictory outcome", func() {
			err := svc.CompleteGame(ctx, "g1", []string{"a"}, []string{"b"}, 3, 1, model.OutcomeWinB)

			Convey("Then it should fail the consistency check", func() {
				So(errors.Is(err, service.ErrConsistency), ShouldBeTrue)
			})
		})

		Convey("When completing with matching scores", func() {
			err := svc.CompleteGame(ctx, "g1", []string{"a"}, []string{"b"}, 3, 1, model.OutcomeWinA)

			Convey("Then attendance counters should advance", func() {
				So(err, ShouldBeNil)
				p, err := svc.Player(ctx, "a")
				So(err, ShouldBeNil)
				So(p.GamesPlayed, ShouldEqual, 1)
				So(p.CurrentStreak, ShouldEqual, 1)
				So(p.TokenProgress, ShouldEqual, 1)
			})

			Convey("And completing again should conflict", func() {
				So(err, ShouldBeNil)
				err := svc.CompleteGame(ctx, "g1", nil, nil, 3, 1, model.OutcomeWinA)
				So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When a player drops out unpaid without protection", func() {
			So(svc.CreatePlayer(ctx, "c", "c"), ShouldBeNil)
			So(svc.Register(ctx, model.GameRegistration{
				GameID: "g1", PlayerID: "c", Status: model.StatusDroppedOut,
			}), ShouldBeNil)
			So(svc.CompleteGame(ctx, "g1", []string{"a"}, []string{"b"}, 2, 2, model.OutcomeDraw), ShouldBeNil)

			Convey("Then the dropout's streak should reset", func() {
				p, err := svc.Player(ctx, "c")
				So(err, ShouldBeNil)
				So(p.CurrentStreak, ShouldEqual, 0)
				So(p.RegistrationStreak, ShouldEqual, 0)
				So(p.GamesPlayed, ShouldEqual, 0)
			})
		})
	})
}

func TestService_TokenEarnedByAttendance(t *testing.T) {
	Convey("Given a short issue interval", t, func() {
		ctx := context.Background()
		svc := newStarted(t, service.WithTokenPolicy(4, 2))
		So(svc.CreatePlayer(ctx, "a", "a"), ShouldBeNil)

		Convey("When the player attends enough completed games", func() {
			for i, gid := range []string{"g1", "g2"} {
				So(svc.CreateGame(ctx, gid, time.Now().Add(time.Duration(i)*time.Hour)), ShouldBeNil)
				So(svc.Register(ctx, model.GameRegistration{
					GameID: gid, PlayerID: "a", Status: model.StatusSelected, Paid: true,
				}), ShouldBeNil)
				So(svc.CompleteGame(ctx, gid, []string{"a"}, nil, 1, 0, model.OutcomeWinA), ShouldBeNil)
			}

			Convey("Then a token should be granted and ledgered", func() {
				p, err := svc.Player(ctx, "a")
				So(err, ShouldBeNil)
				So(p.ShieldTokens, ShouldEqual, 1)
				So(p.TokenProgress, ShouldEqual, 0)
				ledger, err := svc.TokenLedger(ctx, "a")
				So(err, ShouldBeNil)
				So(len(ledger), ShouldEqual, 1)
				So(ledger[0].Action, ShouldEqual, model.TokenIssued)
			})
		})
	})
}

func TestService_CancelGame(t *testing.T) {
	Convey("Given a game with an active shield usage", t, func() {
		ctx := context.Background()
		svc := newStarted(t)
		So(svc.CreatePlayer(ctx, "a", "a"), ShouldBeNil)
		So(svc.CreateGame(ctx, "g1", time.Now().Add(24*time.Hour)), ShouldBeNil)
		So(svc.IssueShieldToken(ctx, "a", "admin", "grant"), ShouldBeNil)
		_, err := svc.UseShieldToken(ctx, "a", "g1", "a")
		So(err, ShouldBeNil)

		Convey("When the game is canceled", func() {
			So(svc.CancelGame(ctx, "g1"), ShouldBeNil)

			Convey("Then the token should be returned", func() {
				p, err := svc.Player(ctx, "a")
				So(err, ShouldBeNil)
				So(p.ShieldActive, ShouldBeFalse)
				So(p.ShieldTokens, ShouldEqual, 1)
			})

			Convey("And canceling again should conflict", func() {
				err := svc.CancelGame(ctx, "g1")
				So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			})

			Convey("And completing a canceled game should fail", func() {
				err := svc.CompleteGame(ctx, "g1", nil, nil, 0, 0, "")
				So(errors.Is(err, service.ErrEligibility), ShouldBeTrue)
			})
		})
	})
}

func TestService_PlayerXP(t *testing.T) {
	Convey("Given a player with one recent attended game", t, func() {
		ctx := context.Background()
		svc := newStarted(t)
		So(svc.CreatePlayer(ctx, "a", "a"), ShouldBeNil)
		So(svc.CreateGame(ctx, "g1", time.Now()), ShouldBeNil)
		So(svc.Register(ctx, model.GameRegistration{
			GameID: "g1", PlayerID: "a", Status: model.StatusSelected, Paid: true,
		}), ShouldBeNil)
		So(svc.CompleteGame(ctx, "g1", []string{"a"}, nil, 1, 0, model.OutcomeWinA), ShouldBeNil)

		Convey("When computing XP with the default formula", func() {
			xp, formula, err := svc.PlayerXP(ctx, "a", "")

			Convey("Then the step variant should apply", func() {
				So(err, ShouldBeNil)
				So(formula, ShouldEqual, streak.FormulaStep)
				// 20 base * (1 + 10% streak + 2.5% registration streak)
				So(xp, ShouldEqual, 23)
			})
		})

		Convey("When requesting an unknown formula", func() {
			_, _, err := svc.PlayerXP(ctx, "a", "quadratic")

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			})
		})
	})
}

func TestService_BalancedTeams(t *testing.T) {
	Convey("Given a game with four selected players", t, func() {
		ctx := context.Background()
		svc := newStarted(t)
		So(svc.CreateGame(ctx, "g1", time.Now().Add(time.Hour)), ShouldBeNil)
		So(svc.CreatePlayer(ctx, "rater", "Rater"), ShouldBeNil)
		ratings := map[string]float64{"p1": 9, "p2": 7, "p3": 5, "p4": 3}
		for id, atk := range ratings {
			So(svc.CreatePlayer(ctx, id, id), ShouldBeNil)
			So(svc.Register(ctx, model.GameRegistration{
				GameID: "g1", PlayerID: id, Status: model.StatusSelected, Paid: true,
			}), ShouldBeNil)
			So(svc.SubmitRating(ctx, model.Rating{
				RaterID: "rater", RatedID: id, Attack: f(atk), Defense: f(atk),
			}), ShouldBeNil)
		}

		Convey("When requesting balanced teams", func() {
			teams, err := svc.BalancedTeams(ctx, "g1")

			Convey("Then ranks one and four should share a team", func() {
				So(err, ShouldBeNil)
				So(len(teams.Teams["A"]), ShouldEqual, 2)
				So(len(teams.Teams["B"]), ShouldEqual, 2)
				ids := map[string]bool{}
				for _, m := range teams.Teams["A"] {
					ids[m.PlayerID] = true
				}
				So(ids["p1"], ShouldBeTrue)
				So(ids["p4"], ShouldBeTrue)
			})

			Convey("And a second request should serve the cached assignment", func() {
				So(err, ShouldBeNil)
				again, err := svc.BalancedTeams(ctx, "g1")
				So(err, ShouldBeNil)
				So(again.ComputedAt, ShouldEqual, teams.ComputedAt)
			})
		})

		Convey("When requesting teams for an unknown game", func() {
			_, err := svc.BalancedTeams(ctx, "missing")

			Convey("Then it should report not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Chemistry(t *testing.T) {
	Convey("Given a history of completed games", t, func() {
		ctx := context.Background()
		svc := newStarted(t, service.WithChemistryThresholds(2, 2, 2, 10))
		for _, id := range []string{"a", "b", "c", "d"} {
			So(svc.CreatePlayer(ctx, id, id), ShouldBeNil)
		}
		for i := 0; i < 3; i++ {
			gid := fmt.Sprintf("g%d", i)
			So(svc.CreateGame(ctx, gid, time.Now().Add(time.Duration(i)*time.Hour)), ShouldBeNil)
			So(svc.CompleteGame(ctx, gid, []string{"a", "b"}, []string{"c", "d"}, 2, 0, model.OutcomeWinA), ShouldBeNil)
		}

		Convey("When computing pair chemistry", func() {
			rows, err := svc.ChemistryPairs(ctx, []string{"a", "b", "c", "d"})

			Convey("Then the winning pair should score above the losing pair", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				var ab, cd float64
				for _, r := range rows {
					if r.PlayerA == "a" && r.PlayerB == "b" {
						ab = r.ChemistryScore
					}
					if r.PlayerA == "c" && r.PlayerB == "d" {
						cd = r.ChemistryScore
					}
				}
				So(ab, ShouldBeGreaterThan, cd)
			})
		})

		Convey("When computing rivalries", func() {
			rows, err := svc.ChemistryRivalries(ctx, []string{"a", "c"})

			Convey("Then the dominant side should be reflected", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 1)
				So(rows[0].RivalryScore, ShouldEqual, 100)
			})
		})
	})
}
