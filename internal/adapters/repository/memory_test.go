package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matchday/engine/internal/adapters/repository"
	"github.com/matchday/engine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlayerCAS(t *testing.T) {
	ctx := context.Background()

	Convey("Given a stored player", t, func() {
		s := repository.NewMemoryStore()
		So(s.PutPlayer(ctx, model.Player{ID: "p1", ShieldTokens: 2}), ShouldBeNil)

		Convey("When swapping against the current version", func() {
			p, _ := s.Player(ctx, "p1")
			p.ShieldTokens = 1
			err := s.CompareAndSwapPlayer(ctx, p)

			Convey("Then the write lands and the version bumps", func() {
				So(err, ShouldBeNil)
				got, _ := s.Player(ctx, "p1")
				So(got.ShieldTokens, ShouldEqual, 1)
				So(got.Version, ShouldEqual, p.Version+1)
			})
		})

		Convey("When swapping against a stale version", func() {
			p, _ := s.Player(ctx, "p1")
			fresh := p
			fresh.ShieldTokens = 3
			So(s.CompareAndSwapPlayer(ctx, fresh), ShouldBeNil)

			stale := p
			stale.ShieldTokens = 0
			err := s.CompareAndSwapPlayer(ctx, stale)

			Convey("Then the conflict is reported and state unchanged", func() {
				So(err, ShouldWrap, repository.ErrVersionConflict)
				got, _ := s.Player(ctx, "p1")
				So(got.ShieldTokens, ShouldEqual, 3)
			})
		})

		Convey("When many writers race on the same player", func() {
			var wg sync.WaitGroup
			wins := 0
			var mu sync.Mutex
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					p, _ := s.Player(ctx, "p1")
					p.GamesPlayed++
					if err := s.CompareAndSwapPlayer(ctx, p); err == nil {
						mu.Lock()
						wins++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then no two writers observe the same pre-state successfully", func() {
				got, _ := s.Player(ctx, "p1")
				So(got.GamesPlayed, ShouldEqual, wins)
			})
		})
	})
}

func TestRatingsAndDerived(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store", t, func() {
		s := repository.NewMemoryStore()

		Convey("When a rater re-submits", func() {
			atk := 5.0
			So(s.PutRating(ctx, model.Rating{RaterID: "a", RatedID: "p1", Attack: &atk}), ShouldBeNil)
			atk2 := 8.0
			So(s.PutRating(ctx, model.Rating{RaterID: "a", RatedID: "p1", Attack: &atk2}), ShouldBeNil)

			Convey("Then the (rater, rated) row is overwritten, not duplicated", func() {
				rs, err := s.RatingsFor(ctx, "p1")
				So(err, ShouldBeNil)
				So(rs, ShouldHaveLength, 1)
				So(*rs[0].Attack, ShouldEqual, 8.0)
			})
		})

		Convey("When deleting an absent rating", func() {
			err := s.DeleteRating(ctx, "a", "p1")

			Convey("Then not-found is reported", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})

		Convey("When upserting derived attributes", func() {
			So(s.PutDerived(ctx, model.DerivedAttributes{PlayerID: "p1", Attack: 6}), ShouldBeNil)
			So(s.PutDerived(ctx, model.DerivedAttributes{PlayerID: "p1", Attack: 7}), ShouldBeNil)

			Convey("Then one row per player remains", func() {
				d, err := s.DerivedFor(ctx, "p1")
				So(err, ShouldBeNil)
				So(d.Attack, ShouldEqual, 7.0)
			})
		})
	})
}

func TestGamesOrderingAndOffers(t *testing.T) {
	ctx := context.Background()

	Convey("Given completed and pending games", t, func() {
		s := repository.NewMemoryStore()
		t0 := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
		So(s.PutGame(ctx, model.Game{ID: "old", KickoffAt: t0, Completed: true}), ShouldBeNil)
		So(s.PutGame(ctx, model.Game{ID: "new", KickoffAt: t0.AddDate(0, 0, 7), Completed: true}), ShouldBeNil)
		So(s.PutGame(ctx, model.Game{ID: "future", KickoffAt: t0.AddDate(0, 0, 14)}), ShouldBeNil)
		So(s.PutGame(ctx, model.Game{ID: "void", KickoffAt: t0, Completed: true, Canceled: true}), ShouldBeNil)

		Convey("When listing completed games", func() {
			games, err := s.CompletedGames(ctx)

			Convey("Then only completed, non-canceled games come back, newest first", func() {
				So(err, ShouldBeNil)
				So(games, ShouldHaveLength, 2)
				So(games[0].ID, ShouldEqual, "new")
				So(games[1].ID, ShouldEqual, "old")
			})
		})
	})

	Convey("Given slot offers", t, func() {
		s := repository.NewMemoryStore()
		offer := model.SlotOffer{ID: "o1", GameID: "g1", PlayerID: "p1", Status: model.OfferPending}

		Convey("When creating the same (game, player) offer twice", func() {
			first, created1, err1 := s.CreateOffer(ctx, offer)
			second, created2, err2 := s.CreateOffer(ctx, model.SlotOffer{ID: "o2", GameID: "g1", PlayerID: "p1", Status: model.OfferPending})

			Convey("Then the second call returns the existing pending offer", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(created1, ShouldBeTrue)
				So(created2, ShouldBeFalse)
				So(second.ID, ShouldEqual, first.ID)
			})
		})

		Convey("When the prior offer was voided", func() {
			_, _, _ = s.CreateOffer(ctx, offer)
			voided := offer
			voided.Status = model.OfferVoided
			So(s.PutOffer(ctx, voided), ShouldBeNil)
			_, created, err := s.CreateOffer(ctx, model.SlotOffer{ID: "o3", GameID: "g1", PlayerID: "p1", Status: model.OfferPending})

			Convey("Then a new pending offer may be created", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
			})
		})
	})
}
