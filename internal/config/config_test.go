package config_test

import (
	"testing"

	"github.com/matchday/engine/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.AssignmentCacheTTLMinutes, convey.ShouldEqual, 60)
			convey.So(cfg.PairMinGames, convey.ShouldEqual, 10)
			convey.So(cfg.RivalryMinGames, convey.ShouldEqual, 5)
			convey.So(cfg.TrioMinGames, convey.ShouldEqual, 3)
			convey.So(cfg.ConfidenceK, convey.ShouldEqual, 10)
			convey.So(cfg.OfferWindowHours, convey.ShouldEqual, 48.0)
			convey.So(cfg.AttackWeight, convey.ShouldEqual, 1.0)
			convey.So(cfg.DefenseWeight, convey.ShouldEqual, 1.0)
			convey.So(cfg.TokenCap, convey.ShouldEqual, 4)
			convey.So(cfg.TokenIssueInterval, convey.ShouldEqual, 10)
		})
	})
}
