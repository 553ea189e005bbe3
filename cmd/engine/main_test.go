package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/matchday/engine/internal/adapters/http/api"
	"github.com/matchday/engine/internal/adapters/http/swagger"
	service "github.com/matchday/engine/internal/app"
	"github.com/matchday/engine/internal/config"
	"github.com/matchday/engine/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("MATCHDAY_ADDR", ":8080")
			_ = os.Setenv("MATCHDAY_TOKEN_CAP", "6")
			_ = os.Setenv("MATCHDAY_OFFER_WINDOW_HOURS", "24")
			defer func() {
				_ = os.Unsetenv("MATCHDAY_ADDR")
				_ = os.Unsetenv("MATCHDAY_TOKEN_CAP")
				_ = os.Unsetenv("MATCHDAY_OFFER_WINDOW_HOURS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load()
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TokenCap, convey.ShouldEqual, 6)
				convey.So(cfg.OfferWindowHours, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := service.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := service.New(
					service.WithAssignmentTTL(30*time.Minute),
					service.WithOfferWindowHours(24),
					service.WithTokenPolicy(6, 5),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP route registration", func() {
			svc := service.New()
			ctx := context.Background()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			swagger.Register(ctx, mux)
			api.NewServer(svc, svc).Register(ctx, mux)

			convey.Convey("Then the mux should resolve business routes", func() {
				req, err := http.NewRequest(http.MethodGet, "/stats", http.NoBody)
				convey.So(err, convey.ShouldBeNil)
				h, pattern := mux.Handler(req)
				convey.So(h, convey.ShouldNotBeNil)
				convey.So(pattern, convey.ShouldEqual, "GET /stats")
			})

			convey.Convey("And the mux should resolve the documentation routes", func() {
				req, err := http.NewRequest(http.MethodGet, "/api-docs", http.NoBody)
				convey.So(err, convey.ShouldBeNil)
				_, pattern := mux.Handler(req)
				convey.So(pattern, convey.ShouldEqual, "GET /api-docs")
			})
		})
	})
}

func TestSystemMetricsUpdater(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("When collecting a snapshot", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
