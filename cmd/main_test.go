package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/draftnexus/internal/adapters/http/api"
	"github.com/okian/draftnexus/internal/adapters/repository"
	app "github.com/okian/draftnexus/internal/app"
	"github.com/okian/draftnexus/internal/config"
	"github.com/okian/draftnexus/internal/domain/draft"
	"github.com/okian/draftnexus/pkg/logger"
)

const testRoster = `[
	{"id": 1, "name": "Alpha", "primaryLane": 2, "secondaryLane": 0, "inRealLogs": true, "stats": [2, 0, 1, 0.5, 0.5, 1, 0.2, 0.6, 0.6, 0.4]},
	{"id": 2, "name": "Beta", "primaryLane": 4, "secondaryLane": 0, "inRealLogs": true, "stats": [4, 1, 0, 0.3, 0.7, 2, 0.4, 0.7, 0.5, 0.3]},
	{"id": 3, "name": "Gamma", "primaryLane": 5, "secondaryLane": 0, "inRealLogs": true, "stats": [5, 1, 0, 0.2, 0.3, 1, 0.9, 0.3, 0.6, 0.9]}
]`

func writeTestRoster(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heroes.json")
	if err := os.WriteFile(path, []byte(testRoster), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

func TestMainFunction(t *testing.T) {
	_ = logger.Init(logger.WithWriter(os.Stderr))

	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			t.Setenv("DRAFTNEXUS_ADDR", ":8080")
			t.Setenv("DRAFTNEXUS_TOP_K", "3")
			t.Setenv("DRAFTNEXUS_SCORING_RUNTIME", "simulated")

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.TopK, convey.ShouldEqual, 3)
			convey.So(cfg.ScoringRuntime, convey.ShouldEqual, config.RuntimeSimulated)
		})

		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("DRAFTNEXUS_ADDR", "")

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When building the roster source", func() {
			cfg := config.New()
			cfg.RosterPath = "data/heroes.json"

			src, closeSource, err := buildRosterSource(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(closeSource, convey.ShouldNotBeNil)
			convey.So(closeSource(), convey.ShouldBeNil)

			fileSource, ok := src.(*repository.FileSource)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(fileSource.Name(), convey.ShouldEqual, "file:data/heroes.json")
		})

		convey.Convey("When building the scoring factory", func() {
			cfg := config.New()

			convey.So(buildScoringFactory(cfg), convey.ShouldNotBeNil)

			cfg.ScoringRuntime = config.RuntimeSimulated
			factory := buildScoringFactory(cfg)
			rt, err := factory(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(rt.Close(), convey.ShouldBeNil)
		})

		convey.Convey("When creating the HTTP server", func() {
			srv := newHTTPServer(":0", http.NotFoundHandler())
			convey.So(srv.Addr, convey.ShouldEqual, ":0")
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
			convey.So(srv.IdleTimeout, convey.ShouldEqual, idleTimeout)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("The system metrics updater should stop with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("A system metrics update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	_ = logger.Init(logger.WithWriter(os.Stderr))

	convey.Convey("Given a service wired the way main wires it", t, func() {
		cfg := config.New()
		cfg.RosterPath = writeTestRoster(t)
		cfg.ScoringRuntime = config.RuntimeSimulated
		cfg.ScoringLatencyMinMS = 0
		cfg.ScoringLatencyMaxMS = 1

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		source, closeSource, err := buildRosterSource(cfg)
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = closeSource() }()

		svc := app.New(
			app.WithRosterSource(source),
			app.WithScoringFactory(buildScoringFactory(cfg)),
			app.WithTopK(cfg.TopK),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		router := api.NewServer(svc, svc,
			api.WithCORSOrigins(cfg.Origins()),
			api.WithRecommendationLimits(cfg.TopK, cfg.MaxRecommendationLimit),
		).Routes(ctx)

		convey.Convey("The catalog should be served", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/heroes", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"count":3`)
		})

		convey.Convey("An ally pick should eventually produce recommendations", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("PUT", "/api/v1/draft/allies/0", strings.NewReader(`{"hero_id": 1}`))
			router.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var snap draft.Snapshot
			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				snap, err = svc.Snapshot(ctx)
				if err == nil && snap.Message == app.MessageRanked {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			convey.So(snap.Message, convey.ShouldEqual, app.MessageRanked)
			convey.So(len(snap.Recommendations), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("Stats should report a started service", func() {
			stats := svc.GetStats()
			convey.So(stats["started"], convey.ShouldEqual, true)
			convey.So(stats["heroes"], convey.ShouldEqual, 3)
		})
	})
}
