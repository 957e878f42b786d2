package draftsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/draftnexus/internal/adapters/http/api"
	"github.com/okian/draftnexus/internal/adapters/repository"
	app "github.com/okian/draftnexus/internal/app"
	"github.com/okian/draftnexus/internal/domain/scoring"
	"github.com/okian/draftnexus/pkg/logger"
)

func TestNewPlan(t *testing.T) {
	Convey("Given a pool of thirty heroes", t, func() {
		ids := make([]int, 30)
		for i := range ids {
			ids[i] = i + 1
		}
		r := rand.New(rand.NewPCG(7, 11))

		Convey("A full plan should follow the draft order with distinct heroes", func() {
			plan := NewPlan(r, ids, MaxActions)
			So(plan, ShouldHaveLength, MaxActions)

			seen := map[int]bool{}
			counts := map[string]int{}
			for _, a := range plan {
				So(seen[a.HeroID], ShouldBeFalse)
				seen[a.HeroID] = true
				counts[a.Group]++
			}
			So(counts[GroupBans], ShouldEqual, 10)
			So(counts[GroupAllies], ShouldEqual, 5)
			So(counts[GroupEnemies], ShouldEqual, 5)
			So(plan[0].Group, ShouldEqual, GroupBans)
			So(plan[6], ShouldResemble, Action{Group: GroupAllies, Slot: 0, HeroID: plan[6].HeroID})
		})

		Convey("The plan should not touch the caller's slice", func() {
			NewPlan(r, ids, MaxActions)
			So(ids[0], ShouldEqual, 1)
			So(ids[29], ShouldEqual, 30)
		})

		Convey("Requests beyond the draft order should be capped", func() {
			So(NewPlan(r, ids, 50), ShouldHaveLength, MaxActions)
		})

		Convey("A small pool should shorten the plan", func() {
			So(NewPlan(r, ids[:3], MaxActions), ShouldHaveLength, 3)
		})
	})
}

func TestVerifyDraft(t *testing.T) {
	alpha := Hero{ID: 1, Name: "Alpha"}
	beta := Hero{ID: 2, Name: "Beta"}
	gamma := Hero{ID: 3, Name: "Gamma"}

	Convey("Given a draft with Alpha picked", t, func() {
		d := &Draft{
			Allies: []*Hero{&alpha, nil, nil, nil, nil},
			Recommendations: map[string][]Recommendation{
				"Jungle": {{Hero: beta, Score: 0.8, Role: "Jungle"}},
				"Gold":   {{Hero: gamma, Score: 0.4, Role: "Gold"}},
			},
		}

		Convey("Well-formed recommendations should pass", func() {
			So(verifyDraft(d, 5), ShouldBeNil)
		})

		Convey("Recommending a taken hero should fail", func() {
			d.Recommendations["Mid"] = []Recommendation{{Hero: alpha, Score: 0.9, Role: "Mid"}}
			err := verifyDraft(d, 5)
			So(errors.Is(err, ErrViolation), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "taken hero 1")
		})

		Convey("Unsorted scores should fail", func() {
			d.Recommendations["Jungle"] = append(d.Recommendations["Jungle"], Recommendation{Hero: Hero{ID: 9}, Score: 0.95, Role: "Jungle"})
			So(verifyDraft(d, 5), ShouldNotBeNil)
		})

		Convey("Too many entries for a role should fail", func() {
			So(verifyDraft(d, 0), ShouldNotBeNil)
		})

		Convey("A misfiled role should fail", func() {
			d.Recommendations["Gold"][0].Role = "Roam"
			So(verifyDraft(d, 5), ShouldNotBeNil)
		})

		Convey("A hero listed twice should fail", func() {
			d.Recommendations["Gold"] = append(d.Recommendations["Gold"], Recommendation{Hero: beta, Score: 0.1, Role: "Gold"})
			So(verifyDraft(d, 5), ShouldNotBeNil)
		})

		Convey("A score outside [0,1] should fail", func() {
			d.Recommendations["Gold"][0].Score = 1.5
			So(verifyDraft(d, 5), ShouldNotBeNil)
		})
	})
}

func TestLatencySummary(t *testing.T) {
	Convey("Given recorded latencies", t, func() {
		Convey("An empty slice should summarize to zero", func() {
			p50, p95, maxLatency := latencySummary(nil)
			So(p50, ShouldEqual, time.Duration(0))
			So(p95, ShouldEqual, time.Duration(0))
			So(maxLatency, ShouldEqual, time.Duration(0))
		})

		Convey("Percentiles should come from the sorted values", func() {
			var ls []time.Duration
			for i := 20; i >= 1; i-- {
				ls = append(ls, time.Duration(i)*time.Millisecond)
			}
			p50, p95, maxLatency := latencySummary(ls)
			So(p50, ShouldEqual, 10*time.Millisecond)
			So(p95, ShouldEqual, 19*time.Millisecond)
			So(maxLatency, ShouldEqual, 20*time.Millisecond)
			So(ls[0], ShouldEqual, 20*time.Millisecond)
		})
	})
}

type rosterRecord struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	PrimaryLane   int       `json:"primaryLane"`
	SecondaryLane int       `json:"secondaryLane"`
	InRealLogs    bool      `json:"inRealLogs"`
	Stats         []float64 `json:"stats"`
}

func writeRoster(t *testing.T, n int) string {
	t.Helper()
	records := make([]rosterRecord, n)
	for i := range records {
		lane := i%5 + 1
		records[i] = rosterRecord{
			ID:            i + 1,
			Name:          fmt.Sprintf("Hero%02d", i+1),
			PrimaryLane:   lane,
			SecondaryLane: (lane % 5) + 1,
			InRealLogs:    true,
			Stats:         []float64{float64(lane), float64(i % 2), 1, 0.5, 0.5, 1, 0.3, 0.5, 0.5, 0.5},
		}
	}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal roster: %v", err)
	}
	path := filepath.Join(t.TempDir(), "heroes.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	_ = logger.Init(logger.WithWriter(os.Stderr))

	Convey("Given a running service with a simulated model", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := app.New(
			app.WithRosterSource(repository.NewFileSource(writeRoster(t, 24))),
			app.WithScoringFactory(scoring.SimulatedFactory(scoring.WithLatencyRange(0, time.Millisecond))),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(api.NewServer(svc, svc).Routes(ctx))
		defer srv.Close()

		Convey("Playing full drafts should settle every action without violations", func() {
			stats, err := Run(ctx, &Config{BaseURL: srv.URL, Drafts: 2, Seed: 42})
			So(err, ShouldBeNil)
			So(stats.DraftsPlayed, ShouldEqual, 2)
			So(stats.Actions, ShouldEqual, 2*MaxActions)
			So(stats.Settled, ShouldEqual, stats.Actions)
			So(stats.Ranked, ShouldEqual, stats.Settled)
			So(stats.Violations, ShouldEqual, 0)
			So(stats.Latencies, ShouldHaveLength, stats.Settled)
		})

		Convey("An unreachable service should fail the health check", func() {
			_, err := Run(ctx, &Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}
