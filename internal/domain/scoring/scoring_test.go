package scoring_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/draftnexus/internal/domain/features"
	"github.com/okian/draftnexus/internal/domain/hero"
	"github.com/okian/draftnexus/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeRuntime returns a fixed output and counts calls.
type fakeRuntime struct {
	out    scoring.Output
	err    error
	calls  atomic.Int32
	closes atomic.Int32
}

func (f *fakeRuntime) Run(context.Context, features.Batch) (scoring.Output, error) {
	f.calls.Add(1)
	return f.out, f.err
}

func (f *fakeRuntime) Close() error {
	f.closes.Add(1)
	return nil
}

func factoryFor(rt scoring.Runtime) scoring.Factory {
	return func(context.Context) (scoring.Runtime, error) { return rt, nil }
}

func batchOf(t *testing.T, n int) features.Batch {
	t.Helper()
	cands := make([]hero.Hero, n)
	for i := range cands {
		cands[i] = hero.Hero{ID: i + 1}
	}
	b, err := features.BuildBatch(nil, nil, cands)
	if err != nil {
		t.Fatalf("build batch: %v", err)
	}
	return b
}

func TestClient_Score(t *testing.T) {
	Convey("Given a client without a runtime", t, func() {
		c := scoring.NewClient()

		Convey("Then scoring is unavailable", func() {
			_, err := c.Score(context.Background(), batchOf(t, 1))
			So(errors.Is(err, scoring.ErrScoringUnavailable), ShouldBeTrue)
			So(c.Ready(), ShouldBeFalse)
		})
	})

	Convey("Given a client with a two-row runtime", t, func() {
		ctx := context.Background()
		rt := &fakeRuntime{out: scoring.Output{
			Data:  []float32{0.1, 0.9, 0.4, 0.6},
			Shape: []int64{2, 2},
		}}
		c := scoring.NewClient(scoring.WithSerializedCalls(true))
		So(c.Open(ctx, factoryFor(rt)), ShouldBeNil)

		Convey("When scoring a matching batch", func() {
			scores, err := c.Score(ctx, batchOf(t, 2))

			Convey("Then column 1 of each row is returned in order", func() {
				So(err, ShouldBeNil)
				So(scores, ShouldResemble, []float32{0.9, 0.6})
			})
		})

		Convey("When the output row count does not match the batch", func() {
			_, err := c.Score(ctx, batchOf(t, 3))

			Convey("Then a runtime error is returned", func() {
				So(errors.Is(err, scoring.ErrScoringRuntime), ShouldBeTrue)
			})
		})

		Convey("When the batch is malformed", func() {
			b := batchOf(t, 2)
			b.Data = b.Data[:10]
			_, err := c.Score(ctx, b)

			Convey("Then the runtime is not called", func() {
				So(errors.Is(err, scoring.ErrScoringRuntime), ShouldBeTrue)
				So(rt.calls.Load(), ShouldEqual, int32(0))
			})
		})

		Convey("When the batch is empty", func() {
			_, err := c.Score(ctx, features.Batch{})

			Convey("Then a runtime error is returned", func() {
				So(errors.Is(err, scoring.ErrScoringRuntime), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := c.Score(cctx, batchOf(t, 2))

			Convey("Then a runtime error wrapping the cancellation is returned", func() {
				So(errors.Is(err, scoring.ErrScoringRuntime), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When the runtime fails", func() {
			rt.err = errors.New("session exploded")
			_, err := c.Score(ctx, batchOf(t, 2))

			Convey("Then the failure is a runtime error", func() {
				So(errors.Is(err, scoring.ErrScoringRuntime), ShouldBeTrue)
			})
		})

		Convey("When opening again", func() {
			err := c.Open(ctx, factoryFor(rt))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, scoring.ErrAlreadyOpen), ShouldBeTrue)
			})
		})

		Convey("When closing twice", func() {
			So(c.Close(), ShouldBeNil)
			So(c.Close(), ShouldBeNil)

			Convey("Then the runtime is released exactly once", func() {
				So(rt.closes.Load(), ShouldEqual, int32(1))
				_, err := c.Score(ctx, batchOf(t, 2))
				So(errors.Is(err, scoring.ErrScoringUnavailable), ShouldBeTrue)
			})
		})
	})

	Convey("Given a factory that fails", t, func() {
		c := scoring.NewClient()
		err := c.Open(context.Background(), func(context.Context) (scoring.Runtime, error) {
			return nil, errors.New("model missing")
		})

		Convey("Then the client reports unavailable", func() {
			So(errors.Is(err, scoring.ErrScoringUnavailable), ShouldBeTrue)
			So(c.Ready(), ShouldBeFalse)
		})
	})
}

func TestSimulatedRuntime(t *testing.T) {
	Convey("Given a simulated runtime without latency", t, func() {
		ctx := context.Background()
		c := scoring.NewClient()
		So(c.Open(ctx, scoring.SimulatedFactory(scoring.WithLatencyRange(0, 0))), ShouldBeNil)
		defer func() { _ = c.Close() }()

		jungle := hero.Hero{ID: 10, PrimaryLane: hero.LaneJungle}
		jungle.Stats[0] = float32(hero.LaneJungle)

		Convey("When the jungle role is open versus filled", func() {
			allyJungler := &hero.Hero{ID: 11, PrimaryLane: hero.LaneJungle}

			open, err := features.BuildBatch(nil, nil, []hero.Hero{jungle})
			So(err, ShouldBeNil)
			filled, err := features.BuildBatch([]*hero.Hero{allyJungler}, nil, []hero.Hero{jungle})
			So(err, ShouldBeNil)

			openScore, err := c.Score(ctx, open)
			So(err, ShouldBeNil)
			filledScore, err := c.Score(ctx, filled)
			So(err, ShouldBeNil)

			Convey("Then the open role scores higher and both are probabilities", func() {
				So(openScore[0], ShouldBeGreaterThan, filledScore[0])
				So(openScore[0], ShouldBeBetween, 0, 1)
				So(filledScore[0], ShouldBeBetween, 0, 1)
			})

			Convey("Then scoring is deterministic", func() {
				again, err := c.Score(ctx, open)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, openScore)
			})
		})
	})

	Convey("Given a slow simulated runtime", t, func() {
		rt := scoring.NewSimulatedRuntime(scoring.WithLatencyRange(time.Second, 2*time.Second), scoring.WithSeed(7))
		b := batchOf(t, 1)

		Convey("When the context times out first", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			_, err := rt.Run(ctx, b)

			Convey("Then the run is cancelled", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}
