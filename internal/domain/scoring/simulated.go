package scoring

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/draftnexus/internal/domain/features"
)

// Default simulated runtime constants.
const (
	defaultMinLatency = 5 * time.Millisecond
	defaultMaxLatency = 20 * time.Millisecond
	defaultRandomSeed = 42

	// Logistic weights. stats[0] holds the candidate's primary lane.
	openRoleBonus     = 0.8
	filledRolePenalty = 0.6
	powerWeight       = 0.05
	difficultyPenalty = 0.02
)

// SimulatedOption applies a configuration option to the SimulatedRuntime.
type SimulatedOption func(*SimulatedRuntime)

// WithLatencyRange sets the simulated latency range. A zero range disables
// the delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) SimulatedOption {
	return func(s *SimulatedRuntime) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithSeed sets the latency jitter seed.
func WithSeed(seed int64) SimulatedOption {
	return func(s *SimulatedRuntime) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // jitter only
	}
}

// SimulatedRuntime is a deterministic stand-in for the trained model. It
// favours candidates whose lane is still open on the allied team and leans on
// the power-curve stats, sleeping for a jittered latency like a real model call.
type SimulatedRuntime struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewSimulatedRuntime creates a simulated runtime with configuration options.
func NewSimulatedRuntime(opts ...SimulatedOption) *SimulatedRuntime {
	s := &SimulatedRuntime{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SimulatedFactory returns a Factory producing a SimulatedRuntime.
func SimulatedFactory(opts ...SimulatedOption) Factory {
	return func(context.Context) (Runtime, error) {
		return NewSimulatedRuntime(opts...), nil
	}
}

// Run scores every row of batch, honoring ctx during the simulated delay.
func (s *SimulatedRuntime) Run(ctx context.Context, batch features.Batch) (Output, error) {
	if latency := s.latency(); latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Output{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	out := Output{
		Data:  make([]float32, batch.Rows*OutputWidth),
		Shape: []int64{int64(batch.Rows), OutputWidth},
	}
	for i := 0; i < batch.Rows; i++ {
		p := winProbability(batch.Row(i))
		out.Data[i*OutputWidth] = 1 - p
		out.Data[i*OutputWidth+positiveClass] = p
	}
	return out, nil
}

// Close is a no-op.
func (s *SimulatedRuntime) Close() error { return nil }

func (s *SimulatedRuntime) latency() time.Duration {
	span := s.maxLatency - s.minLatency
	if span <= 0 {
		return s.minLatency
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minLatency + time.Duration(s.rng.Int63n(int64(span)))
}

func winProbability(row []float32) float32 {
	roles := row[features.RoleOffset:features.StatsOffset]
	stats := row[features.StatsOffset:]

	z := 0.0
	if lane := int(stats[0]); lane >= 1 && lane <= features.RoleCount {
		if filled := float64(roles[lane-1]); filled == 0 {
			z += openRoleBonus
		} else {
			z -= filledRolePenalty * filled
		}
	}
	// early, mid and late power
	z += powerWeight * float64(stats[7]+stats[8]+stats[9])
	z -= difficultyPenalty * float64(stats[5])

	return float32(1 / (1 + math.Exp(-z)))
}
