package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/draftnexus/internal/domain/draft"
	"github.com/okian/draftnexus/internal/domain/features"
	"github.com/okian/draftnexus/internal/domain/ranking"
	"github.com/okian/draftnexus/internal/domain/scoring"
	"github.com/okian/draftnexus/pkg/logger"
	"github.com/okian/draftnexus/pkg/metrics"
)

// Diagnostic messages attached to results.
const (
	MessageRanked       = "Inference done"
	MessageNoCandidates = "no eligible candidates"
	messageUnavailable  = "Inference skipped: %v"
	messageFailed       = "Inference error: %v"
)

// State is the coordinator's pipeline stage.
type State int32

// Coordinator states. Published and Failed are terminal and fall back to Idle.
const (
	StateIdle State = iota
	StateEncoding
	StateScoring
	StateRanking
	StatePublished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEncoding:
		return "encoding"
	case StateScoring:
		return "scoring"
	case StateRanking:
		return "ranking"
	case StatePublished:
		return "published"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Scorer scores a feature batch, one probability per row.
type Scorer interface {
	Score(ctx context.Context, batch features.Batch) ([]float32, error)
}

// CoordinatorOption applies a configuration option to the Coordinator.
type CoordinatorOption func(*Coordinator)

// WithTopK sets the per-role recommendation cap.
func WithTopK(k int) CoordinatorOption {
	return func(c *Coordinator) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithCoordinatorLogger sets the coordinator logger.
func WithCoordinatorLogger(l logger.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// Coordinator runs encode, score and rank for one snapshot at a time and
// turns every outcome into a draft.Result.
type Coordinator struct {
	scorer   Scorer
	isLatest func(gen uint64) bool
	topK     int
	state    atomic.Int32
	logger   logger.Logger
}

// NewCoordinator creates a coordinator. isLatest reports whether a
// generation is still current; a nil func treats every generation as current.
func NewCoordinator(scorer Scorer, isLatest func(gen uint64) bool, opts ...CoordinatorOption) *Coordinator {
	if isLatest == nil {
		isLatest = func(uint64) bool { return true }
	}
	c := &Coordinator{
		scorer:   scorer,
		isLatest: isLatest,
		topK:     ranking.DefaultTopK,
		logger:   logger.Named("coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current stage.
func (c *Coordinator) State() State { return State(c.state.Load()) }

// Run computes the result for snap. ok is false when a newer generation was
// issued while the run was in flight; the result must then be discarded.
func (c *Coordinator) Run(ctx context.Context, snap draft.Snapshot) (draft.Result, bool) { //nolint:gocritic // hugeParam: snapshots are values
	gen := snap.Generation
	defer c.enter(StateIdle)

	res := c.pipeline(ctx, snap)
	res.Generation = gen

	if !c.isLatest(gen) {
		c.logger.Debug(ctx, "discarding superseded run",
			logger.Uint64("generation", gen),
			logger.String("outcome", outcomeName(res.Outcome)))
		return res, false
	}
	return res, true
}

func (c *Coordinator) pipeline(ctx context.Context, snap draft.Snapshot) draft.Result { //nolint:gocritic // hugeParam: snapshots are values
	c.enter(StateEncoding)
	candidates := draft.Candidates(snap)
	metrics.UpdateCandidates(len(candidates))

	encodeStart := time.Now()
	batch, err := features.BuildBatch(snap.AllySlots(), snap.EnemySlots(), candidates)
	metrics.RecordEncodingLatency(float64(time.Since(encodeStart).Milliseconds()))
	if errors.Is(err, features.ErrEmptyBatch) {
		c.enter(StatePublished)
		return draft.Result{Outcome: draft.OutcomeEmpty, Message: MessageNoCandidates}
	}
	if err != nil {
		return c.fail(ctx, "encode", draft.OutcomeFailed, fmt.Sprintf(messageFailed, err), err)
	}
	metrics.RecordBatchSize(batch.Rows)

	c.enter(StateScoring)
	scoreStart := time.Now()
	scores, err := c.scorer.Score(ctx, batch)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))
	if errors.Is(err, scoring.ErrScoringUnavailable) {
		metrics.RecordScoringError("unavailable")
		return c.fail(ctx, "score", draft.OutcomeUnavailable, fmt.Sprintf(messageUnavailable, err), err)
	}
	if err != nil {
		metrics.RecordScoringError("runtime")
		return c.fail(ctx, "score", draft.OutcomeFailed, fmt.Sprintf(messageFailed, err), err)
	}

	c.enter(StateRanking)
	groups, err := ranking.Rank(candidates, scores, c.topK)
	if err != nil {
		return c.fail(ctx, "rank", draft.OutcomeFailed, fmt.Sprintf(messageFailed, err), err)
	}

	c.enter(StatePublished)
	return draft.Result{
		Outcome:         draft.OutcomeRanked,
		Recommendations: draft.Recommendations(groups),
		Message:         MessageRanked,
	}
}

func (c *Coordinator) fail(ctx context.Context, stage string, outcome draft.Outcome, message string, err error) draft.Result {
	c.enter(StateFailed)
	metrics.RecordErrorByComponent("coordinator", stage+"_error")
	c.logger.Warn(ctx, "inference run failed",
		logger.String("stage", stage),
		logger.String("outcome", outcomeName(outcome)),
		logger.Error(err))
	return draft.Result{Outcome: outcome, Message: message}
}

func (c *Coordinator) enter(s State) {
	c.state.Store(int32(s))
	metrics.UpdateCoordinatorState(int(s))
}

func outcomeName(o draft.Outcome) string {
	switch o {
	case draft.OutcomeRanked:
		return "ranked"
	case draft.OutcomeEmpty:
		return "empty"
	case draft.OutcomeFailed:
		return "failed"
	case draft.OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}
