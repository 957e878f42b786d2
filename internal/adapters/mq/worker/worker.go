// Package worker runs the inference pipeline for the latest draft snapshot
// and hands the result back to the draft store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/draftnexus/internal/adapters/mq/queue"
	"github.com/okian/draftnexus/internal/domain/draft"
	"github.com/okian/draftnexus/pkg/logger"
	"github.com/okian/draftnexus/pkg/metrics"
)

// Source is where the worker takes inference requests from.
type Source interface {
	Take(ctx context.Context) (draft.Snapshot, error)
}

// Pipeline computes the result for a snapshot. ok is false when the run was
// superseded and its result must not be published.
type Pipeline interface {
	Run(ctx context.Context, snap draft.Snapshot) (res draft.Result, ok bool)
}

// Publisher applies results. It reports whether the result was still current.
type Publisher interface {
	Publish(ctx context.Context, res draft.Result) (bool, error)
}

// Worker processes inference requests one at a time.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker. A run in progress is allowed to finish.
	Shutdown(ctx context.Context) error
}

// InferenceWorker implements Worker on top of a single-slot mailbox.
type InferenceWorker struct {
	source    Source
	pipeline  Pipeline
	publisher Publisher
	name      string

	runTimeout time.Duration

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInferenceWorker creates a worker with configuration options.
func NewInferenceWorker(source Source, pipeline Pipeline, publisher Publisher, opts ...Option) *InferenceWorker {
	w := &InferenceWorker{
		source:    source,
		pipeline:  pipeline,
		publisher: publisher,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InferenceWorker) Run(ctx context.Context) {
	defer close(w.done)

	// Take only watches ctx, so shutdown is folded into it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		snap, err := w.source.Take(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) && ctx.Err() == nil {
				w.logger.Error(ctx, "take failed", logger.Error(err))
			}
			return
		}

		if err := w.process(ctx, snap); err != nil {
			w.logger.Error(ctx, "error processing request", logger.Error(err))
		}
	}
}

// Shutdown stops the worker and waits for it to exit.
func (w *InferenceWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InferenceWorker) Done() <-chan struct{} { return w.done }

func (w *InferenceWorker) process(ctx context.Context, snap draft.Snapshot) error { //nolint:gocritic // hugeParam: snapshots are values
	start := time.Now()
	defer func() {
		metrics.RecordInferenceLatency(float64(time.Since(start).Milliseconds()))
	}()

	runCtx := ctx
	if w.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.runTimeout)
		defer cancel()
	}

	res, ok := w.pipeline.Run(runCtx, snap)
	if !ok {
		metrics.RecordStaleResult()
		metrics.RecordInferenceRun(metrics.OutcomeStale)
		return nil
	}

	applied, err := w.publisher.Publish(ctx, res)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "publish_error")
		return fmt.Errorf("publish generation %d: %w", res.Generation, err)
	}
	if !applied {
		metrics.RecordStaleResult()
		metrics.RecordInferenceRun(metrics.OutcomeStale)
		w.logger.Debug(ctx, "result superseded", logger.Uint64("generation", res.Generation))
		return nil
	}

	metrics.RecordInferenceRun(outcomeLabel(res.Outcome))
	return nil
}

func outcomeLabel(o draft.Outcome) string {
	switch o {
	case draft.OutcomeRanked:
		return metrics.OutcomePublished
	case draft.OutcomeEmpty:
		return metrics.OutcomeEmpty
	case draft.OutcomeUnavailable:
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeFailed
	}
}
