// Package service wires the draft store, the inference worker and the
// scoring client into one owned resource that the HTTP API and the binary
// drive.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/draftnexus/internal/adapters/mq/queue"
	"github.com/okian/draftnexus/internal/adapters/mq/worker"
	"github.com/okian/draftnexus/internal/domain/draft"
	"github.com/okian/draftnexus/internal/domain/hero"
	"github.com/okian/draftnexus/internal/domain/ranking"
	"github.com/okian/draftnexus/internal/domain/scoring"
	"github.com/okian/draftnexus/pkg/logger"
	"github.com/okian/draftnexus/pkg/metrics"
)

const workerShutdownTimeout = 5 * time.Second

// Service owns every long-lived component of a draft session.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       *draft.Store
	mailbox     *queue.Mailbox[draft.Snapshot]
	scorer      *scoring.Client
	coordinator *Coordinator
	worker      *worker.InferenceWorker

	// Configuration
	source           hero.Source
	factory          scoring.Factory
	topK             int
	serialize        bool
	subscriberBuffer int
	sessionID        string
	inferenceTimeout time.Duration

	// State
	started bool
	stopped bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRosterSource sets where the hero catalog is loaded from.
func WithRosterSource(src hero.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithScoringFactory sets how the scoring runtime is acquired.
func WithScoringFactory(f scoring.Factory) Option {
	return func(s *Service) {
		s.factory = f
	}
}

// WithTopK sets the per-role recommendation cap.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithSerializedScoring serializes calls into the scoring runtime.
func WithSerializedScoring(enabled bool) Option {
	return func(s *Service) {
		s.serialize = enabled
	}
}

// WithSubscriberBuffer sets the default snapshot subscriber buffer.
func WithSubscriberBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.subscriberBuffer = n
		}
	}
}

// WithInferenceTimeout bounds each inference run. Zero leaves runs unbounded.
func WithInferenceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.inferenceTimeout = d
		}
	}
}

// WithSessionID fixes the draft session id.
func WithSessionID(id string) Option {
	return func(s *Service) {
		s.sessionID = id
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs the service. The draft store accepts calls right away; the
// catalog and the scoring runtime are acquired by Start.
func New(opts ...Option) *Service {
	s := &Service{
		topK:             ranking.DefaultTopK,
		serialize:        true,
		subscriberBuffer: 8,
		logger:           logger.Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mailbox = queue.NewMailbox(queue.WithDropHook(func(dropped draft.Snapshot) {
		s.logger.Debug(context.Background(), "superseded pending request",
			logger.Uint64("generation", dropped.Generation))
	}))
	s.store = draft.NewStore(
		draft.WithTrigger(s.requestInference),
		draft.WithSessionID(s.sessionID),
		draft.WithSubscriberBuffer(s.subscriberBuffer),
	)
	s.scorer = scoring.NewClient(scoring.WithSerializedCalls(s.serialize))
	s.coordinator = NewCoordinator(s.scorer, s.store.IsLatest, WithTopK(s.topK))
	s.worker = worker.NewInferenceWorker(s.mailbox, s.coordinator, s.store,
		worker.WithName("inference"),
		worker.WithRunTimeout(s.inferenceTimeout),
	)
	return s
}

// Start loads the catalog, acquires the scoring runtime and starts the
// worker. Neither a catalog nor a runtime failure is fatal: both are
// surfaced through the draft status and message.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting draft service...")

	catErr := s.loadCatalog(ctx)
	if catErr != nil {
		s.logger.Error(ctx, "hero catalog unavailable", logger.Error(catErr))
	}

	// the catalog error message takes precedence over the scoring one
	var scoreErr error
	if s.factory == nil {
		scoreErr = fmt.Errorf("%w: no runtime configured", scoring.ErrScoringUnavailable)
	} else {
		scoreErr = s.scorer.Open(ctx, s.factory)
	}
	if scoreErr != nil {
		s.logger.Error(ctx, "scoring runtime unavailable", logger.Error(scoreErr))
		if catErr == nil {
			_ = s.store.SetMessage(ctx, fmt.Sprintf(messageUnavailable, scoreErr))
		}
	}

	go s.worker.Run(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "draft service started",
		logger.Int("top_k", s.topK),
		logger.Bool("scoring_ready", s.scorer.Ready()),
	)
	return nil
}

// Stop releases the worker, the draft store and the scoring runtime, in
// that order. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping draft service...")

	_ = s.mailbox.Close()
	if s.started {
		shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
		if err := s.worker.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker shutdown", logger.Error(err))
		}
		cancel()
	}

	s.store.Stop()

	if err := s.scorer.Close(); err != nil {
		s.logger.Warn(ctx, "scoring runtime close", logger.Error(err))
	}

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "draft service stopped")
}

// ReloadCatalog reloads the roster and replaces the catalog, clearing the
// draft. On failure the draft moves to the error status.
func (s *Service) ReloadCatalog(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return ErrStopped
	}
	return s.loadCatalog(ctx)
}

func (s *Service) loadCatalog(ctx context.Context) error {
	if s.source == nil {
		err := fmt.Errorf("%w: no roster source configured", hero.ErrCatalogLoad)
		metrics.RecordCatalogLoad("error")
		_ = s.store.SetCatalogError(ctx, err)
		return err
	}

	cat, err := hero.Load(ctx, s.source)
	if err != nil {
		metrics.RecordCatalogLoad("error")
		if serr := s.store.SetCatalogError(ctx, err); serr != nil {
			return errors.Join(err, serr)
		}
		return err
	}

	metrics.RecordCatalogLoad("ok")
	metrics.UpdateCatalogHeroes(cat.Len())
	metrics.RecordCatalogSkipped(cat.Skipped())
	return s.store.SetCatalog(ctx, cat)
}

// requestInference runs on the store goroutine and must not block.
func (s *Service) requestInference(snap draft.Snapshot) { //nolint:gocritic // hugeParam: snapshots are values
	if _, err := s.mailbox.Offer(snap); err != nil {
		s.logger.Debug(context.Background(), "inference request dropped",
			logger.Uint64("generation", snap.Generation),
			logger.Error(err))
	}
}

// SelectAlly places heroID in an ally slot. heroID 0 clears the slot.
func (s *Service) SelectAlly(ctx context.Context, slot, heroID int) error {
	return s.store.SelectAlly(ctx, slot, heroID)
}

// SelectEnemy places heroID in an enemy slot. heroID 0 clears the slot.
func (s *Service) SelectEnemy(ctx context.Context, slot, heroID int) error {
	return s.store.SelectEnemy(ctx, slot, heroID)
}

// SelectBan places heroID in a ban slot. heroID 0 clears the slot.
func (s *Service) SelectBan(ctx context.Context, slot, heroID int) error {
	return s.store.SelectBan(ctx, slot, heroID)
}

// Select dispatches on team.
func (s *Service) Select(ctx context.Context, team draft.Team, slot, heroID int) error {
	return s.store.Select(ctx, team, slot, heroID)
}

// ClearDraft empties the draft without requesting inference.
func (s *Service) ClearDraft(ctx context.Context) error {
	return s.store.ClearDraft(ctx)
}

// Snapshot returns the current draft state.
func (s *Service) Snapshot(ctx context.Context) (draft.Snapshot, error) {
	return s.store.Snapshot(ctx)
}

// Subscribe streams snapshots until cancel is called or the service stops.
func (s *Service) Subscribe(ctx context.Context, buffer int) (<-chan draft.Snapshot, func(), error) {
	return s.store.Subscribe(ctx, buffer)
}

// Heroes returns the catalog in display order.
func (s *Service) Heroes(ctx context.Context) ([]hero.Hero, error) {
	cat, err := s.store.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return cat.All(), nil
}

// Hero looks a hero up by id.
func (s *Service) Hero(ctx context.Context, id int) (hero.Hero, error) {
	cat, err := s.store.Catalog(ctx)
	if err != nil {
		return hero.Hero{}, err
	}
	h, ok := cat.ByID(id)
	if !ok {
		return hero.Hero{}, fmt.Errorf("%w: %d", draft.ErrUnknownHero, id)
	}
	return h, nil
}

// Recommendations returns the published recommendations flattened into one
// list ordered by score, at most limit entries.
func (s *Service) Recommendations(ctx context.Context, limit int) ([]ranking.Recommendation, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.Overall(snap.Recommendations, limit), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"generation":        s.store.Generation(),
		"coordinator_state": s.coordinator.State().String(),
		"scoring_ready":     s.scorer.Ready(),
		"pending_requests":  s.mailbox.Len(),
		"top_k":             s.topK,
	}

	if s.started {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if cat, err := s.store.Catalog(ctx); err == nil && cat != nil {
			stats["heroes"] = cat.Len()
			stats["skipped_records"] = cat.Skipped()
			metrics.UpdateCatalogHeroes(cat.Len())
		}
	}

	return stats
}
