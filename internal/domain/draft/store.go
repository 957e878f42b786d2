package draft

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/draftnexus/internal/domain/hero"
	"github.com/okian/draftnexus/pkg/logger"
)

// Default store configuration constants.
const (
	defaultInboxSize        = 64
	defaultSubscriberBuffer = 8
)

// Outcome classifies an inference result.
type Outcome int

// Outcomes.
const (
	// OutcomeRanked carries fresh recommendations.
	OutcomeRanked Outcome = iota
	// OutcomeEmpty means nothing was eligible; recommendations are cleared.
	OutcomeEmpty
	// OutcomeFailed means the run failed; previous recommendations are kept.
	OutcomeFailed
	// OutcomeUnavailable means no model is loaded; recommendations are kept.
	OutcomeUnavailable
)

// Result is the outcome of one inference run for a generation.
type Result struct {
	Generation      uint64
	Outcome         Outcome
	Recommendations Recommendations
	Message         string
}

// Trigger receives the snapshot after every pick or ban. It is called from
// the store goroutine and must not block.
type Trigger func(Snapshot)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithTrigger sets the inference trigger.
func WithTrigger(t Trigger) Option {
	return func(s *Store) {
		if t != nil {
			s.trigger = t
		}
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.state.SessionID = id
		}
	}
}

// WithInboxSize sets the inbox buffer.
func WithInboxSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.inboxSize = n
		}
	}
}

// WithSubscriberBuffer sets the default subscriber channel buffer.
func WithSubscriberBuffer(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.subBuffer = n
		}
	}
}

// Store is the single writer of the draft state. All mutations go through
// its inbox and are applied by one goroutine.
type Store struct {
	inbox     chan msg
	done      chan struct{}
	stopOnce  sync.Once
	inboxSize int
	subBuffer int
	trigger   Trigger
	log       logger.Logger

	// latest mirrors state.Generation for lock-free staleness checks.
	latest atomic.Uint64

	// owned by loop
	state   Snapshot
	catalog *hero.Catalog
	subs    map[uint64]chan Snapshot
	nextSub uint64
}

// NewStore starts a store in the loading state.
func NewStore(opts ...Option) *Store {
	s := &Store{
		done:      make(chan struct{}),
		inboxSize: defaultInboxSize,
		subBuffer: defaultSubscriberBuffer,
		trigger:   func(Snapshot) {},
		log:       logger.Named("draft"),
		state: Snapshot{
			SessionID:       uuid.NewString(),
			Status:          StatusLoading,
			Message:         "Loading heroes",
			Recommendations: Recommendations{},
			UpdatedAt:       time.Now(),
		},
		subs: make(map[uint64]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.inbox = make(chan msg, s.inboxSize)

	go s.loop()
	return s
}

// SelectAlly places heroID in ally slot [0,5). heroID 0 clears the slot.
func (s *Store) SelectAlly(ctx context.Context, slot, heroID int) error {
	return s.selectSlot(ctx, TeamAlly, slot, heroID)
}

// SelectEnemy places heroID in enemy slot [0,5). heroID 0 clears the slot.
func (s *Store) SelectEnemy(ctx context.Context, slot, heroID int) error {
	return s.selectSlot(ctx, TeamEnemy, slot, heroID)
}

// SelectBan places heroID in ban slot [0,10). heroID 0 clears the slot.
func (s *Store) SelectBan(ctx context.Context, slot, heroID int) error {
	return s.selectSlot(ctx, TeamBan, slot, heroID)
}

// Select dispatches to the slot group named by team.
func (s *Store) Select(ctx context.Context, team Team, slot, heroID int) error {
	return s.selectSlot(ctx, team, slot, heroID)
}

func (s *Store) selectSlot(ctx context.Context, team Team, slot, heroID int) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, selectMsg{team: team, slot: slot, heroID: heroID, reply: reply}); err != nil {
		return err
	}
	return awaitErr(ctx, s.done, reply)
}

// ClearDraft empties every slot and the recommendations and invalidates
// in-flight runs. It does not request inference.
func (s *Store) ClearDraft(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, clearMsg{reply: reply}); err != nil {
		return err
	}
	return awaitErr(ctx, s.done, reply)
}

// SetCatalog installs a freshly loaded catalog, clearing the draft.
func (s *Store) SetCatalog(ctx context.Context, cat *hero.Catalog) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, catalogMsg{catalog: cat, reply: reply}); err != nil {
		return err
	}
	return awaitErr(ctx, s.done, reply)
}

// SetCatalogError records a catalog load failure. The store stays usable.
func (s *Store) SetCatalogError(ctx context.Context, cause error) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, catalogMsg{err: cause, reply: reply}); err != nil {
		return err
	}
	return awaitErr(ctx, s.done, reply)
}

// SetMessage replaces the diagnostic message without touching the generation.
func (s *Store) SetMessage(ctx context.Context, message string) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, messageMsg{text: message, reply: reply}); err != nil {
		return err
	}
	return awaitErr(ctx, s.done, reply)
}

// Publish applies an inference result if its generation is still the latest.
// It reports whether the result was applied.
func (s *Store) Publish(ctx context.Context, res Result) (bool, error) {
	reply := make(chan bool, 1)
	if err := s.send(ctx, publishMsg{result: res, reply: reply}); err != nil {
		return false, err
	}
	return await(ctx, s.done, reply)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := s.send(ctx, snapshotMsg{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	return await(ctx, s.done, reply)
}

// Catalog returns the catalog in use, nil before the first load.
func (s *Store) Catalog(ctx context.Context) (*hero.Catalog, error) {
	reply := make(chan *hero.Catalog, 1)
	if err := s.send(ctx, catalogQueryMsg{reply: reply}); err != nil {
		return nil, err
	}
	return await(ctx, s.done, reply)
}

// Subscribe registers for snapshots. The current snapshot is delivered
// first. A subscriber that falls buffer snapshots behind is dropped and its
// channel closed. buffer <= 0 uses the store default. The returned cancel
// func is safe to call more than once. Delivered snapshots are shared
// between subscribers and must be treated as read-only.
func (s *Store) Subscribe(ctx context.Context, buffer int) (<-chan Snapshot, func(), error) {
	if buffer <= 0 {
		buffer = s.subBuffer
	}
	reply := make(chan uint64, 1)
	ch := make(chan Snapshot, buffer)
	if err := s.send(ctx, subscribeMsg{ch: ch, reply: reply}); err != nil {
		return nil, nil, err
	}
	id, err := await(ctx, s.done, reply)
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			select {
			case s.inbox <- unsubscribeMsg{id: id}:
			case <-s.done:
			}
		})
	}
	return ch, cancel, nil
}

// Generation returns the latest issued generation.
func (s *Store) Generation() uint64 { return s.latest.Load() }

// IsLatest reports whether gen is still the latest issued generation.
func (s *Store) IsLatest(gen uint64) bool { return s.latest.Load() == gen }

// Stop terminates the loop and closes every subscriber channel.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed once the store stops.
func (s *Store) Done() <-chan struct{} { return s.done }

func (s *Store) send(ctx context.Context, m msg) error {
	select {
	case <-s.done:
		return ErrStoreClosed
	default:
	}
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrStoreClosed
	case <-ctx.Done():
		return fmt.Errorf("draft store: %w", ctx.Err())
	}
}

func await[T any](ctx context.Context, done <-chan struct{}, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-done:
		return zero, ErrStoreClosed
	case <-ctx.Done():
		return zero, fmt.Errorf("draft store: %w", ctx.Err())
	}
}

func awaitErr(ctx context.Context, done <-chan struct{}, reply <-chan error) error {
	err, serr := await(ctx, done, reply)
	if serr != nil {
		return serr
	}
	return err
}
