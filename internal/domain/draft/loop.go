package draft

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/draftnexus/internal/domain/hero"
	"github.com/okian/draftnexus/pkg/logger"
	"github.com/okian/draftnexus/pkg/metrics"
)

type msg interface{ isDraftMsg() }

type selectMsg struct {
	team   Team
	slot   int
	heroID int
	reply  chan error
}

type clearMsg struct{ reply chan error }

type catalogMsg struct {
	catalog *hero.Catalog
	err     error
	reply   chan error
}

type messageMsg struct {
	text  string
	reply chan error
}

type publishMsg struct {
	result Result
	reply  chan bool
}

type snapshotMsg struct{ reply chan Snapshot }

type catalogQueryMsg struct{ reply chan *hero.Catalog }

type subscribeMsg struct {
	ch    chan Snapshot
	reply chan uint64
}

type unsubscribeMsg struct{ id uint64 }

func (selectMsg) isDraftMsg()       {}
func (clearMsg) isDraftMsg()        {}
func (catalogMsg) isDraftMsg()      {}
func (messageMsg) isDraftMsg()      {}
func (publishMsg) isDraftMsg()      {}
func (snapshotMsg) isDraftMsg()     {}
func (catalogQueryMsg) isDraftMsg() {}
func (subscribeMsg) isDraftMsg()    {}
func (unsubscribeMsg) isDraftMsg()  {}

func (s *Store) loop() {
	for {
		select {
		case <-s.done:
			s.shutdown()
			return

		case m := <-s.inbox:
			switch m := m.(type) {
			case selectMsg:
				m.reply <- s.applySelect(m)
			case clearMsg:
				s.applyClear()
				m.reply <- nil
			case catalogMsg:
				s.applyCatalog(m)
				m.reply <- nil
			case messageMsg:
				s.state.Message = m.text
				s.touch()
				s.broadcast()
				m.reply <- nil
			case publishMsg:
				m.reply <- s.applyResult(m.result)
			case snapshotMsg:
				m.reply <- s.state.clone()
			case catalogQueryMsg:
				m.reply <- s.catalog
			case subscribeMsg:
				s.nextSub++
				s.subs[s.nextSub] = m.ch
				m.ch <- s.state.clone()
				metrics.UpdateSubscribers(len(s.subs))
				m.reply <- s.nextSub
			case unsubscribeMsg:
				if ch, ok := s.subs[m.id]; ok {
					close(ch)
					delete(s.subs, m.id)
					metrics.UpdateSubscribers(len(s.subs))
				}
			}
		}
	}
}

func (s *Store) applySelect(m selectMsg) error {
	var slots []*hero.Hero
	switch m.team {
	case TeamAlly:
		slots = s.state.Allies[:]
	case TeamEnemy:
		slots = s.state.Enemies[:]
	case TeamBan:
		slots = s.state.Bans[:]
	default:
		return fmt.Errorf("%w: unknown team %q", ErrSlotOutOfRange, m.team)
	}
	if m.slot < 0 || m.slot >= len(slots) {
		return fmt.Errorf("%w: %s slot %d not in [0,%d)", ErrSlotOutOfRange, m.team, m.slot, len(slots))
	}

	if m.heroID == 0 {
		slots[m.slot] = nil
	} else {
		h, ok := s.catalog.ByID(m.heroID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownHero, m.heroID)
		}
		slots[m.slot] = &h
	}

	s.bump()
	metrics.RecordDraftMutation(string(m.team))
	s.log.Debug(context.Background(), "slot updated",
		logger.String("team", string(m.team)),
		logger.Int("slot", m.slot),
		logger.Int("hero_id", m.heroID),
		logger.Uint64("generation", s.state.Generation))

	snap := s.state.clone()
	s.broadcast()
	s.trigger(snap)
	return nil
}

func (s *Store) applyClear() {
	s.state.Allies = [TeamSlots]*hero.Hero{}
	s.state.Enemies = [TeamSlots]*hero.Hero{}
	s.state.Bans = [BanSlots]*hero.Hero{}
	s.state.Recommendations = Recommendations{}
	if s.state.Status == StatusReady {
		s.state.Message = "Draft cleared"
	}
	s.bump()
	metrics.RecordDraftMutation("clear")
	s.broadcast()
}

func (s *Store) applyCatalog(m catalogMsg) {
	ctx := context.Background()
	if m.err != nil || m.catalog == nil {
		s.state.Status = StatusError
		s.state.Message = fmt.Sprintf("Error loading heroes: %v", m.err)
		s.bump()
		s.log.Error(ctx, "catalog unavailable", logger.Error(m.err))
		metrics.RecordDraftMutation("catalog_error")
		s.broadcast()
		return
	}

	s.catalog = m.catalog
	s.state.Heroes = m.catalog.All()
	s.state.Allies = [TeamSlots]*hero.Hero{}
	s.state.Enemies = [TeamSlots]*hero.Hero{}
	s.state.Bans = [BanSlots]*hero.Hero{}
	s.state.Recommendations = Recommendations{}
	s.state.Status = StatusReady
	s.state.Message = fmt.Sprintf("Heroes loaded: %d", m.catalog.Len())
	s.bump()
	s.log.Info(ctx, "catalog installed", logger.Int("heroes", m.catalog.Len()))
	metrics.RecordDraftMutation("catalog")
	s.broadcast()
}

func (s *Store) applyResult(res Result) bool {
	if res.Generation != s.state.Generation {
		s.log.Debug(context.Background(), "dropping stale result",
			logger.Uint64("result_generation", res.Generation),
			logger.Uint64("generation", s.state.Generation))
		return false
	}

	switch res.Outcome {
	case OutcomeRanked:
		s.state.Recommendations = res.Recommendations.clone()
		if s.state.Recommendations == nil {
			s.state.Recommendations = Recommendations{}
		}
	case OutcomeEmpty:
		s.state.Recommendations = Recommendations{}
	case OutcomeFailed, OutcomeUnavailable:
		// last good value stays
	}
	s.state.Message = res.Message
	s.touch()
	s.broadcast()
	return true
}

func (s *Store) bump() {
	s.state.Generation++
	s.latest.Store(s.state.Generation)
	s.touch()
}

func (s *Store) touch() { s.state.UpdatedAt = time.Now() }

func (s *Store) broadcast() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.state.clone()
	for id, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			close(ch)
			delete(s.subs, id)
			metrics.RecordSubscriberDrop()
			s.log.Warn(context.Background(), "dropping slow subscriber", logger.Uint64("subscriber", id))
		}
	}
	metrics.UpdateSubscribers(len(s.subs))
}

func (s *Store) shutdown() {
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	metrics.UpdateSubscribers(0)
}
