// Package queue provides the latest-request mailbox that feeds the inference
// worker.
//
// The mailbox holds at most one pending value. Offering a new value replaces
// a pending one that no consumer has taken yet, so a consumer always starts
// on the most recent request and never works through a backlog of superseded
// ones.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/draftnexus/pkg/metrics"
)

// Mailbox is a single-slot, overwrite-on-offer queue.
type Mailbox[T any] struct {
	mu      sync.Mutex
	pending T
	has     bool
	closed  bool
	notify  chan struct{}
	onDrop  func(T)
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any](opts ...Option[T]) *Mailbox[T] {
	m := &Mailbox[T]{
		notify: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Offer places v in the mailbox without blocking. It reports whether a
// pending value was replaced.
func (m *Mailbox[T]) Offer(v T) (bool, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		metrics.RecordErrorByComponent("mailbox", "closed")
		return false, ErrClosed
	}

	dropped, replaced := m.pending, m.has
	m.pending, m.has = v, true
	select {
	case m.notify <- struct{}{}:
	default:
	}
	m.mu.Unlock()

	metrics.RecordMailboxOffer(replaced)
	if replaced && m.onDrop != nil {
		m.onDrop(dropped)
	}
	return replaced, nil
}

// Take blocks until a value is available, ctx is done or the mailbox is
// closed. A value offered before Close is still delivered.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	var zero T
	for {
		m.mu.Lock()
		if m.has {
			v := m.pending
			m.pending, m.has = zero, false
			m.mu.Unlock()
			return v, nil
		}
		if m.closed {
			m.mu.Unlock()
			return zero, ErrClosed
		}
		m.mu.Unlock()

		select {
		case <-m.notify:
		case <-ctx.Done():
			return zero, fmt.Errorf("mailbox take: %w", ctx.Err())
		}
	}
}

// Len returns 1 when a value is pending, otherwise 0.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.has {
		return 1
	}
	return 0
}

// Close stops the mailbox. Further offers fail and Take returns ErrClosed
// once the pending value, if any, has been taken.
func (m *Mailbox[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.notify)
	return nil
}

// IsClosed returns true if the mailbox has been closed.
func (m *Mailbox[T]) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
