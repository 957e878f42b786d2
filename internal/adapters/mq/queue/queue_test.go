package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMailbox_BasicOperations(t *testing.T) {
	m := NewMailbox[int]()
	ctx := context.Background()

	if l := m.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	replaced, err := m.Offer(1)
	if err != nil {
		t.Fatalf("unexpected offer error: %v", err)
	}
	if replaced {
		t.Error("expected first offer not to replace anything")
	}
	if l := m.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	v, err := m.Take(ctx)
	if err != nil {
		t.Fatalf("unexpected take error: %v", err)
	}
	if v != 1 {
		t.Errorf("expected 1, got %d", v)
	}
	if l := m.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestMailbox_OfferReplacesPending(t *testing.T) {
	var dropped []int
	m := NewMailbox(WithDropHook(func(v int) { dropped = append(dropped, v) }))

	for i := 1; i <= 3; i++ {
		if _, err := m.Offer(i); err != nil {
			t.Fatalf("unexpected offer error: %v", err)
		}
	}

	if l := m.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}
	v, err := m.Take(context.Background())
	if err != nil {
		t.Fatalf("unexpected take error: %v", err)
	}
	if v != 3 {
		t.Errorf("expected latest value 3, got %d", v)
	}
	if len(dropped) != 2 || dropped[0] != 1 || dropped[1] != 2 {
		t.Errorf("expected dropped [1 2], got %v", dropped)
	}
}

func TestMailbox_TakeBlocksUntilOffer(t *testing.T) {
	m := NewMailbox[string]()
	got := make(chan string, 1)

	go func() {
		v, err := m.Take(context.Background())
		if err != nil {
			t.Errorf("unexpected take error: %v", err)
		}
		got <- v
	}()

	select {
	case v := <-got:
		t.Fatalf("take returned %q before any offer", v)
	case <-time.After(20 * time.Millisecond):
	}

	if _, err := m.Offer("latest"); err != nil {
		t.Fatalf("unexpected offer error: %v", err)
	}

	select {
	case v := <-got:
		if v != "latest" {
			t.Errorf("expected latest, got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatal("take did not wake up after offer")
	}
}

func TestMailbox_ContextCancellation(t *testing.T) {
	m := NewMailbox[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Take(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestMailbox_Close(t *testing.T) {
	m := NewMailbox[int]()

	if m.IsClosed() {
		t.Error("expected mailbox to be open")
	}
	if _, err := m.Offer(7); err != nil {
		t.Fatalf("unexpected offer error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("expected second close to be a no-op, got %v", err)
	}
	if !m.IsClosed() {
		t.Error("expected mailbox to be closed")
	}

	if _, err := m.Offer(8); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on offer, got %v", err)
	}

	// pending value survives close
	v, err := m.Take(context.Background())
	if err != nil || v != 7 {
		t.Errorf("expected pending 7, got %d (%v)", v, err)
	}
	if _, err := m.Take(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on drained take, got %v", err)
	}
}

func TestMailbox_CloseWakesTaker(t *testing.T) {
	m := NewMailbox[int]()
	errCh := make(chan error, 1)

	go func() {
		_, err := m.Take(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	_ = m.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("close did not wake blocked taker")
	}
}

func TestMailbox_ConcurrentOffers(t *testing.T) {
	m := NewMailbox[int]()
	const producers = 16

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_, _ = m.Offer(v)
		}(i)
	}
	wg.Wait()

	if l := m.Len(); l != 1 {
		t.Errorf("expected exactly one pending value, got %d", l)
	}
	v, err := m.Take(context.Background())
	if err != nil {
		t.Fatalf("unexpected take error: %v", err)
	}
	if v < 0 || v >= producers {
		t.Errorf("unexpected value %d", v)
	}
}
