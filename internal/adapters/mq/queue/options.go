package queue

// Option applies a configuration option to the Mailbox.
type Option[T any] func(*Mailbox[T])

// WithDropHook is called with every pending value replaced by a newer offer.
// It runs on the offering goroutine and must not block.
func WithDropHook[T any](fn func(dropped T)) Option[T] {
	return func(m *Mailbox[T]) {
		m.onDrop = fn
	}
}
