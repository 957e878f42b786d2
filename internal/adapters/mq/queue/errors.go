package queue

import "errors"

// ErrClosed is returned by a closed mailbox.
var ErrClosed = errors.New("mailbox closed")
