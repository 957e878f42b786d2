package draft

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownHero    = errors.New("unknown hero")
	ErrSlotOutOfRange = errors.New("slot out of range")
	ErrStoreClosed    = errors.New("draft store closed")
)
