package features

import "errors"

var (
	// ErrEmptyBatch means there were no candidates to encode. It is the normal
	// "nothing to recommend" signal rather than a fault.
	ErrEmptyBatch = errors.New("empty candidate batch")
	// ErrSlotCount means a team had more than MaxSlots entries.
	ErrSlotCount = errors.New("too many team slots")
)
