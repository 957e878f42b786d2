package scoring

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrScoringUnavailable means no runtime is attached. Callers degrade to
	// "no recommendations".
	ErrScoringUnavailable = errors.New("scoring unavailable")
	// ErrScoringRuntime means a single call failed: bad batch, runtime error,
	// cancellation or unexpected output shape.
	ErrScoringRuntime = errors.New("scoring runtime error")
	ErrAlreadyOpen    = errors.New("scoring client already open")
)
