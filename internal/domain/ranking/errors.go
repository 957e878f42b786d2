package ranking

import "errors"

// ErrLengthMismatch means candidates and scores differ in length.
var ErrLengthMismatch = errors.New("candidate and score count mismatch")
