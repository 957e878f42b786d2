package repository

import "errors"

// ErrRosterUnavailable means the roster could not be read at all.
var ErrRosterUnavailable = errors.New("roster unavailable")
