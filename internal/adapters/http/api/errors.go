package api

import "errors"

// ErrBadRequest marks malformed client input.
var ErrBadRequest = errors.New("bad request")
