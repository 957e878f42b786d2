package service

import "errors"

// ErrStopped is returned once the service has been stopped.
var ErrStopped = errors.New("service stopped")
