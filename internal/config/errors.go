package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid draftnexus config")
	// ErrLoadConfig wraps .env, YAML and environment read failures.
	ErrLoadConfig = errors.New("load draftnexus config")
)
