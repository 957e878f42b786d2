// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, .env, an optional YAML file and DRAFTNEXUS_* env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Scoring runtimes.
const (
	RuntimeONNX      = "onnx"
	RuntimeSimulated = "simulated"
)

// Roster sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RosterSource selects where heroes are read from: file or postgres.
	RosterSource string `koanf:"roster_source"`
	// RosterPath is the JSON roster produced by the ETL.
	RosterPath string `koanf:"roster_path"`
	// PostgresDSN is required when RosterSource is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// ScoringRuntime selects the model backend: onnx or simulated.
	ScoringRuntime string `koanf:"scoring_runtime"`
	// ModelPath points at the .onnx model file.
	ModelPath string `koanf:"model_path"`
	// ONNXLibraryPath overrides the onnxruntime shared library location.
	ONNXLibraryPath string `koanf:"onnx_library_path"`

	// ScoringLatencyMinMS and ScoringLatencyMaxMS bound the simulated runtime latency.
	ScoringLatencyMinMS int `koanf:"scoring_latency_min_ms"`
	ScoringLatencyMaxMS int `koanf:"scoring_latency_max_ms"`

	// InferenceTimeoutMS bounds one encode, score and rank run; 0 disables it.
	InferenceTimeoutMS int `koanf:"inference_timeout_ms"`

	// SerializeScoring guards model calls with a mutex.
	SerializeScoring bool `koanf:"serialize_scoring"`

	// TopK caps recommendations per role.
	TopK int `koanf:"top_k"`

	// MaxRecommendationLimit caps GET /api/v1/recommendations?limit.
	MaxRecommendationLimit int `koanf:"max_recommendation_limit"`

	// SubscriberBuffer sizes each snapshot subscriber channel.
	SubscriberBuffer int `koanf:"subscriber_buffer"`

	// RedisAddr enables the snapshot stream publisher when set.
	RedisAddr         string `koanf:"redis_addr"`
	RedisStream       string `koanf:"redis_stream"`
	RedisStreamMaxLen int64  `koanf:"redis_stream_maxlen"`

	// CORSOrigins is a comma separated list of allowed origins.
	CORSOrigins string `koanf:"cors_origins"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		RosterSource:           SourceFile,
		RosterPath:             "data/heroes.json",
		ScoringRuntime:         RuntimeONNX,
		ModelPath:              "model/draft.onnx",
		ScoringLatencyMinMS:    5,
		ScoringLatencyMaxMS:    20,
		InferenceTimeoutMS:     2000,
		SerializeScoring:       true,
		TopK:                   5,
		MaxRecommendationLimit: 25,
		SubscriberBuffer:       8,
		RedisStream:            "draft:recommendations",
		RedisStreamMaxLen:      1000,
		CORSOrigins:            "*",
	}
}

// Origins splits CORSOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.ScoringLatencyMinMS < 0 || c.ScoringLatencyMaxMS < c.ScoringLatencyMinMS {
		return fmt.Errorf("%w: scoring latency range [%d,%d] is invalid",
			ErrInvalidConfig, c.ScoringLatencyMinMS, c.ScoringLatencyMaxMS)
	}

	if c.InferenceTimeoutMS < 0 {
		return fmt.Errorf("%w: inference_timeout_ms must not be negative", ErrInvalidConfig)
	}

	switch c.ScoringRuntime {
	case RuntimeONNX:
		if c.ModelPath == "" {
			return fmt.Errorf("%w: model_path is required for the onnx runtime", ErrInvalidConfig)
		}
	case RuntimeSimulated:
	default:
		return fmt.Errorf("%w: unknown scoring_runtime %q", ErrInvalidConfig, c.ScoringRuntime)
	}

	switch c.RosterSource {
	case SourceFile:
		if c.RosterPath == "" {
			return fmt.Errorf("%w: roster_path is required for the file source", ErrInvalidConfig)
		}
	case SourcePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown roster_source %q", ErrInvalidConfig, c.RosterSource)
	}
	return nil
}
