package worker

import (
	"time"

	"github.com/okian/draftnexus/pkg/logger"
)

// Option configures an InferenceWorker.
type Option func(*InferenceWorker)

// WithName names the worker in its log output.
func WithName(name string) Option {
	return func(w *InferenceWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger replaces the worker logger.
func WithLogger(logger logger.Logger) Option {
	return func(w *InferenceWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithRunTimeout bounds each pipeline run. A run that exceeds it sees a
// canceled context and reports a scoring failure. Zero disables the bound.
func WithRunTimeout(d time.Duration) Option {
	return func(w *InferenceWorker) {
		if d >= 0 {
			w.runTimeout = d
		}
	}
}
