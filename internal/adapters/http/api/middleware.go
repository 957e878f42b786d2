package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/draftnexus/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error series for
// one named endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if wrapped.statusCode < http.StatusBadRequest {
			return
		}
		errorType, severity := classifyStatus(wrapped.statusCode)
		metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
		metrics.RecordErrorByType(errorType, severity)
		metrics.RecordErrorLatency("http", errorType, durationMs)
	}
}

// classifyStatus maps an error status to the error type and severity labels.
func classifyStatus(code int) (errorType, severity string) {
	switch {
	case code == http.StatusServiceUnavailable:
		return "unavailable", "high"
	case code >= http.StatusInternalServerError:
		return "server_error", "high"
	case code == http.StatusNotFound:
		return "not_found", "low"
	case code >= http.StatusBadRequest:
		return "client_error", "medium"
	default:
		return "unknown", "low"
	}
}

// responseWriter captures the status code written by the wrapped handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
