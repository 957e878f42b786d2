package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/draftnexus/pkg/metrics"
)

// HealthHandler handles liveness and metrics requests.
type HealthHandler struct {
	stats   StatsProvider
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{
		stats:   stats,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status       string `json:"status"`
	ScoringReady bool   `json:"scoring_ready"`
}

// HandleHealth handles GET /healthz. The process is alive whenever it
// answers; scoring readiness is reported alongside.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.stats != nil {
		if ready, ok := h.stats.GetStats()["scoring_ready"].(bool); ok {
			resp.ScoringReady = ready
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMetrics serves the custom Prometheus registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
