package api

import (
	"net/http"
)

// StatsProvider reports the draft session counters served on /stats:
// generation, coordinator state, scoring readiness, pending requests and
// catalog size.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves StatsProvider output as JSON.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler. A nil provider serves an empty object.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats. The counters move with every draft
// mutation, so responses are never cached.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	stats := map[string]interface{}{}
	if h.provider != nil {
		stats = h.provider.GetStats()
	}
	writeJSON(w, http.StatusOK, stats)
}
