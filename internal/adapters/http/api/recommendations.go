package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/draftnexus/internal/domain/ranking"
)

// RecommendationsHandler serves the flattened top-k recommendations.
type RecommendationsHandler struct {
	deps         Dependencies
	defaultLimit int
	maxLimit     int
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps Dependencies, defaultLimit, maxLimit int) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

type recommendationsResponse struct {
	Count           int                      `json:"count"`
	Recommendations []ranking.Recommendation `json:"recommendations"`
}

// HandleGet handles GET /api/v1/recommendations?limit=k.
func (h *RecommendationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "invalid_limit",
				fmt.Errorf("%w: limit must be between 1 and %d", ErrBadRequest, h.maxLimit))
			return
		}
		limit = n
	}

	recs, err := h.deps.Recommendations(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if recs == nil {
		recs = []ranking.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{Count: len(recs), Recommendations: recs})
}
