package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/draftnexus/internal/domain/draft"
)

const maxSelectBody = 1 << 10

// DraftHandler reads and mutates the draft slots.
type DraftHandler struct {
	deps Dependencies
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(deps Dependencies) *DraftHandler {
	return &DraftHandler{deps: deps}
}

// selectRequest is the body of PUT /api/v1/draft/{team}/{slot}. hero_id 0
// clears the slot.
type selectRequest struct {
	HeroID *int `json:"hero_id"`
}

func (s selectRequest) validate() error {
	switch {
	case s.HeroID == nil:
		return fmt.Errorf("%w: missing hero_id", ErrBadRequest)
	case *s.HeroID < 0:
		return fmt.Errorf("%w: hero_id must not be negative", ErrBadRequest)
	}
	return nil
}

// HandleGet handles GET /api/v1/draft.
func (h *DraftHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftView(snap))
}

// HandleClear handles DELETE /api/v1/draft.
func (h *DraftHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ClearDraft(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	h.HandleGet(w, r)
}

// HandleSelect returns the PUT handler for one slot group.
func (h *DraftHandler) HandleSelect(team draft.Team) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot", fmt.Errorf("%w: slot must be an integer", ErrBadRequest))
			return
		}

		var req selectRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSelectBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err)
			return
		}

		if err := h.deps.Select(r.Context(), team, slot, *req.HeroID); err != nil {
			writeDomainError(w, err)
			return
		}
		h.HandleGet(w, r)
	}
}
