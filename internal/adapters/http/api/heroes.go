package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/draftnexus/internal/domain/draft"
	"github.com/okian/draftnexus/internal/domain/hero"
)

// HeroesHandler serves the hero catalog.
type HeroesHandler struct {
	deps Dependencies
}

// NewHeroesHandler creates a new heroes handler.
func NewHeroesHandler(deps Dependencies) *HeroesHandler {
	return &HeroesHandler{deps: deps}
}

type heroesResponse struct {
	Count  int         `json:"count"`
	Heroes []hero.Hero `json:"heroes"`
}

// HandleList handles GET /api/v1/heroes.
func (h *HeroesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	heroes, err := h.deps.Heroes(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if heroes == nil {
		heroes = []hero.Hero{}
	}
	writeJSON(w, http.StatusOK, heroesResponse{Count: len(heroes), Heroes: heroes})
}

// HandleGet handles GET /api/v1/heroes/{id}.
func (h *HeroesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid_id", fmt.Errorf("%w: hero id must be a positive integer", ErrBadRequest))
		return
	}

	found, err := h.deps.Hero(r.Context(), id)
	if err != nil {
		if errors.Is(err, draft.ErrUnknownHero) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// HandleReload handles POST /api/v1/heroes/reload. A reload clears the draft.
func (h *HeroesHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ReloadCatalog(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	snap, err := h.deps.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftView(snap))
}
