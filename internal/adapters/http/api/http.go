// Package api exposes the draft session over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/draftnexus/internal/adapters/http/swagger"
	"github.com/okian/draftnexus/internal/domain/draft"
	"github.com/okian/draftnexus/internal/domain/hero"
	"github.com/okian/draftnexus/internal/domain/ranking"
)

// Default API configuration constants.
const (
	defaultRecommendationLimit = 10
	defaultMaxLimit            = 25
	corsMaxAge                 = 300
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Snapshot(ctx context.Context) (draft.Snapshot, error)
	Select(ctx context.Context, team draft.Team, slot, heroID int) error
	ClearDraft(ctx context.Context) error
	Subscribe(ctx context.Context, buffer int) (<-chan draft.Snapshot, func(), error)

	Heroes(ctx context.Context) ([]hero.Hero, error)
	Hero(ctx context.Context, id int) (hero.Hero, error)
	ReloadCatalog(ctx context.Context) error

	Recommendations(ctx context.Context, limit int) ([]ranking.Recommendation, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed browser origins. "*" allows any.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithRecommendationLimits sets the default and maximum ?limit values.
func WithRecommendationLimits(def, maxLimit int) Option {
	return func(s *Server) {
		if def > 0 {
			s.defaultLimit = def
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
		if s.defaultLimit > s.maxLimit {
			s.defaultLimit = s.maxLimit
		}
	}
}

// WithSubscriberBuffer sets the snapshot buffer of each WebSocket client.
func WithSubscriberBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.wsBuffer = n
		}
	}
}

// Server wires HTTP routes for the draft API.
type Server struct {
	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	heroesHandler          *HeroesHandler
	draftHandler           *DraftHandler
	recommendationsHandler *RecommendationsHandler
	streamHandler          *StreamHandler

	origins      []string
	defaultLimit int
	maxLimit     int
	wsBuffer     int
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		origins:      []string{"*"},
		defaultLimit: defaultRecommendationLimit,
		maxLimit:     defaultMaxLimit,
		wsBuffer:     defaultStreamBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler(statsProvider)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.heroesHandler = NewHeroesHandler(deps)
	s.draftHandler = NewDraftHandler(deps)
	s.recommendationsHandler = NewRecommendationsHandler(deps, s.defaultLimit, s.maxLimit)
	s.streamHandler = NewStreamHandler(deps, s.origins, s.wsBuffer)
	return s
}

// Routes builds the router. ctx bounds the lifetime of WebSocket streams.
func (s *Server) Routes(ctx context.Context) http.Handler {
	s.streamHandler.baseCtx = ctx

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         corsMaxAge,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/ws", s.streamHandler.HandleStream)
	swagger.Register(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/heroes", MetricsMiddleware(s.heroesHandler.HandleList, "heroes"))
		r.Post("/heroes/reload", MetricsMiddleware(s.heroesHandler.HandleReload, "heroes_reload"))
		r.Get("/heroes/{id}", MetricsMiddleware(s.heroesHandler.HandleGet, "hero"))

		r.Get("/draft", MetricsMiddleware(s.draftHandler.HandleGet, "draft"))
		r.Delete("/draft", MetricsMiddleware(s.draftHandler.HandleClear, "draft"))
		r.Put("/draft/allies/{slot}", MetricsMiddleware(s.draftHandler.HandleSelect(draft.TeamAlly), "draft_slot"))
		r.Put("/draft/enemies/{slot}", MetricsMiddleware(s.draftHandler.HandleSelect(draft.TeamEnemy), "draft_slot"))
		r.Put("/draft/bans/{slot}", MetricsMiddleware(s.draftHandler.HandleSelect(draft.TeamBan), "draft_slot"))

		r.Get("/recommendations", MetricsMiddleware(s.recommendationsHandler.HandleGet, "recommendations"))
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain errors into HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, draft.ErrUnknownHero):
		writeError(w, http.StatusBadRequest, "unknown_hero", err)
	case errors.Is(err, draft.ErrSlotOutOfRange):
		writeError(w, http.StatusNotFound, "slot_not_found", err)
	case errors.Is(err, hero.ErrCatalogLoad):
		writeError(w, http.StatusServiceUnavailable, "catalog_unavailable", err)
	case errors.Is(err, draft.ErrStoreClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// draftView is the wire shape of a snapshot. The catalog is served
// separately by /api/v1/heroes.
type draftView struct {
	SessionID       string                `json:"session_id"`
	Generation      uint64                `json:"generation"`
	Status          draft.Status          `json:"status"`
	Message         string                `json:"message"`
	Allies          []*hero.Hero          `json:"allies"`
	Enemies         []*hero.Hero          `json:"enemies"`
	Bans            []*hero.Hero          `json:"bans"`
	Recommendations draft.Recommendations `json:"recommendations"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func newDraftView(s draft.Snapshot) draftView { //nolint:gocritic // hugeParam: snapshots are values
	recs := s.Recommendations
	if recs == nil {
		recs = draft.Recommendations{}
	}
	return draftView{
		SessionID:       s.SessionID,
		Generation:      s.Generation,
		Status:          s.Status,
		Message:         s.Message,
		Allies:          s.Allies[:],
		Enemies:         s.Enemies[:],
		Bans:            s.Bans[:],
		Recommendations: recs,
		UpdatedAt:       s.UpdatedAt,
	}
}
