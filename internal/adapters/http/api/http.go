// Package api exposes the scoreboard over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/reto/internal/app"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/types"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider

	// Session returns the caller's session, creating it on first use.
	Session(id string) *service.Session

	Ready() bool
	Participants() []model.Participant
	Seasons() []model.Season
	BoostShortcuts() []types.BoostShortcut
}

// Server wires HTTP routes for the scoreboard API.
type Server struct {
	deps      Dependencies
	publicURL string
	qrSize    int
	feed      http.Handler

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		publicURL:     "http://localhost:9080",
		qrSize:        256,
		healthHandler: NewHealthHandler(deps),
		statsHandler:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/readyz", MetricsMiddleware(s.healthHandler.HandleReady, "readyz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware)
		if s.feed != nil {
			r.Handle("/ws", s.feed)
		}
		r.Route("/api", func(r chi.Router) {
			r.Get("/seasons", MetricsMiddleware(s.handleListSeasons, "seasons"))
			r.Post("/seasons", MetricsMiddleware(s.handleCreateSeason, "seasons"))
			r.Get("/seasons/{seasonID}/qr.png", MetricsMiddleware(s.handleSeasonQR, "season_qr"))

			r.Get("/session", MetricsMiddleware(s.handleGetSession, "session"))
			r.Put("/session", MetricsMiddleware(s.handleSelectSeason, "session"))

			r.Get("/participants", MetricsMiddleware(s.handleListParticipants, "participants"))
			r.Post("/participants", MetricsMiddleware(s.handleAddParticipant, "participants"))

			r.Get("/scoreboard", MetricsMiddleware(s.handleScoreboard, "scoreboard"))
			r.Put("/scoreboard/{participantID}", MetricsMiddleware(s.handleCorrect, "scoreboard"))

			r.Get("/points", MetricsMiddleware(s.handleDayStatus, "points"))
			r.Post("/points", MetricsMiddleware(s.handleGrant, "points"))

			r.Post("/boosts", MetricsMiddleware(s.handleBoost, "boosts"))
			r.Get("/boosts/shortcuts", MetricsMiddleware(s.handleBoostShortcuts, "boosts"))

			r.Get("/history", MetricsMiddleware(s.handleHistory, "history"))
			r.Patch("/history/{eventID}", MetricsMiddleware(s.handleEditEvent, "history"))
			r.Delete("/history/{eventID}", MetricsMiddleware(s.handleRequestDeleteEvent, "history"))

			r.Post("/season/reset", MetricsMiddleware(s.handleRequestReset, "season"))
			r.Delete("/season", MetricsMiddleware(s.handleRequestDeleteSeason, "season"))

			r.Post("/confirmations/{token}", MetricsMiddleware(s.handleConfirm, "confirmations"))
			r.Delete("/confirmations/{token}", MetricsMiddleware(s.handleCancel, "confirmations"))
		})
	})
}

// Routes returns a router with every API route registered.
func (s *Server) Routes(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

func (s *Server) session(r *http.Request) *service.Session {
	return s.deps.Session(SessionID(r))
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
