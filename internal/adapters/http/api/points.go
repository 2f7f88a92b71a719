package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/types"
)

// IdempotencyHeader lets clients retry point requests safely.
const IdempotencyHeader = "Idempotency-Key"

type grantRequest struct {
	ParticipantID string `json:"participant_id"`
	Date          string `json:"date"`
}

type boostRequest struct {
	ParticipantID string  `json:"participant_id"`
	Points        *Number `json:"points"`
}

type correctRequest struct {
	Total        *Number `json:"total"`
	CurrentTotal *int    `json:"current_total"`
}

type correctResponse struct {
	Delta   int          `json:"delta"`
	Written bool         `json:"written"`
	Event   *model.Event `json:"event,omitempty"`
}

// handleScoreboard handles GET /api/scoreboard.
func (s *Server) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.session(r).Scoreboard()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCorrect handles PUT /api/scoreboard/{participantID}.
func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	var req correctRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.session(r).Correct(r.Context(), chi.URLParam(r, "participantID"), req.Total.Float(), req.CurrentTotal)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if c.Written {
		status = http.StatusAccepted
	}
	writeJSON(w, status, correctResponse{Delta: c.Delta, Written: c.Written, Event: c.Event})
}

// handleDayStatus handles GET /api/points?date=YYYY-MM-DD.
func (s *Server) handleDayStatus(w http.ResponseWriter, r *http.Request) {
	day, err := s.session(r).DayStatus(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// handleGrant handles POST /api/points.
func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	e, err := s.session(r).Grant(r.Context(), req.ParticipantID, req.Date, r.Header.Get(IdempotencyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, e)
}

// handleBoost handles POST /api/boosts.
func (s *Server) handleBoost(w http.ResponseWriter, r *http.Request) {
	var req boostRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	e, err := s.session(r).Boost(r.Context(), req.ParticipantID, req.Points.Float(), r.Header.Get(IdempotencyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, e)
}

// handleBoostShortcuts handles GET /api/boosts/shortcuts.
func (s *Server) handleBoostShortcuts(w http.ResponseWriter, _ *http.Request) {
	shortcuts := s.deps.BoostShortcuts()
	if shortcuts == nil {
		shortcuts = []types.BoostShortcut{}
	}
	writeJSON(w, http.StatusOK, shortcuts)
}
