package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/reto/internal/domain/confirm"
)

type editEventRequest struct {
	Points *Number `json:"points"`
}

type pendingResponse struct {
	Token     string    `json:"token"`
	Action    string    `json:"action"`
	SeasonID  string    `json:"season_id"`
	EventID   string    `json:"event_id,omitempty"`
	Prompt    string    `json:"prompt"`
	ExpiresAt time.Time `json:"expires_at"`
}

func fromPending(p confirm.Pending) pendingResponse { //nolint:gocritic // hugeParam
	return pendingResponse{
		Token:     p.Token,
		Action:    string(p.Action.Kind),
		SeasonID:  p.Action.SeasonID,
		EventID:   p.Action.EventID,
		Prompt:    p.Action.Prompt,
		ExpiresAt: p.ExpiresAt,
	}
}

// handleHistory handles GET /api/history?participant=ID.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.session(r).History(r.URL.Query().Get("participant"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleEditEvent handles PATCH /api/history/{eventID}. Invalid points are
// ignored and still answered with 202.
func (s *Server) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	var req editEventRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session(r).EditEvent(r.Context(), chi.URLParam(r, "eventID"), req.Points.Float()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// handleRequestDeleteEvent handles DELETE /api/history/{eventID}.
func (s *Server) handleRequestDeleteEvent(w http.ResponseWriter, r *http.Request) {
	p, err := s.session(r).RequestDeleteEvent(chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromPending(p))
}

// handleRequestReset handles POST /api/season/reset.
func (s *Server) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	p, err := s.session(r).RequestResetSeason()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromPending(p))
}

// handleRequestDeleteSeason handles DELETE /api/season.
func (s *Server) handleRequestDeleteSeason(w http.ResponseWriter, r *http.Request) {
	p, err := s.session(r).RequestDeleteSeason()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromPending(p))
}

// handleConfirm handles POST /api/confirmations/{token}.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session(r).Confirm(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// handleCancel handles DELETE /api/confirmations/{token}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.session(r).Cancel(chi.URLParam(r, "token")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "cancelled"})
}
