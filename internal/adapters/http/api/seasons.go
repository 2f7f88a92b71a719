package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/reto/internal/app"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/season"
	"github.com/okian/reto/internal/domain/types"
)

type createSeasonRequest struct {
	Name          string            `json:"name"`
	StartDate     string            `json:"start_date"`
	DailyLimit    *Number           `json:"daily_limit"`
	Participants  []string          `json:"participants"`
	InitialPoints map[string]Number `json:"initial_points"`
}

func (req createSeasonRequest) draft() season.Draft {
	d := season.Draft{
		Name:         req.Name,
		StartDate:    req.StartDate,
		Participants: req.Participants,
	}
	if req.DailyLimit != nil {
		v := req.DailyLimit.Float()
		d.DailyLimit = &v
	}
	if len(req.InitialPoints) > 0 {
		d.InitialPoints = make(map[string]float64, len(req.InitialPoints))
		for id, n := range req.InitialPoints {
			d.InitialPoints[id] = float64(n)
		}
	}
	return d
}

type selectSeasonRequest struct {
	SeasonID string `json:"season_id"`
}

type sessionResponse struct {
	SessionID    string        `json:"session_id"`
	ActiveSeason *types.Season `json:"active_season"`
}

type addParticipantRequest struct {
	Name string `json:"name"`
}

type addParticipantResponse struct {
	Added       bool               `json:"added"`
	Participant *model.Participant `json:"participant,omitempty"`
}

// handleListSeasons handles GET /api/seasons.
func (s *Server) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session(r).Seasons())
}

// handleCreateSeason handles POST /api/seasons. The season is queued and
// returned with its id; it shows up in listings once stored.
func (s *Server) handleCreateSeason(w http.ResponseWriter, r *http.Request) {
	var req createSeasonRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.session(r).CreateSeason(r.Context(), req.draft())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, types.FromSeason(created))
}

// handleGetSession handles GET /api/session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionView(s.session(r)))
}

// handleSelectSeason handles PUT /api/session.
func (s *Server) handleSelectSeason(w http.ResponseWriter, r *http.Request) {
	var req selectSeasonRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess := s.session(r)
	sess.Select(req.SeasonID)
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) sessionView(sess *service.Session) sessionResponse {
	out := sessionResponse{SessionID: sess.ID()}
	if active, ok := sess.ActiveSeason(); ok {
		v := types.FromSeason(active)
		out.ActiveSeason = &v
	}
	return out
}

// handleListParticipants handles GET /api/participants.
func (s *Server) handleListParticipants(w http.ResponseWriter, _ *http.Request) {
	participants := s.deps.Participants()
	if participants == nil {
		participants = []model.Participant{}
	}
	writeJSON(w, http.StatusOK, participants)
}

// handleAddParticipant handles POST /api/participants. A blank name is
// accepted and ignored.
func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req addParticipantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, added, err := s.session(r).AddParticipant(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	if !added {
		writeJSON(w, http.StatusOK, addParticipantResponse{})
		return
	}
	writeJSON(w, http.StatusAccepted, addParticipantResponse{Added: true, Participant: &p})
}

// handleSeasonQR handles GET /api/seasons/{seasonID}/qr.png.
func (s *Server) handleSeasonQR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "seasonID")
	if _, ok := model.FindSeason(s.deps.Seasons(), id); !ok {
		writeError(w, fmt.Errorf("%w: season %s", service.ErrNotFound, id))
		return
	}
	png, err := SeasonQR(s.publicURL, id, qrSize(r, s.qrSize))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
