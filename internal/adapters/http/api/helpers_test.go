package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/reto/internal/adapters/http/api"
	"github.com/okian/reto/internal/adapters/repository"
	service "github.com/okian/reto/internal/app"
	"github.com/okian/reto/internal/domain/model"
	"github.com/okian/reto/internal/domain/types"
	"github.com/okian/reto/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

const (
	alice = "6f1c1f9e-7a4b-4c1e-9d1a-000000000001"
	bob   = "6f1c1f9e-7a4b-4c1e-9d1a-000000000002"
)

type harness struct {
	svc    *service.Service
	router chi.Router
}

func newHarness(t *testing.T, opts ...service.Option) *harness {
	t.Helper()
	opts = append([]service.Option{
		service.WithDefaultRoster([]model.Participant{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}}),
		service.WithBoostShortcuts([]types.BoostShortcut{{ParticipantID: "a", Points: 5, Label: "+5 A"}}),
	}, opts...)
	svc := service.New(repository.NewMemoryStore(), opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.WaitReady(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	h := &harness{svc: svc}
	h.router = api.NewServer(svc, api.WithPublicURL("https://reto.example/")).Routes(context.Background())
	h.eventually(t, func() bool { return len(svc.Participants()) == 3 })
	return h
}

// do sends a request as the session identified by sid; an empty sid sends no cookie.
func (h *harness) do(sid, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: api.SessionCookie, Value: sid})
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition never held")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// createSeason posts a season and waits for it to be stored.
func (h *harness) createSeason(t *testing.T, sid, body string) types.Season {
	t.Helper()
	w := h.do(sid, http.MethodPost, "/api/seasons", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("create season: %d %s", w.Code, w.Body.String())
	}
	var s types.Season
	decode(t, w, &s)
	h.eventually(t, func() bool { _, ok := model.FindSeason(h.svc.Seasons(), s.ID); return ok })
	return s
}

// points returns the day points of participant on date as the session sees them.
func (h *harness) points(t *testing.T, sid, participant, date string) int {
	t.Helper()
	w := h.do(sid, http.MethodGet, "/api/points?date="+date, "")
	var day types.Day
	decode(t, w, &day)
	for _, p := range day.Participants {
		if p.ParticipantID == participant {
			return p.Points
		}
	}
	return -1
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	decode(t, w, &e)
	return e
}
