package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/reto/pkg/metrics"
)

// Readiness reports whether the scoreboard has loaded its first snapshots.
type Readiness interface {
	Ready() bool
}

// HealthHandler handles health and readiness checks.
type HealthHandler struct {
	readiness Readiness
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(readiness Readiness) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

// HandleHealth handles GET /healthz requests with the Prometheus metrics.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// HandleReady handles GET /readyz requests.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if h.readiness == nil || !h.readiness.Ready() {
		writeError(w, ErrNotReady)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ready"})
}
