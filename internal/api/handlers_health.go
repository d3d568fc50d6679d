package api

import (
	"net/http"

	"github.com/recoship/ranking/internal/orchestrator"
)

type healthHandlers struct {
	orch *orchestrator.Orchestrator
}

// handleLive serves GET /api/v1/health/live: process-is-up, no collaborator
// checks.
func (h *healthHandlers) handleLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "live"})
}

// handleReady serves GET /api/v1/health/ready: every collaborator is
// checked; a degraded collaborator yields a 200 with its status reported
// rather than a hard failure, since the service can still serve from cache.
func (h *healthHandlers) handleReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	report := h.orch.CheckHealthSync(r.Context())
	rw.Success(report)
}

// handleHealth serves GET /api/v1/health/: an alias for handleReady kept for
// clients that don't distinguish liveness from readiness.
func (h *healthHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.handleReady(w, r)
}
