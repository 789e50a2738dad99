// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// HealthDependencies defines the interface for health reporting.
type HealthDependencies interface {
	Stats(ctx context.Context) map[string]any
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// healthResponse reports liveness plus the component view the service
// exposes.
type healthResponse struct {
	Status     string         `json:"status"`
	Components map[string]any `json:"components,omitempty"`
}

// HandleHealth handles GET /healthz requests. The service is healthy once
// started; before that it answers 503 so orchestration holds traffic.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := h.deps.Stats(r.Context())
	started, _ := stats["started"].(bool)
	if !started {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting", Components: stats})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Components: stats})
}
