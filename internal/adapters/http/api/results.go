// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tolgaeren/swish/internal/domain/model"
)

// ResultDependencies defines the interface for result recording.
type ResultDependencies interface {
	RecordResult(ctx context.Context, r model.Result) (accepted, duplicate bool)
}

// ResultsHandler handles shot result submissions.
type ResultsHandler struct {
	deps ResultDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandlePostResult handles POST /results requests. A new result is
// acknowledged with 202, a duplicate with 200, and recorder backpressure
// with 503.
func (h *ResultsHandler) HandlePostResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_result"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest, err))
		return
	}

	accepted, duplicate := h.deps.RecordResult(r.Context(), req.toModel())
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	if !accepted {
		writeError(w, http.StatusServiceUnavailable, "backpressure", wrap(op, ErrBackpressure, nil))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
