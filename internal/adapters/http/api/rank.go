// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tolgaeren/swish/internal/adapters/repository"
)

// RankDependencies defines the interface for rank reads.
type RankDependencies interface {
	Rank(ctx context.Context, playerID string) (Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{player_id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	playerID := strings.TrimPrefix(r.URL.Path, "/rank/")
	if playerID == "" || strings.Contains(playerID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest, nil))
		return
	}
	entry, err := h.deps.Rank(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err, nil))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
