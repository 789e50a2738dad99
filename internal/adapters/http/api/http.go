// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tolgaeren/swish/internal/domain/model"
	"github.com/tolgaeren/swish/internal/domain/release"
	"github.com/tolgaeren/swish/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// RecordResult accepts a shot result for async recording. The first
	// return reports acceptance (false on backpressure), the second
	// whether the result ID was already seen.
	RecordResult(ctx context.Context, r model.Result) (accepted, duplicate bool)

	// Read operations expose leaderboard data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, playerID string) (Entry, error)

	// Stats exposes service statistics for monitoring.
	Stats(ctx context.Context) map[string]any
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	resultsHandler     *ResultsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	metricsHandler     *MetricsHandler
	playHandler        http.Handler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithPlayHandler attaches the WebSocket play endpoint. Registration of
// /play is skipped when no handler is set.
func WithPlayHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.playHandler = h
	}
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// leaderboard query size.
func NewServer(deps Dependencies, maxLimit int, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		resultsHandler:     NewResultsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		metricsHandler:     NewMetricsHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandlePostResult, "results"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/metrics", s.metricsHandler.HandleMetrics)
	if s.playHandler != nil {
		mux.Handle("/play", s.playHandler)
	}
}

// resultRequest mirrors the JSON schema for POST /results.
type resultRequest struct {
	ResultID   string  `json:"result_id"`
	PlayerID   string  `json:"player_id"`
	SessionID  string  `json:"session_id,omitempty"`
	Points     int     `json:"points"`
	Quality    string  `json:"quality"`
	Distance   float64 `json:"distance"`
	ReleasedAt string  `json:"released_at"`
}

func (r resultRequest) validate() error {
	switch {
	case strings.TrimSpace(r.ResultID) == "":
		return errors.New("missing result_id")
	case strings.TrimSpace(r.PlayerID) == "":
		return errors.New("missing player_id")
	case strings.TrimSpace(r.Quality) == "":
		return errors.New("missing quality")
	case strings.TrimSpace(r.ReleasedAt) == "":
		return errors.New("missing released_at")
	}
	if _, ok := release.ParseLabel(r.Quality); !ok {
		return errors.New("unknown quality label")
	}
	if r.Points != 0 && r.Points != 2 && r.Points != 3 {
		return errors.New("points must be 0, 2, or 3")
	}
	if r.Distance < 0 {
		return errors.New("distance must not be negative")
	}
	if _, err := time.Parse(time.RFC3339, r.ReleasedAt); err != nil {
		return errors.New("invalid released_at; must be RFC3339")
	}
	return nil
}

// toModel converts a validated request into the domain result.
func (r resultRequest) toModel() model.Result {
	ts, _ := time.Parse(time.RFC3339, r.ReleasedAt)
	return model.Result{
		ResultID:   r.ResultID,
		PlayerID:   r.PlayerID,
		SessionID:  r.SessionID,
		Points:     r.Points,
		Quality:    r.Quality,
		Distance:   r.Distance,
		ReleasedAt: ts,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
