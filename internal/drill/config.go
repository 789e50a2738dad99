package drill

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the accuracy drill.
type Config struct {
	BaseURL     string        // Base URL of the service; empty runs the sweep offline
	Shots       int           // Cap on total shots across the sweep grid
	Step        float64       // Meter progress step between release targets
	Distances   []float64     // Shot distances from the rim in meters
	PresetsFile string        // YAML file of named difficulty presets
	Preset      string        // Preset name to apply from PresetsFile
	TopN        int           // Number of top entries to fetch from the leaderboard
	Workers     int           // Number of concurrent sweep workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for shot outcomes
	LogFile     string        // Log file for drill output
	Verbose     bool          // Enable verbose logging
}

// Outcome is one resolved shot of the sweep.
type Outcome struct {
	ResultID     string  `json:"result_id"`
	PlayerID     string  `json:"player_id"`
	SessionID    string  `json:"session_id"`
	Distance     float64 `json:"distance"`
	Target       float64 `json:"target_progress"`
	Progress     float64 `json:"release_progress"`
	Label        string  `json:"label"`
	PowerPercent float64 `json:"power_percent"`
	Rejected     bool    `json:"rejected"`
	Made         bool    `json:"made"`
	Points       int     `json:"points"`
	ReleasedAt   string  `json:"released_at"`
}

// Entry mirrors a leaderboard entry on the wire.
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Points   int64  `json:"points"`
}

// AckResponse mirrors the response from result submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds drill statistics.
type Stats struct {
	ShotsPlanned       int
	ShotsTaken         int
	ShotsMade          int
	ShotsRejected      int
	ResultsSubmitted   int
	ResultsAccepted    int
	ResultsDuplicate   int
	ResultsFailed      int
	RanksRetrieved     int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// ParseDistances parses a comma-separated list of shot distances in
// meters. Whitespace around entries is ignored; every distance must be
// positive.
func ParseDistances(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	distances := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid distance %q: %w", part, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("distance must be positive, got %v", d)
		}
		distances = append(distances, d)
	}
	if len(distances) == 0 {
		return nil, fmt.Errorf("no distances given")
	}
	return distances, nil
}
