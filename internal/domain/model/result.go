// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Result represents one resolved shot attempt submitted for recording.
// Fields mirror the JSON schema for /results.
type Result struct {
	ResultID   string    // unique id for idempotency
	PlayerID   string    // shooter identifier
	SessionID  string    // originating session, empty for external submissions
	Points     int       // 0 for a miss, 2 or 3 for a make
	Quality    string    // release label, e.g. "PERFECT"
	Distance   float64   // horizontal shot distance in meters
	ReleasedAt time.Time // release timestamp
}

// PlayerScore captures a player's accumulated points used for ranking.
type PlayerScore struct {
	PlayerID string
	Points   int64
}

// NewResultID returns a fresh result identifier.
func NewResultID() string {
	return uuid.NewString()
}
