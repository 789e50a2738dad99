// Package service runs the game. It owns the live player sessions, the
// recorder pipeline behind them, and the leaderboard they feed, and it
// implements the dependencies of both the HTTP API and the play
// transport.
package service

import (
	"context"

	"github.com/tolgaeren/swish/internal/domain/court"
	"github.com/tolgaeren/swish/internal/domain/model"
)

// Snapshot is the per-tick state frame broadcast to play clients. It is
// msgpack-encoded on the wire; the json tags serve debug output.
type Snapshot struct {
	Tick         uint64     `json:"tick" msgpack:"tick"`
	SessionID    string     `json:"session_id" msgpack:"session_id"`
	PlayerID     string     `json:"player_id" msgpack:"player_id"`
	State        string     `json:"state" msgpack:"state"`
	Meter        float64    `json:"meter" msgpack:"meter"`
	Player       court.Vec3 `json:"player" msgpack:"player"`
	Ball         court.Vec3 `json:"ball" msgpack:"ball"`
	BallVelocity court.Vec3 `json:"ball_velocity" msgpack:"ball_velocity"`
	Holding      bool       `json:"holding" msgpack:"holding"`
	Score        int64      `json:"score" msgpack:"score"`
	Attempts     int        `json:"attempts" msgpack:"attempts"`
	Baskets      int        `json:"baskets" msgpack:"baskets"`
}

// EventKind tags the out-of-band frames a session emits between
// snapshots.
type EventKind string

// Session event kinds.
const (
	EventFeedback EventKind = "feedback"
	EventRejected EventKind = "rejected"
	EventScored   EventKind = "scored"
)

// Event is a release-feedback or scoring notification. Events ride the
// same connection as snapshots, as JSON text frames.
type Event struct {
	Kind EventKind `json:"kind"`

	// Release feedback.
	Label        string  `json:"label,omitempty"`
	PowerPercent float64 `json:"power_percent,omitempty"`
	Distance     float64 `json:"distance,omitempty"`
	Perfect      bool    `json:"perfect,omitempty"`
	ScreenShake  bool    `json:"screen_shake,omitempty"`

	// Scoring.
	Points int   `json:"points,omitempty"`
	Total  int64 `json:"total,omitempty"`
}

// SnapshotSink consumes state frames. The session frame loop calls it
// inline, so implementations must not block.
type SnapshotSink interface {
	SessionSnapshot(snap Snapshot)
}

// EventSink consumes session events under the same non-blocking rule as
// SnapshotSink.
type EventSink interface {
	SessionEvent(ev Event)
}

// Recorder accepts finished shot results for asynchronous recording.
type Recorder interface {
	RecordResult(ctx context.Context, r model.Result) (accepted, duplicate bool)
}
