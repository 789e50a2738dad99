// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults, Load(ctx) to layer
//   file and environment overrides on top.
// - All loading functions accept context.Context as the first parameter.
// - Validation failures wrap this package's sentinel errors.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShutdownTimeoutMS bounds graceful shutdown of the HTTP server and
	// the recorder pool.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// FrameRateHz drives the per-session simulation loop.
	FrameRateHz int `koanf:"frame_rate_hz"`

	// SnapshotRateHz drives state broadcasts to play clients; decoupled
	// from the simulation rate.
	SnapshotRateHz int `koanf:"snapshot_rate_hz"`

	// PhysicsStepHz sets the fixed physics sub-step frequency.
	PhysicsStepHz int `koanf:"physics_step_hz"`

	// MaxSubsteps caps physics catch-up sub-steps per frame.
	MaxSubsteps int `koanf:"max_substeps"`

	// MaxFrameDeltaMS clamps the frame delta fed to the physics step.
	MaxFrameDeltaMS int `koanf:"max_frame_delta_ms"`

	// Gravity is the downward acceleration in m/s².
	Gravity float64 `koanf:"gravity"`

	// MeterFillMS is the time for the power meter to charge from 0 to 1.
	MeterFillMS int `koanf:"meter_fill_ms"`

	// PerfectZoneStart and PerfectZoneEnd bound the perfect release
	// window within [0,1].
	PerfectZoneStart float64 `koanf:"perfect_zone_start"`
	PerfectZoneEnd   float64 `koanf:"perfect_zone_end"`

	// Weak/Strong multiplier endpoints for under- and over-charged
	// releases.
	WeakMinMultiplier   float64 `koanf:"weak_min_multiplier"`
	WeakMaxMultiplier   float64 `koanf:"weak_max_multiplier"`
	StrongMinMultiplier float64 `koanf:"strong_min_multiplier"`
	StrongMaxMultiplier float64 `koanf:"strong_max_multiplier"`

	// RimHeight and RimOffsetZ place the rim relative to court center.
	RimHeight  float64 `koanf:"rim_height"`
	RimOffsetZ float64 `koanf:"rim_offset_z"`

	// ThreePointRadius is the horizontal distance from court center
	// beyond which a make is worth three points.
	ThreePointRadius float64 `koanf:"three_point_radius"`

	// ProximityResetRadius is the horizontal ball-rim distance that
	// clears the score detector's contact flags mid-flight.
	ProximityResetRadius float64 `koanf:"proximity_reset_radius"`

	// ResultQueueSize bounds the in-memory recorder queue.
	ResultQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recorder workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the result deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SnapshotIntervalMS sets how often the leaderboard snapshot is
	// rebuilt.
	SnapshotIntervalMS int `koanf:"snapshot_interval_ms"`

	// WSSendBuffer sets the per-connection outbound frame buffer.
	WSSendBuffer int `koanf:"ws_send_buffer"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		ShutdownTimeoutMS:    10_000,
		FrameRateHz:          60,
		SnapshotRateHz:       30,
		PhysicsStepHz:        60,
		MaxSubsteps:          3,
		MaxFrameDeltaMS:      100,
		Gravity:              9.81,
		MeterFillMS:          1200,
		PerfectZoneStart:     0.85,
		PerfectZoneEnd:       0.95,
		WeakMinMultiplier:    0.70,
		WeakMaxMultiplier:    0.95,
		StrongMinMultiplier:  1.05,
		StrongMaxMultiplier:  1.30,
		RimHeight:            3.05,
		RimOffsetZ:           -7.24,
		ThreePointRadius:     6.75,
		ProximityResetRadius: 2.0,
		ResultQueueSize:      4096,
		WorkerCount:          runtime.NumCPU(),
		DedupeSize:           65_536,
		MaxLeaderboardLimit:  100,
		SnapshotIntervalMS:   500,
		WSSendBuffer:         64,
	}
}
