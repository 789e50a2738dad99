package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SWISH_CONFIG is set
//  3. env (prefix SWISH_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("SWISH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SWISH_ADDR, SWISH_QUEUE_SIZE, ...
	// Map env keys like SWISH_FRAME_RATE_HZ -> frame_rate_hz (flat keys,
	// underscores preserved to match the koanf tags on the struct).
	envProvider := env.Provider("SWISH_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "swish_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.FrameRateHz <= 0:
		return fmt.Errorf("%w: frame_rate_hz must be positive", ErrInvalidConfig)
	case c.SnapshotRateHz <= 0:
		return fmt.Errorf("%w: snapshot_rate_hz must be positive", ErrInvalidConfig)
	case c.PhysicsStepHz <= 0:
		return fmt.Errorf("%w: physics_step_hz must be positive", ErrInvalidConfig)
	case c.MaxSubsteps < 1:
		return fmt.Errorf("%w: max_substeps must be at least 1", ErrInvalidConfig)
	case c.MaxFrameDeltaMS <= 0:
		return fmt.Errorf("%w: max_frame_delta_ms must be positive", ErrInvalidConfig)
	case c.Gravity <= 0:
		return fmt.Errorf("%w: gravity must be positive", ErrInvalidConfig)
	case c.MeterFillMS <= 0:
		return fmt.Errorf("%w: meter_fill_ms must be positive", ErrInvalidConfig)
	case c.PerfectZoneStart <= 0 || c.PerfectZoneEnd >= 1 || c.PerfectZoneStart >= c.PerfectZoneEnd:
		return fmt.Errorf("%w: perfect zone must satisfy 0 < start < end < 1, got [%v, %v]",
			ErrInvalidConfig, c.PerfectZoneStart, c.PerfectZoneEnd)
	case c.WeakMinMultiplier <= 0 || c.WeakMinMultiplier > c.WeakMaxMultiplier:
		return fmt.Errorf("%w: weak multipliers must satisfy 0 < min <= max", ErrInvalidConfig)
	case c.StrongMinMultiplier <= 0 || c.StrongMinMultiplier > c.StrongMaxMultiplier:
		return fmt.Errorf("%w: strong multipliers must satisfy 0 < min <= max", ErrInvalidConfig)
	case c.RimHeight <= 0:
		return fmt.Errorf("%w: rim_height must be positive", ErrInvalidConfig)
	case c.ThreePointRadius <= 0:
		return fmt.Errorf("%w: three_point_radius must be positive", ErrInvalidConfig)
	case c.ProximityResetRadius <= 0:
		return fmt.Errorf("%w: proximity_reset_radius must be positive", ErrInvalidConfig)
	case c.ResultQueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.SnapshotIntervalMS <= 0:
		return fmt.Errorf("%w: snapshot_interval_ms must be positive", ErrInvalidConfig)
	case c.WSSendBuffer <= 0:
		return fmt.Errorf("%w: ws_send_buffer must be positive", ErrInvalidConfig)
	}
	return nil
}
