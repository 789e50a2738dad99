package service

import (
	"time"

	"github.com/tolgaeren/swish/internal/domain/court"
)

// SessionOption applies a configuration option to a Session. Options are
// honored only at construction time.
type SessionOption func(*Session)

// WithCourtLayout overrides the court geometry.
func WithCourtLayout(l court.Layout) SessionOption {
	return func(s *Session) {
		s.layout = l
	}
}

// WithFrameRate sets the simulation frame rate in Hz.
func WithFrameRate(hz int) SessionOption {
	return func(s *Session) {
		if hz > 0 {
			s.frameRate = hz
		}
	}
}

// WithSnapshotRate sets the client broadcast rate in Hz. Snapshots are
// emitted every frameRate/snapshotRate frames.
func WithSnapshotRate(hz int) SessionOption {
	return func(s *Session) {
		if hz > 0 {
			s.snapshotRate = hz
		}
	}
}

// WithGravity sets the downward acceleration used by both the physics
// world and the trajectory solver.
func WithGravity(g float64) SessionOption {
	return func(s *Session) {
		if g > 0 {
			s.gravity = g
		}
	}
}

// WithPhysicsRate sets the fixed physics sub-step frequency in Hz.
func WithPhysicsRate(hz int) SessionOption {
	return func(s *Session) {
		if hz > 0 {
			s.stepHz = hz
		}
	}
}

// WithMaxSubsteps caps physics catch-up sub-steps per frame.
func WithMaxSubsteps(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxSubsteps = n
		}
	}
}

// WithMaxFrameDelta clamps the frame delta, in seconds, fed to the meter
// and the physics world.
func WithMaxFrameDelta(d float64) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.maxFrameDelta = d
		}
	}
}

// WithMeterFill sets the time for the power meter to charge from 0 to 1.
func WithMeterFill(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.meterFill = d
		}
	}
}

// WithPerfectZone sets the perfect release window within [0, 1].
func WithPerfectZone(start, end float64) SessionOption {
	return func(s *Session) {
		if start >= 0 && end <= 1 && start < end {
			s.zoneStart = start
			s.zoneEnd = end
		}
	}
}

// WithWeakMultipliers sets the power multiplier endpoints for
// under-charged releases.
func WithWeakMultipliers(min, max float64) SessionOption {
	return func(s *Session) {
		if min > 0 && max > min {
			s.weakMin = min
			s.weakMax = max
		}
	}
}

// WithStrongMultipliers sets the power multiplier endpoints for
// over-charged releases.
func WithStrongMultipliers(min, max float64) SessionOption {
	return func(s *Session) {
		if min > 0 && max > min {
			s.strongMin = min
			s.strongMax = max
		}
	}
}

// WithPlayerStart places the player at p instead of court center. The
// position is clamped to the court and its height is ignored.
func WithPlayerStart(p court.Vec3) SessionOption {
	return func(s *Session) {
		p.Y = 0
		s.player = s.layout.ClampToBounds(p)
	}
}

// WithSnapshotSink attaches the consumer for state frames.
func WithSnapshotSink(sink SnapshotSink) SessionOption {
	return func(s *Session) {
		if sink != nil {
			s.snapshots = sink
		}
	}
}

// WithEventSink attaches the consumer for feedback and scoring events.
func WithEventSink(sink EventSink) SessionOption {
	return func(s *Session) {
		if sink != nil {
			s.events = sink
		}
	}
}
