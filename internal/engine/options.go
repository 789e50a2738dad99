package engine

import (
	"github.com/tolgaeren/swish/internal/domain/court"
)

// Option configures the world.
type Option func(*World)

// WithLayout overrides the court layout the world simulates against.
func WithLayout(layout court.Layout) Option {
	return func(w *World) {
		w.layout = layout
	}
}

// WithGravity sets the downward acceleration in m/s^2.
func WithGravity(g float64) Option {
	return func(w *World) {
		if g > 0 {
			w.gravity = g
		}
	}
}

// WithStepHz sets the fixed sub-step frequency.
func WithStepHz(hz float64) Option {
	return func(w *World) {
		if hz > 0 {
			w.fixedStep = 1.0 / hz
		}
	}
}

// WithMaxSubsteps caps the sub-steps executed per Step call.
func WithMaxSubsteps(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.maxSubsteps = n
		}
	}
}

// WithMaxFrameDelta caps the frame delta, in seconds, accepted by Step.
func WithMaxFrameDelta(d float64) Option {
	return func(w *World) {
		if d > 0 {
			w.maxFrameDelta = d
		}
	}
}

// WithContactListener registers the consumer of sensor contacts.
func WithContactListener(l ContactListener) Option {
	return func(w *World) {
		if l != nil {
			w.listener = l
		}
	}
}

// WithBallRadius overrides the ball radius in meters.
func WithBallRadius(r float64) Option {
	return func(w *World) {
		if r > 0 {
			w.ball.Radius = r
		}
	}
}
