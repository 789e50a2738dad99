// Package shot orchestrates one player's shot attempts: the charge/release
// state machine, the power meter it reads, and the feedback it emits.
package shot

import (
	"github.com/tolgaeren/swish/internal/domain/court"
	"github.com/tolgaeren/swish/internal/domain/release"
	"github.com/tolgaeren/swish/internal/domain/trajectory"
)

// State is the controller's position in the shot lifecycle.
type State int

// Shot lifecycle states.
const (
	StateReady State = iota
	StateCharging
	StateInFlight
	StateScored
)

var stateNames = [...]string{
	StateReady:    "READY",
	StateCharging: "CHARGING",
	StateInFlight: "IN_FLIGHT",
	StateScored:   "SCORED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Attempt is one shot in flight: where it left from, where it was aimed,
// and what the solver launched it with.
type Attempt struct {
	Origin   court.Vec3
	Target   court.Vec3
	Velocity court.Vec3
	Spin     court.Vec3
	Quality  release.Quality
	Distance float64
}

// Feedback is the per-release event handed to the UI layer.
type Feedback struct {
	Label        release.Label
	PowerPercent float64
	Distance     float64
	Perfect      bool
	// ScreenShake asks the UI for a shake on badly overpowered releases.
	ScreenShake bool
	// Rejected marks a release refused by the trajectory solver; the
	// ball was not launched.
	Rejected bool
}

// BallLauncher applies a launch to the ball body.
type BallLauncher interface {
	Launch(velocity, spin court.Vec3)
}

// FeedbackSink consumes release feedback events.
type FeedbackSink interface {
	ReleaseFeedback(fb Feedback)
}

// Overpowered releases past this multiplier request a screen shake. The
// comparison is strict, so a stock full-charge release at exactly 1.30
// stays below it.
const shakeThreshold = 1.3

// Controller drives the shot state machine. It is confined to the
// session's frame goroutine; methods are not safe for concurrent use.
type Controller struct {
	state    State
	meter    *Meter
	eval     *release.Evaluator
	solver   *trajectory.Solver
	launcher BallLauncher
	feedback FeedbackSink
	attempt  *Attempt
}

// NewController wires a controller to its meter, evaluator, and solver,
// then applies options.
func NewController(meter *Meter, eval *release.Evaluator, solver *trajectory.Solver, opts ...Option) *Controller {
	c := &Controller{
		state:  StateReady,
		meter:  meter,
		eval:   eval,
		solver: solver,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// InFlight reports whether a shot attempt is currently in the air.
func (c *Controller) InFlight() bool { return c.state == StateInFlight || c.state == StateScored }

// Attempt returns the live attempt, or nil when no shot is in flight.
func (c *Controller) Attempt() *Attempt { return c.attempt }

// BeginCharge starts a new charge cycle. Valid only from READY; any other
// state is a silent no-op returning false.
func (c *Controller) BeginCharge() bool {
	if c.state != StateReady {
		return false
	}
	c.meter.Begin()
	c.state = StateCharging
	return true
}

// Release fires the charged shot from origin toward target. Valid only
// from CHARGING: a release while a shot is already in flight is a silent
// no-op, so at most one attempt is ever airborne. When the solver finds
// no valid trajectory the attempt is refused, the state returns to READY,
// and rejected feedback is emitted without touching the ball.
func (c *Controller) Release(origin, target court.Vec3) bool {
	if c.state != StateCharging {
		return false
	}

	progress := c.meter.Progress()
	c.meter.Stop()

	distance := court.HorizontalDistance(origin, target)
	quality := c.eval.Evaluate(progress, distance)

	sol, err := c.solver.Solve(origin, target, quality)
	if err != nil {
		c.state = StateReady
		c.emit(Feedback{
			Label:        quality.Label,
			PowerPercent: quality.PowerMultiplier * 100,
			Distance:     distance,
			Perfect:      quality.Perfect,
			Rejected:     true,
		})
		return false
	}

	c.attempt = &Attempt{
		Origin:   origin,
		Target:   target,
		Velocity: sol.Velocity,
		Spin:     sol.Spin,
		Quality:  quality,
		Distance: distance,
	}
	if c.launcher != nil {
		c.launcher.Launch(sol.Velocity, sol.Spin)
	}
	c.state = StateInFlight

	c.emit(Feedback{
		Label:        quality.Label,
		PowerPercent: quality.PowerMultiplier * 100,
		Distance:     distance,
		Perfect:      quality.Perfect,
		ScreenShake:  quality.PowerMultiplier > shakeThreshold,
	})
	return true
}

// MarkScored records that the in-flight attempt went in. Valid only from
// IN_FLIGHT.
func (c *Controller) MarkScored() bool {
	if c.state != StateInFlight {
		return false
	}
	c.state = StateScored
	return true
}

// Reset performs the full ball reset: the attempt ends, the meter stops,
// and the controller returns to READY from any state.
func (c *Controller) Reset() {
	c.attempt = nil
	c.meter.Stop()
	c.state = StateReady
}

func (c *Controller) emit(fb Feedback) {
	if c.feedback != nil {
		c.feedback.ReleaseFeedback(fb)
	}
}
