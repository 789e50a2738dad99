// Package engine runs the deterministic rigid body simulation for one
// court: gravity integration over fixed sub-steps, floor and rim-edge
// bounces, and the two rim sensor volumes that feed scoring.
package engine

import (
	"math"

	"github.com/tolgaeren/swish/internal/domain/court"
)

// ContactKind identifies which sensor volume the ball entered.
type ContactKind int

const (
	ContactAboveRim ContactKind = iota
	ContactBelowRim
)

func (k ContactKind) String() string {
	switch k {
	case ContactAboveRim:
		return "above_rim"
	case ContactBelowRim:
		return "below_rim"
	default:
		return "unknown"
	}
}

// Contact describes the ball entering a sensor volume. Dispatched
// synchronously inside the sub-step that produced it.
type Contact struct {
	Kind     ContactKind
	Position court.Vec3
	Velocity court.Vec3
}

// ContactListener receives sensor contacts. Callbacks run on the
// goroutine driving Step, before the next sub-step begins.
type ContactListener interface {
	OnContact(c Contact)
}

// Body is the simulated ball state.
type Body struct {
	Position        court.Vec3
	Velocity        court.Vec3
	AngularVelocity court.Vec3
	Radius          float64
}

const (
	defaultGravity       = 9.81
	defaultStepHz        = 60.0
	defaultMaxSubsteps   = 3
	defaultMaxFrameDelta = 0.1

	floorRestitution = 0.62
	floorFriction    = 0.96
	rimRestitution   = 0.68
	spinDamping      = 0.80
	settleSpeed      = 0.5

	// rimWireRadius is the collision radius of the rim ring against the
	// ball center. The ball body radius is deliberately left out: a
	// well-aimed arc arrives at the rim plane at a shallow angle, and
	// adding the ball radius would clip shots that pass through the
	// middle of the opening.
	rimWireRadius = 0.05
)

// World owns the ball body and advances it in fixed sub-steps. It is not
// goroutine-safe: confine it to the goroutine that calls Step.
type World struct {
	layout        court.Layout
	gravity       float64
	fixedStep     float64
	maxSubsteps   int
	maxFrameDelta float64
	listener      ContactListener

	ball        Body
	held        bool
	accumulator float64

	// Sensor occupancy, so an entry fires once and re-arms on exit.
	inAbove bool
	inBelow bool
}

// NewWorld builds a world over the stock layout, then applies options.
// The ball starts held at the origin.
func NewWorld(opts ...Option) *World {
	w := &World{
		layout:        court.DefaultLayout(),
		gravity:       defaultGravity,
		fixedStep:     1.0 / defaultStepHz,
		maxSubsteps:   defaultMaxSubsteps,
		maxFrameDelta: defaultMaxFrameDelta,
		ball:          Body{Radius: court.BallRadius},
		held:          true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Step advances the simulation by frameDelta seconds and returns the
// number of sub-steps executed. The delta is clamped to the frame cap,
// accumulated, and consumed in fixed sub-steps; at most maxSubsteps run
// per call. Contact events dispatch inside their own sub-step, so a
// listener always observes the ball state that produced the contact.
func (w *World) Step(frameDelta float64) int {
	if frameDelta < 0 {
		frameDelta = 0
	}
	if frameDelta > w.maxFrameDelta {
		frameDelta = w.maxFrameDelta
	}
	w.accumulator += frameDelta
	// Bound the backlog so a stall cannot owe more than one frame cap.
	if w.accumulator > w.maxFrameDelta {
		w.accumulator = w.maxFrameDelta
	}

	steps := 0
	for w.accumulator >= w.fixedStep && steps < w.maxSubsteps {
		w.substep(w.fixedStep)
		w.accumulator -= w.fixedStep
		steps++
	}
	return steps
}

func (w *World) substep(dt float64) {
	if w.held {
		return
	}

	prev := w.ball.Position
	v0 := w.ball.Velocity
	w.ball.Velocity.Y -= w.gravity * dt
	// Average-velocity update. Exact under constant acceleration, so a
	// solved arc lands where the closed form says it will.
	w.ball.Position = prev.Add(v0.Add(w.ball.Velocity).Scale(0.5 * dt))

	w.collideFloor()
	w.collideRimEdge()
	w.checkSensors(prev)
}

// collideFloor resolves ball/floor penetration with restitution, damps
// horizontal speed and spin, and kills slow vertical bounces.
func (w *World) collideFloor() {
	if w.ball.Position.Y-w.ball.Radius > w.layout.FloorY || w.ball.Velocity.Y >= 0 {
		return
	}
	w.ball.Position.Y = w.layout.FloorY + w.ball.Radius
	w.ball.Velocity.Y = -w.ball.Velocity.Y * floorRestitution
	w.ball.Velocity.X *= floorFriction
	w.ball.Velocity.Z *= floorFriction
	w.ball.AngularVelocity = w.ball.AngularVelocity.Scale(spinDamping)
	if w.ball.Velocity.Y < settleSpeed {
		w.ball.Velocity.Y = 0
	}
}

// collideRimEdge treats the rim as a thin wire ring in the plane of the
// rim height and bounces the ball center off its nearest point. A ball
// arcing through the middle of the opening never touches it.
func (w *World) collideRimEdge() {
	center := w.layout.RimCenter
	offset := w.ball.Position.Sub(center).Horizontal()
	if offset.Length() < 1e-9 {
		return
	}
	ringPoint := center.Add(offset.Normalize().Scale(w.layout.RimRadius))

	normal := w.ball.Position.Sub(ringPoint)
	dist := normal.Length()
	if dist >= rimWireRadius || dist < 1e-9 {
		return
	}

	n := normal.Normalize()
	w.ball.Position = w.ball.Position.Add(n.Scale(rimWireRadius - dist))

	// Reflect only an approaching velocity.
	approach := w.ball.Velocity.Dot(n)
	if approach < 0 {
		w.ball.Velocity = w.ball.Velocity.Sub(n.Scale(2 * approach)).Scale(rimRestitution)
		w.ball.AngularVelocity = w.ball.AngularVelocity.Scale(spinDamping)
	}
}

// checkSensors fires a contact for each sensor volume the ball entered
// during this sub-step. An entry is detected either by the post-step
// position overlapping the volume or by the travel segment piercing its
// center plane, so fast shots cannot step over a sensor between samples.
func (w *World) checkSensors(prev court.Vec3) {
	w.inAbove = w.senseVolume(prev, w.layout.AboveTriggerCenter(), w.inAbove, ContactAboveRim)
	w.inBelow = w.senseVolume(prev, w.layout.BelowTriggerCenter(), w.inBelow, ContactBelowRim)
}

// senseVolume runs one sensor's entry detection and returns its new
// occupancy.
func (w *World) senseVolume(prev, c court.Vec3, wasIn bool, kind ContactKind) bool {
	in := w.overlapsSensor(w.ball.Position, c)
	if !wasIn && (in || w.crossedPlane(prev, c)) {
		w.dispatch(kind)
	}
	return in
}

// overlapsSensor reports whether the ball touches the sensor volume at
// c. The slab is grown by the ball radius so shallow arcs that skim the
// volume still register, but the radial bound stays at the rim radius:
// only a ball whose center passes inside the ring counts.
func (w *World) overlapsSensor(p, c court.Vec3) bool {
	return math.Abs(p.Y-c.Y) <= court.TriggerHalfHeight+w.ball.Radius &&
		court.HorizontalDistance(p, c) <= w.layout.RimRadius
}

// crossedPlane reports whether the segment from prev to the current
// ball position pierced the sensor's center plane within the rim
// radius. Catches a ball moving fast enough to clear the whole slab in
// one sub-step.
func (w *World) crossedPlane(prev, c court.Vec3) bool {
	cur := w.ball.Position
	d0 := prev.Y - c.Y
	d1 := cur.Y - c.Y
	if (d0 > 0) == (d1 > 0) || d0 == d1 {
		return false
	}
	t := d0 / (d0 - d1)
	at := prev.Add(cur.Sub(prev).Scale(t))
	return court.HorizontalDistance(at, c) <= w.layout.RimRadius
}

func (w *World) dispatch(kind ContactKind) {
	if w.listener == nil {
		return
	}
	w.listener.OnContact(Contact{
		Kind:     kind,
		Position: w.ball.Position,
		Velocity: w.ball.Velocity,
	})
}

// PlaceBall teleports the ball and zeroes its motion. Sensor occupancy
// is synced to the new position without dispatching, so a teleport never
// reads as an entry.
func (w *World) PlaceBall(p court.Vec3) {
	w.ball.Position = p
	w.ball.Velocity = court.Vec3{}
	w.ball.AngularVelocity = court.Vec3{}
	w.inAbove = w.overlapsSensor(p, w.layout.AboveTriggerCenter())
	w.inBelow = w.overlapsSensor(p, w.layout.BelowTriggerCenter())
}

// SetBallHeld toggles simulation of the ball. While held the ball is
// kinematic: sub-steps leave it untouched and no sensor fires.
func (w *World) SetBallHeld(held bool) {
	w.held = held
}

// BallHeld reports whether the ball is currently held.
func (w *World) BallHeld() bool { return w.held }

// BallPosition returns the ball center.
func (w *World) BallPosition() court.Vec3 { return w.ball.Position }

// BallVelocity returns the ball's linear velocity.
func (w *World) BallVelocity() court.Vec3 { return w.ball.Velocity }

// BallAngularVelocity returns the ball's spin.
func (w *World) BallAngularVelocity() court.Vec3 { return w.ball.AngularVelocity }

// SetBallVelocity overwrites the ball's linear velocity.
func (w *World) SetBallVelocity(v court.Vec3) {
	w.ball.Velocity = v
}

// SetBallAngularVelocity overwrites the ball's spin.
func (w *World) SetBallAngularVelocity(v court.Vec3) {
	w.ball.AngularVelocity = v
}
