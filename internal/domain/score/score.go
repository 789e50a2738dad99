// Package score decides whether a flight constitutes a made basket. It is
// fed by the two rim sensor volumes and applies a latch so one continuous
// pass-through scores exactly once.
package score

import (
	"github.com/tolgaeren/swish/internal/domain/court"
)

// Sink consumes scored events.
type Sink interface {
	// Scored reports a made basket worth the given points.
	Scored(points int)
}

// Detector is the two-sensor scoring state machine. It is confined to the
// session's frame goroutine; methods are not safe for concurrent use.
type Detector struct {
	layout court.Layout
	sink   Sink

	inFlight   bool
	origin     court.Vec3
	aboveRim   bool
	belowRim   bool
	scoredThis bool
}

// NewDetector builds a detector over the stock layout, then applies
// options.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{layout: court.DefaultLayout()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BeginFlight arms the detector for a new attempt released from origin.
// All per-flight state, including the latch, starts cleared.
func (d *Detector) BeginFlight(origin court.Vec3) {
	d.inFlight = true
	d.origin = origin
	d.aboveRim = false
	d.belowRim = false
	d.scoredThis = false
}

// ResetFlight is the full ball reset: contact flags and the latch clear,
// and the detector disarms until the next flight.
func (d *Detector) ResetFlight() {
	d.inFlight = false
	d.aboveRim = false
	d.belowRim = false
	d.scoredThis = false
}

// OnAboveRimContact marks the ball's entry into the above-rim sensor.
// Idempotent; never scores by itself.
func (d *Detector) OnAboveRimContact() {
	if !d.inFlight {
		return
	}
	d.aboveRim = true
}

// OnBelowRimContact marks the ball's entry into the below-rim sensor and
// decides scoring: the ball must already have passed the above-rim sensor,
// must not have scored this flight, and must be moving downward. An
// upward pass through the bottom sensor can therefore never score.
func (d *Detector) OnBelowRimContact(verticalVelocity float64) {
	if !d.inFlight {
		return
	}
	d.belowRim = true
	if !d.aboveRim || d.scoredThis || verticalVelocity >= 0 {
		return
	}
	d.scoredThis = true
	if d.sink != nil {
		d.sink.Scored(d.points())
	}
}

// CheckProximity clears the contact flags when the ball has drifted away
// from the rim mid-flight, so a ball that arcs away and comes back can be
// detected legitimately. The latch survives: only ResetFlight clears it.
func (d *Detector) CheckProximity(ballPos court.Vec3) {
	if !d.inFlight || d.scoredThis {
		return
	}
	if court.HorizontalDistance(ballPos, d.layout.RimCenter) > d.layout.ProximityResetRadius {
		d.aboveRim = false
		d.belowRim = false
	}
}

func (d *Detector) points() int {
	if d.layout.IsThreePoint(d.origin) {
		return 3
	}
	return 2
}

// InFlight reports whether the detector is armed for a flight.
func (d *Detector) InFlight() bool { return d.inFlight }

// AboveRimContacted reports the above-rim contact flag.
func (d *Detector) AboveRimContacted() bool { return d.aboveRim }

// BelowRimContacted reports the below-rim contact flag.
func (d *Detector) BelowRimContacted() bool { return d.belowRim }

// ScoredThisFlight reports whether the latch is set.
func (d *Detector) ScoredThisFlight() bool { return d.scoredThis }
