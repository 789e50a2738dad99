// Package release classifies shot releases: it maps the power-meter
// progress at the moment of release to a quality label, a power
// multiplier, and the launch angle the trajectory solver should use.
package release

import "math"

// Label grades a release from badly under-charged to badly over-charged.
type Label int

// Release quality labels, weakest to strongest.
const (
	WayTooWeak Label = iota
	TooWeak
	SlightlyWeak
	Perfect
	SlightlyStrong
	TooStrong
	WayTooStrong
)

var labelNames = [...]string{
	WayTooWeak:     "WAY_TOO_WEAK",
	TooWeak:        "TOO_WEAK",
	SlightlyWeak:   "SLIGHTLY_WEAK",
	Perfect:        "PERFECT",
	SlightlyStrong: "SLIGHTLY_STRONG",
	TooStrong:      "TOO_STRONG",
	WayTooStrong:   "WAY_TOO_STRONG",
}

// String returns the wire form of the label.
func (l Label) String() string {
	if l < 0 || int(l) >= len(labelNames) {
		return "UNKNOWN"
	}
	return labelNames[l]
}

// ParseLabel maps a wire form back to a Label.
func ParseLabel(s string) (Label, bool) {
	for i, name := range labelNames {
		if name == s {
			return Label(i), true
		}
	}
	return 0, false
}

// Zone is the sub-interval of meter progress that yields a perfect
// release.
type Zone struct {
	Start float64
	End   float64
}

// Contains reports whether progress falls inside the zone, inclusive on
// both ends.
func (z Zone) Contains(progress float64) bool {
	return progress >= z.Start && progress <= z.End
}

// Quality is the outcome of evaluating one release. It is immutable once
// returned.
type Quality struct {
	Perfect         bool
	PowerMultiplier float64
	Label           Label
	// OptimalAngle is the launch angle in radians the solver should use
	// for this release.
	OptimalAngle float64
}

// Angle and grading constants.
const (
	perfectAngle = math.Pi / 4
	baseAngle    = math.Pi / 3

	// Non-perfect launch angle grows with distance at this rate, capped.
	angleDistanceGain = 0.015
	angleGainCap      = 0.3

	// Grading thresholds on the normalized miss amount.
	wayOffThreshold = 0.66
	offThreshold    = 0.33
)

// Evaluator grades releases against a perfect zone. The zero value is not
// usable; construct with NewEvaluator.
type Evaluator struct {
	zone      Zone
	weakMin   float64
	weakMax   float64
	strongMin float64
	strongMax float64
}

// NewEvaluator builds an Evaluator with the stock tuning, then applies
// options.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		zone:      Zone{Start: 0.85, End: 0.95},
		weakMin:   0.70,
		weakMax:   0.95,
		strongMin: 1.05,
		strongMax: 1.30,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Zone returns the evaluator's perfect zone.
func (e *Evaluator) Zone() Zone { return e.zone }

// StrongMax returns the multiplier at a fully charged release.
func (e *Evaluator) StrongMax() float64 { return e.strongMax }

// Evaluate grades one release. progress is clamped to [0,1] rather than
// trusted; a negative distance is treated as zero. The call is pure and
// deterministic.
func (e *Evaluator) Evaluate(progress, distanceToTarget float64) Quality {
	progress = clamp01(progress)
	if distanceToTarget < 0 {
		distanceToTarget = 0
	}

	if e.zone.Contains(progress) {
		// Perfect releases launch at a fixed 45°; everything else uses
		// the distance-scaled angle below, so the launch angle jumps at
		// the zone boundary.
		return Quality{
			Perfect:         true,
			PowerMultiplier: 1.0,
			Label:           Perfect,
			OptimalAngle:    perfectAngle,
		}
	}

	angle := baseAngle + math.Min(angleGainCap, distanceToTarget*angleDistanceGain)

	if progress < e.zone.Start {
		mult := lerp(e.weakMin, e.weakMax, progress/e.zone.Start)
		weakness := (e.zone.Start - progress) / e.zone.Start
		return Quality{
			PowerMultiplier: mult,
			Label:           weakLabel(weakness),
			OptimalAngle:    angle,
		}
	}

	span := 1 - e.zone.End
	strength := (progress - e.zone.End) / span
	return Quality{
		PowerMultiplier: lerp(e.strongMin, e.strongMax, strength),
		Label:           strongLabel(strength),
		OptimalAngle:    angle,
	}
}

func weakLabel(weakness float64) Label {
	switch {
	case weakness > wayOffThreshold:
		return WayTooWeak
	case weakness > offThreshold:
		return TooWeak
	default:
		return SlightlyWeak
	}
}

func strongLabel(strength float64) Label {
	switch {
	case strength > wayOffThreshold:
		return WayTooStrong
	case strength > offThreshold:
		return TooStrong
	default:
		return SlightlyStrong
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
