// Package trajectory computes the launch velocity that carries the ball
// from a release point through the hoop, by inverting the drag-free
// projectile-range equation at a given launch angle.
package trajectory

import (
	"math"

	"github.com/tolgaeren/swish/internal/domain/court"
	"github.com/tolgaeren/swish/internal/domain/release"
)

// Solution is the launch state for one shot attempt.
type Solution struct {
	// Velocity is the full 3D launch velocity after applying the power
	// multiplier.
	Velocity court.Vec3
	// Spin is the angular velocity applied at launch: pure backspin
	// about the horizontal axis perpendicular to travel.
	Spin court.Vec3
	// IdealSpeed is the closed-form speed that passes exactly through
	// the target at the effective angle.
	IdealSpeed float64
	// ActualSpeed is IdealSpeed scaled by the release's power
	// multiplier.
	ActualSpeed float64
	// Angle is the effective launch angle in radians, after any upward
	// clamp.
	Angle float64
}

// Solver-level constants.
const (
	defaultGravity = 9.81

	// The launch angle is stepped upward by angleClampStep while the
	// range equation has no solution, up to maxLaunchAngle.
	maxLaunchAngle = 89 * math.Pi / 180
	angleClampStep = math.Pi / 90

	// d·tan(angle) − Δh must clear this margin or the speed under the
	// square root blows up.
	minRangeClearance = 0.1

	// Below this horizontal distance there is no defined travel
	// direction.
	minHorizontalDistance = 1e-6

	perfectSpin = 1.5
	normalSpin  = 1.0
)

// Solver inverts projectile motion under a fixed gravity.
type Solver struct {
	gravity float64
}

// NewSolver builds a Solver with standard gravity, then applies options.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{gravity: defaultGravity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Gravity returns the solver's downward acceleration.
func (s *Solver) Gravity() float64 { return s.gravity }

// Solve computes the launch velocity and spin that carry the ball from
// origin through target for the given release quality. When the geometry
// admits no trajectory at the release's angle, the angle is clamped
// upward; if no angle below the vertical limit works, ErrNoTrajectory is
// returned and no component of the Solution is usable. The velocity never
// carries NaN or Inf.
func (s *Solver) Solve(origin, target court.Vec3, q release.Quality) (Solution, error) {
	offset := target.Sub(origin)
	d := offset.Horizontal().Length()
	dh := offset.Y

	if d < minHorizontalDistance {
		return Solution{}, ErrNoTrajectory
	}

	angle, ok := clampAngle(d, dh, q.OptimalAngle)
	if !ok {
		return Solution{}, ErrNoTrajectory
	}

	cos := math.Cos(angle)
	clearance := d*math.Tan(angle) - dh
	ideal := math.Sqrt(s.gravity * d * d / (2 * cos * cos * clearance))
	actual := ideal * q.PowerMultiplier

	dir := offset.Horizontal().Normalize()
	velocity := dir.Scale(actual * cos)
	velocity.Y = actual * math.Sin(angle)

	spin := perfectSpin
	if !q.Perfect {
		spin = normalSpin
	}

	return Solution{
		Velocity:    velocity,
		Spin:        backspinAxis(dir).Scale(spin),
		IdealSpeed:  ideal,
		ActualSpeed: actual,
		Angle:       angle,
	}, nil
}

// clampAngle returns the smallest angle >= want (stepped) whose range
// clearance is positive, or false when even the near-vertical limit
// fails.
func clampAngle(d, dh, want float64) (float64, bool) {
	if want <= 0 || want >= maxLaunchAngle {
		return 0, false
	}
	for a := want; a < maxLaunchAngle; a += angleClampStep {
		if d*math.Tan(a)-dh > minRangeClearance {
			return a, true
		}
	}
	return 0, false
}

// backspinAxis returns the unit horizontal axis perpendicular to the
// travel direction, oriented so positive magnitudes spin the ball
// backward.
func backspinAxis(dir court.Vec3) court.Vec3 {
	up := court.Vec3{Y: 1}
	return dir.Cross(up).Normalize()
}
