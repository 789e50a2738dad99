// Package court models the court geometry the simulation plays on:
// vectors, rim placement, trigger-volume frames, bounds, and the
// three-point rule.
package court

import "math"

// Vec3 is a position or direction in court space. Y is up; the court
// center sits at the origin with the length axis along Z.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// LengthSq returns the squared length of v.
func (v Vec3) LengthSq() float64 { return v.Dot(v) }

// Length returns the length of v.
func (v Vec3) Length() float64 { return math.Sqrt(v.LengthSq()) }

// Normalize returns v scaled to unit length. A near-zero vector returns
// the zero vector rather than NaN components.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Horizontal returns v with its vertical component dropped.
func (v Vec3) Horizontal() Vec3 { return Vec3{X: v.X, Z: v.Z} }

// HorizontalDistance returns the distance between a and b on the court
// plane, ignoring height.
func HorizontalDistance(a, b Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Stock geometry. Court extents follow a regulation full court; the rim
// sits forward of center so the three-point circle stays on the playable
// side.
const (
	HalfLength = 14.325
	HalfWidth  = 7.62
	FloorY     = 0.0

	RimHeight = 3.05
	RimRadius = 0.2286
	RimZ      = -7.24

	BallRadius  = 0.12
	ChestHeight = 1.5

	ThreePointRadius     = 6.75
	ProximityResetRadius = 2.0
	PickupRadius         = 1.0

	// Sensor volumes relative to the rim plane: squat cylinders of
	// RimRadius centered this far above and below it.
	AboveTriggerOffset = 0.13
	BelowTriggerOffset = 0.20
	TriggerHalfHeight  = 0.05
)

const belowFloorResetAllowance = 0.25

// Layout captures the tunable geometry for one court.
type Layout struct {
	RimCenter            Vec3
	RimRadius            float64
	HalfLength           float64
	HalfWidth            float64
	FloorY               float64
	ThreePointRadius     float64
	ProximityResetRadius float64
}

// DefaultLayout returns the stock court.
func DefaultLayout() Layout {
	return Layout{
		RimCenter:            Vec3{X: 0, Y: RimHeight, Z: RimZ},
		RimRadius:            RimRadius,
		HalfLength:           HalfLength,
		HalfWidth:            HalfWidth,
		FloorY:               FloorY,
		ThreePointRadius:     ThreePointRadius,
		ProximityResetRadius: ProximityResetRadius,
	}
}

// IsThreePoint reports whether a shot released at origin is worth three
// points. The rule is strict: exactly on the arc counts as two.
func (l Layout) IsThreePoint(origin Vec3) bool {
	center := Vec3{X: 0, Y: 0, Z: 0}
	return HorizontalDistance(origin, center) > l.ThreePointRadius
}

// AboveTriggerCenter returns the center of the above-rim sensor volume.
func (l Layout) AboveTriggerCenter() Vec3 {
	return l.RimCenter.Add(Vec3{Y: AboveTriggerOffset})
}

// BelowTriggerCenter returns the center of the below-rim sensor volume.
func (l Layout) BelowTriggerCenter() Vec3 {
	return l.RimCenter.Sub(Vec3{Y: BelowTriggerOffset})
}

// OutOfBounds reports whether p has left the playable court area.
func (l Layout) OutOfBounds(p Vec3) bool {
	return math.Abs(p.X) > l.HalfWidth || math.Abs(p.Z) > l.HalfLength
}

// BelowFloor reports whether p has tunneled under the floor.
func (l Layout) BelowFloor(p Vec3) bool {
	return p.Y < l.FloorY-belowFloorResetAllowance
}

// ClampToBounds returns p constrained to the playable court area.
func (l Layout) ClampToBounds(p Vec3) Vec3 {
	p.X = math.Max(-l.HalfWidth, math.Min(l.HalfWidth, p.X))
	p.Z = math.Max(-l.HalfLength, math.Min(l.HalfLength, p.Z))
	return p
}
