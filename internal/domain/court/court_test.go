package court_test

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tolgaeren/swish/internal/domain/court"
)

func TestVec3Operations(t *testing.T) {
	Convey("Given vectors", t, func() {
		a := court.Vec3{X: 1, Y: 2, Z: 3}
		b := court.Vec3{X: 4, Y: -5, Z: 6}

		Convey("When combining them", func() {
			Convey("Then arithmetic should behave componentwise", func() {
				So(a.Add(b), ShouldResemble, court.Vec3{X: 5, Y: -3, Z: 9})
				So(a.Sub(b), ShouldResemble, court.Vec3{X: -3, Y: 7, Z: -3})
				So(a.Scale(2), ShouldResemble, court.Vec3{X: 2, Y: 4, Z: 6})
				So(a.Dot(b), ShouldEqual, 1*4+2*(-5)+3*6)
			})

			Convey("Then the cross product should be orthogonal to both", func() {
				c := a.Cross(b)
				So(c.Dot(a), ShouldAlmostEqual, 0, 1e-12)
				So(c.Dot(b), ShouldAlmostEqual, 0, 1e-12)
			})
		})

		Convey("When normalizing", func() {
			Convey("Then a regular vector should become unit length", func() {
				n := b.Normalize()
				So(n.Length(), ShouldAlmostEqual, 1, 1e-12)
			})

			Convey("Then a near-zero vector should stay zero, not NaN", func() {
				n := court.Vec3{X: 1e-12}.Normalize()
				So(n, ShouldResemble, court.Vec3{})
				So(math.IsNaN(n.X), ShouldBeFalse)
			})
		})

		Convey("When measuring horizontal distance", func() {
			p := court.Vec3{X: 3, Y: 10, Z: 0}
			q := court.Vec3{X: 0, Y: -4, Z: 4}

			Convey("Then height should be ignored", func() {
				So(court.HorizontalDistance(p, q), ShouldAlmostEqual, 5, 1e-12)
				So(p.Horizontal().Y, ShouldEqual, 0)
			})
		})
	})
}

func TestThreePointRule(t *testing.T) {
	Convey("Given the stock layout", t, func() {
		layout := court.DefaultLayout()

		Convey("When the origin sits exactly on the arc", func() {
			origin := court.Vec3{X: 0, Y: court.ChestHeight, Z: 6.75}

			Convey("Then it should not be a three-pointer", func() {
				So(layout.IsThreePoint(origin), ShouldBeFalse)
			})
		})

		Convey("When the origin sits just beyond the arc", func() {
			origin := court.Vec3{X: 0, Y: court.ChestHeight, Z: 6.76}

			Convey("Then it should be a three-pointer", func() {
				So(layout.IsThreePoint(origin), ShouldBeTrue)
			})
		})

		Convey("When the origin is at court center", func() {
			So(layout.IsThreePoint(court.Vec3{Y: court.ChestHeight}), ShouldBeFalse)
		})

		Convey("When the distance comes from both axes", func() {
			// 4.8² + 4.8² > 6.75²
			origin := court.Vec3{X: 4.8, Y: court.ChestHeight, Z: 4.8}
			So(layout.IsThreePoint(origin), ShouldBeTrue)
		})
	})
}

func TestLayoutBounds(t *testing.T) {
	Convey("Given the stock layout", t, func() {
		layout := court.DefaultLayout()

		Convey("When checking bounds", func() {
			So(layout.OutOfBounds(court.Vec3{X: 0, Z: 0}), ShouldBeFalse)
			So(layout.OutOfBounds(court.Vec3{X: layout.HalfWidth + 0.1}), ShouldBeTrue)
			So(layout.OutOfBounds(court.Vec3{Z: -layout.HalfLength - 0.1}), ShouldBeTrue)
		})

		Convey("When checking the floor", func() {
			So(layout.BelowFloor(court.Vec3{Y: 0.1}), ShouldBeFalse)
			So(layout.BelowFloor(court.Vec3{Y: -0.1}), ShouldBeFalse)
			So(layout.BelowFloor(court.Vec3{Y: -0.5}), ShouldBeTrue)
		})

		Convey("When clamping a point outside the court", func() {
			p := layout.ClampToBounds(court.Vec3{X: 100, Y: 1, Z: -100})
			So(p.X, ShouldEqual, layout.HalfWidth)
			So(p.Z, ShouldEqual, -layout.HalfLength)
			So(p.Y, ShouldEqual, 1)
		})
	})
}

func TestTriggerFrames(t *testing.T) {
	Convey("Given the stock layout", t, func() {
		layout := court.DefaultLayout()

		Convey("When placing the sensor volumes", func() {
			above := layout.AboveTriggerCenter()
			below := layout.BelowTriggerCenter()

			Convey("Then they should straddle the rim plane", func() {
				So(above.Y, ShouldBeGreaterThan, layout.RimCenter.Y)
				So(below.Y, ShouldBeLessThan, layout.RimCenter.Y)
				So(above.X, ShouldEqual, layout.RimCenter.X)
				So(below.Z, ShouldEqual, layout.RimCenter.Z)
			})
		})
	})
}
