package score

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tolgaeren/swish/internal/domain/court"
)

type captureSink struct {
	points []int
}

func (c *captureSink) Scored(points int) {
	c.points = append(c.points, points)
}

func TestDetectorScoring(t *testing.T) {
	Convey("Given a detector armed for a flight from inside the arc", t, func() {
		sink := &captureSink{}
		d := NewDetector(WithSink(sink))
		d.BeginFlight(court.Vec3{X: 0, Y: court.ChestHeight, Z: -3})

		Convey("When the ball passes above then below the rim moving downward", func() {
			d.OnAboveRimContact()
			d.OnBelowRimContact(-4.2)

			Convey("Then it scores two points exactly once", func() {
				So(sink.points, ShouldResemble, []int{2})
				So(d.ScoredThisFlight(), ShouldBeTrue)
			})
		})

		Convey("When the ball passes below then above the rim", func() {
			d.OnBelowRimContact(-4.2)
			d.OnAboveRimContact()

			Convey("Then nothing scores", func() {
				So(sink.points, ShouldBeEmpty)
				So(d.ScoredThisFlight(), ShouldBeFalse)
			})
		})

		Convey("When the ball enters the below sensor moving upward", func() {
			d.OnAboveRimContact()
			d.OnBelowRimContact(3.1)

			Convey("Then nothing scores yet", func() {
				So(sink.points, ShouldBeEmpty)
			})

			Convey("And a later downward pass still scores", func() {
				d.OnBelowRimContact(-2.0)
				So(sink.points, ShouldResemble, []int{2})
			})
		})

		Convey("When the sensors fire twice without a ball reset", func() {
			d.OnAboveRimContact()
			d.OnBelowRimContact(-4.2)
			d.OnAboveRimContact()
			d.OnBelowRimContact(-4.2)

			Convey("Then the latch limits it to a single score", func() {
				So(sink.points, ShouldResemble, []int{2})
			})
		})

		Convey("When the flight is reset between two full passes", func() {
			d.OnAboveRimContact()
			d.OnBelowRimContact(-4.2)
			d.ResetFlight()
			d.BeginFlight(court.Vec3{X: 0, Y: court.ChestHeight, Z: -3})
			d.OnAboveRimContact()
			d.OnBelowRimContact(-4.2)

			Convey("Then both flights score", func() {
				So(sink.points, ShouldResemble, []int{2, 2})
			})
		})
	})
}

func TestDetectorPointValues(t *testing.T) {
	Convey("Given the stock court layout", t, func() {
		Convey("When the origin sits exactly on the three point radius", func() {
			sink := &captureSink{}
			d := NewDetector(WithSink(sink))
			d.BeginFlight(court.Vec3{X: 6.75, Y: court.ChestHeight, Z: 0})
			d.OnAboveRimContact()
			d.OnBelowRimContact(-3.0)

			Convey("Then it counts as a two", func() {
				So(sink.points, ShouldResemble, []int{2})
			})
		})

		Convey("When the origin is just beyond the three point radius", func() {
			sink := &captureSink{}
			d := NewDetector(WithSink(sink))
			d.BeginFlight(court.Vec3{X: 6.76, Y: court.ChestHeight, Z: 0})
			d.OnAboveRimContact()
			d.OnBelowRimContact(-3.0)

			Convey("Then it counts as a three", func() {
				So(sink.points, ShouldResemble, []int{3})
			})
		})
	})
}

func TestDetectorProximityReset(t *testing.T) {
	Convey("Given a flight that grazed the above-rim sensor", t, func() {
		sink := &captureSink{}
		d := NewDetector(WithSink(sink))
		d.BeginFlight(court.Vec3{X: 0, Y: court.ChestHeight, Z: 0})
		d.OnAboveRimContact()
		So(d.AboveRimContacted(), ShouldBeTrue)

		Convey("When the ball drifts far from the rim", func() {
			d.CheckProximity(court.Vec3{X: 5, Y: 2, Z: 0})

			Convey("Then the contact flags clear", func() {
				So(d.AboveRimContacted(), ShouldBeFalse)
				So(d.BelowRimContacted(), ShouldBeFalse)
			})

			Convey("And a clean later pass scores normally", func() {
				d.OnAboveRimContact()
				d.OnBelowRimContact(-2.5)
				So(sink.points, ShouldResemble, []int{2})
			})
		})

		Convey("When the ball stays near the rim", func() {
			d.CheckProximity(court.Vec3{X: 0.5, Y: 3.2, Z: court.RimZ})

			Convey("Then the contact flags survive", func() {
				So(d.AboveRimContacted(), ShouldBeTrue)
			})
		})

		Convey("When the flight has already scored", func() {
			d.OnBelowRimContact(-2.5)
			So(sink.points, ShouldHaveLength, 1)
			d.CheckProximity(court.Vec3{X: 9, Y: 2, Z: 0})

			Convey("Then proximity never clears the latch", func() {
				So(d.ScoredThisFlight(), ShouldBeTrue)
			})
		})
	})
}

func TestDetectorDisarmed(t *testing.T) {
	Convey("Given a detector with no active flight", t, func() {
		sink := &captureSink{}
		d := NewDetector(WithSink(sink))

		Convey("When sensor contacts arrive anyway", func() {
			d.OnAboveRimContact()
			d.OnBelowRimContact(-4.0)

			Convey("Then they are ignored", func() {
				So(sink.points, ShouldBeEmpty)
				So(d.AboveRimContacted(), ShouldBeFalse)
				So(d.InFlight(), ShouldBeFalse)
			})
		})
	})
}
