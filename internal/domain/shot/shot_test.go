package shot_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tolgaeren/swish/internal/domain/court"
	"github.com/tolgaeren/swish/internal/domain/release"
	"github.com/tolgaeren/swish/internal/domain/shot"
	"github.com/tolgaeren/swish/internal/domain/trajectory"
)

type fakeLauncher struct {
	launches int
	velocity court.Vec3
	spin     court.Vec3
}

func (f *fakeLauncher) Launch(velocity, spin court.Vec3) {
	f.launches++
	f.velocity = velocity
	f.spin = spin
}

type fakeSink struct {
	events []shot.Feedback
}

func (f *fakeSink) ReleaseFeedback(fb shot.Feedback) {
	f.events = append(f.events, fb)
}

var (
	testOrigin = court.Vec3{X: 0, Y: court.ChestHeight, Z: 0}
	testTarget = court.Vec3{X: 0, Y: court.RimHeight, Z: court.RimZ}
)

func newTestController(opts ...shot.Option) (*shot.Controller, *shot.Meter, *fakeLauncher, *fakeSink) {
	meter := shot.NewMeter()
	launcher := &fakeLauncher{}
	sink := &fakeSink{}
	all := append([]shot.Option{
		shot.WithLauncher(launcher),
		shot.WithFeedbackSink(sink),
	}, opts...)
	c := shot.NewController(meter, release.NewEvaluator(), trajectory.NewSolver(), all...)
	return c, meter, launcher, sink
}

func TestShotLifecycle(t *testing.T) {
	Convey("Given a freshly wired controller", t, func() {
		c, meter, launcher, sink := newTestController()

		Convey("Then it should start ready with no attempt", func() {
			So(c.State(), ShouldEqual, shot.StateReady)
			So(c.Attempt(), ShouldBeNil)
			So(c.InFlight(), ShouldBeFalse)
		})

		Convey("When a full charge-release-score cycle runs", func() {
			So(c.BeginCharge(), ShouldBeTrue)
			So(c.State(), ShouldEqual, shot.StateCharging)
			So(meter.Charging(), ShouldBeTrue)

			meter.Advance(1.08) // lands inside the perfect zone

			So(c.Release(testOrigin, testTarget), ShouldBeTrue)
			So(c.State(), ShouldEqual, shot.StateInFlight)
			So(c.InFlight(), ShouldBeTrue)

			So(c.MarkScored(), ShouldBeTrue)
			So(c.State(), ShouldEqual, shot.StateScored)

			c.Reset()
			So(c.State(), ShouldEqual, shot.StateReady)
			So(c.Attempt(), ShouldBeNil)

			Convey("Then the ball should have been launched exactly once", func() {
				So(launcher.launches, ShouldEqual, 1)
				So(launcher.velocity.Y, ShouldBeGreaterThan, 0)
				So(launcher.spin.Length(), ShouldAlmostEqual, 1.5, 1e-9)
			})

			Convey("Then perfect feedback should have been emitted", func() {
				So(sink.events, ShouldHaveLength, 1)
				So(sink.events[0].Perfect, ShouldBeTrue)
				So(sink.events[0].Label, ShouldEqual, release.Perfect)
				So(sink.events[0].PowerPercent, ShouldAlmostEqual, 100, 1e-9)
				So(sink.events[0].Distance, ShouldAlmostEqual, 7.24, 1e-9)
				So(sink.events[0].Rejected, ShouldBeFalse)
			})
		})

		Convey("When a new charge begins after a previous cycle", func() {
			So(c.BeginCharge(), ShouldBeTrue)
			meter.Advance(0.5)
			So(c.Release(testOrigin, testTarget), ShouldBeTrue)
			c.Reset()

			So(c.BeginCharge(), ShouldBeTrue)

			Convey("Then the meter should have restarted at zero", func() {
				So(meter.Progress(), ShouldEqual, 0)
			})
		})
	})
}

func TestInvalidTransitions(t *testing.T) {
	Convey("Given a wired controller", t, func() {
		c, meter, launcher, _ := newTestController()

		Convey("When releasing without charging", func() {
			So(c.Release(testOrigin, testTarget), ShouldBeFalse)

			Convey("Then nothing should have been launched", func() {
				So(c.State(), ShouldEqual, shot.StateReady)
				So(launcher.launches, ShouldEqual, 0)
			})
		})

		Convey("When charging twice in a row", func() {
			So(c.BeginCharge(), ShouldBeTrue)
			So(c.BeginCharge(), ShouldBeFalse)

			Convey("Then the state should stay charging", func() {
				So(c.State(), ShouldEqual, shot.StateCharging)
			})
		})

		Convey("When releasing twice without a reset in between", func() {
			So(c.BeginCharge(), ShouldBeTrue)
			meter.Advance(1.08)
			So(c.Release(testOrigin, testTarget), ShouldBeTrue)
			So(c.Release(testOrigin, testTarget), ShouldBeFalse)

			Convey("Then only one launch should have been applied", func() {
				So(launcher.launches, ShouldEqual, 1)
				So(c.State(), ShouldEqual, shot.StateInFlight)
			})
		})

		Convey("When charging while a shot is in flight", func() {
			So(c.BeginCharge(), ShouldBeTrue)
			meter.Advance(1.08)
			So(c.Release(testOrigin, testTarget), ShouldBeTrue)

			Convey("Then the charge request should be refused", func() {
				So(c.BeginCharge(), ShouldBeFalse)
				So(c.State(), ShouldEqual, shot.StateInFlight)
			})
		})

		Convey("When marking a score with no shot in flight", func() {
			So(c.MarkScored(), ShouldBeFalse)
			So(c.State(), ShouldEqual, shot.StateReady)
		})
	})
}

func TestRejectedRelease(t *testing.T) {
	Convey("Given a controller aiming at an unreachable target", t, func() {
		c, meter, launcher, sink := newTestController()
		// Directly overhead: no travel direction exists.
		overhead := court.Vec3{X: 0, Y: 5, Z: 0}

		Convey("When the shot is released", func() {
			So(c.BeginCharge(), ShouldBeTrue)
			meter.Advance(1.08)
			released := c.Release(testOrigin, overhead)

			Convey("Then the attempt should be refused and the state return to ready", func() {
				So(released, ShouldBeFalse)
				So(c.State(), ShouldEqual, shot.StateReady)
				So(c.Attempt(), ShouldBeNil)
				So(launcher.launches, ShouldEqual, 0)
			})

			Convey("Then rejected feedback should have been emitted", func() {
				So(sink.events, ShouldHaveLength, 1)
				So(sink.events[0].Rejected, ShouldBeTrue)
			})

			Convey("Then a fresh charge should be possible immediately", func() {
				So(c.BeginCharge(), ShouldBeTrue)
			})
		})
	})
}

func TestScreenShake(t *testing.T) {
	Convey("Given the stock tuning", t, func() {
		c, meter, _, sink := newTestController()

		Convey("When a full-charge release lands at the stock ceiling", func() {
			So(c.BeginCharge(), ShouldBeTrue)
			meter.Advance(10) // clamped full charge
			So(c.Release(testOrigin, testTarget), ShouldBeTrue)

			Convey("Then exactly 1.30 should not shake the screen", func() {
				So(sink.events, ShouldHaveLength, 1)
				So(sink.events[0].PowerPercent, ShouldAlmostEqual, 130, 1e-9)
				So(sink.events[0].ScreenShake, ShouldBeFalse)
			})
		})
	})

	Convey("Given a raised strong ceiling", t, func() {
		meter := shot.NewMeter()
		launcher := &fakeLauncher{}
		sink := &fakeSink{}
		eval := release.NewEvaluator(release.WithStrongRange(1.05, 1.50))
		c := shot.NewController(meter, eval, trajectory.NewSolver(),
			shot.WithLauncher(launcher), shot.WithFeedbackSink(sink))

		Convey("When a full-charge release exceeds the shake threshold", func() {
			So(c.BeginCharge(), ShouldBeTrue)
			meter.Advance(10)
			So(c.Release(testOrigin, testTarget), ShouldBeTrue)

			Convey("Then the feedback should request a screen shake", func() {
				So(sink.events, ShouldHaveLength, 1)
				So(sink.events[0].ScreenShake, ShouldBeTrue)
			})
		})
	})
}

func TestAttemptRecord(t *testing.T) {
	Convey("Given a released shot", t, func() {
		c, meter, launcher, _ := newTestController()
		So(c.BeginCharge(), ShouldBeTrue)
		meter.Advance(0.5)
		So(c.Release(testOrigin, testTarget), ShouldBeTrue)

		Convey("Then the attempt should capture the launch", func() {
			attempt := c.Attempt()
			So(attempt, ShouldNotBeNil)
			So(attempt.Origin, ShouldResemble, testOrigin)
			So(attempt.Target, ShouldResemble, testTarget)
			So(attempt.Velocity, ShouldResemble, launcher.velocity)
			So(attempt.Spin, ShouldResemble, launcher.spin)
			So(attempt.Distance, ShouldAlmostEqual, 7.24, 1e-9)
			So(attempt.Quality.Perfect, ShouldBeFalse)
		})
	})
}

func TestStateStrings(t *testing.T) {
	Convey("Given the state enum", t, func() {
		So(shot.StateReady.String(), ShouldEqual, "READY")
		So(shot.StateCharging.String(), ShouldEqual, "CHARGING")
		So(shot.StateInFlight.String(), ShouldEqual, "IN_FLIGHT")
		So(shot.StateScored.String(), ShouldEqual, "SCORED")
		So(shot.State(42).String(), ShouldEqual, "UNKNOWN")
	})
}
