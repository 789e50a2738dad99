package shot

import "time"

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithLauncher sets the ball body the controller launches on release.
func WithLauncher(l BallLauncher) Option {
	return func(c *Controller) {
		if l != nil {
			c.launcher = l
		}
	}
}

// WithFeedbackSink sets the consumer of release feedback events.
func WithFeedbackSink(s FeedbackSink) Option {
	return func(c *Controller) {
		if s != nil {
			c.feedback = s
		}
	}
}

// MeterOption applies a configuration option to the Meter.
type MeterOption func(*Meter)

// WithFillDuration sets how long a full charge takes. Applied only when
// positive.
func WithFillDuration(d time.Duration) MeterOption {
	return func(m *Meter) {
		if d > 0 {
			m.fillRate = 1 / d.Seconds()
		}
	}
}
