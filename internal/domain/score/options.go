package score

import (
	"github.com/tolgaeren/swish/internal/domain/court"
)

// Option configures the detector.
type Option func(*Detector)

// WithLayout overrides the court layout the detector scores against.
func WithLayout(layout court.Layout) Option {
	return func(d *Detector) {
		d.layout = layout
	}
}

// WithSink sets the consumer of scored events.
func WithSink(sink Sink) Option {
	return func(d *Detector) {
		if sink != nil {
			d.sink = sink
		}
	}
}
