package release

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithZone sets the perfect zone. Applied only when 0 < start < end < 1;
// anything else keeps the stock zone.
func WithZone(start, end float64) Option {
	return func(e *Evaluator) {
		if start > 0 && start < end && end < 1 {
			e.zone = Zone{Start: start, End: end}
		}
	}
}

// WithWeakRange sets the power multipliers at progress 0 and at the zone
// start. Applied only when 0 < min <= max.
func WithWeakRange(min, max float64) Option {
	return func(e *Evaluator) {
		if min > 0 && min <= max {
			e.weakMin = min
			e.weakMax = max
		}
	}
}

// WithStrongRange sets the power multipliers at the zone end and at full
// charge. Applied only when 0 < min <= max.
func WithStrongRange(min, max float64) Option {
	return func(e *Evaluator) {
		if min > 0 && min <= max {
			e.strongMin = min
			e.strongMax = max
		}
	}
}
