package shot

import "time"

const defaultFillDuration = 1200 * time.Millisecond

// Meter is the shot-power meter. While charging it fills monotonically
// from 0 to 1 at a fixed rate and stays clamped at 1. It is advanced by
// the session's frame loop and read by the controller at release; nothing
// else writes it.
type Meter struct {
	progress float64
	charging bool
	fillRate float64 // progress per second
}

// NewMeter builds a meter with the stock fill duration, then applies
// options.
func NewMeter(opts ...MeterOption) *Meter {
	m := &Meter{fillRate: 1 / defaultFillDuration.Seconds()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin resets progress to zero and starts charging.
func (m *Meter) Begin() {
	m.progress = 0
	m.charging = true
}

// Advance grows the meter by dt seconds of charging. It does nothing when
// the meter is not charging.
func (m *Meter) Advance(dt float64) {
	if !m.charging || dt <= 0 {
		return
	}
	m.progress += dt * m.fillRate
	if m.progress > 1 {
		m.progress = 1
	}
}

// Stop halts charging, keeping the current progress readable.
func (m *Meter) Stop() {
	m.charging = false
}

// Progress returns the current charge level in [0,1].
func (m *Meter) Progress() float64 { return m.progress }

// Charging reports whether the meter is filling.
func (m *Meter) Charging() bool { return m.charging }
