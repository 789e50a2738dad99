package drill

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Sweep configuration constants.
const (
	// maxFlightFrames bounds how long one shot may stay unresolved
	// before the drill forces a ball reset. 600 frames is ten seconds
	// of simulated time, enough for any arc plus its floor bounces.
	maxFlightFrames = 600

	// settlePollInterval and settleTimeout pace the wait for the
	// service to drain the recorder queue before rankings are read.
	settlePollInterval = 200 * time.Millisecond
	settleTimeout      = 30 * time.Second

	PercentageMultiplier = 100
)
