package trajectory

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrNoTrajectory means no launch angle below the vertical limit
	// carries the ball through the target.
	ErrNoTrajectory = errors.New("no valid trajectory")
)
