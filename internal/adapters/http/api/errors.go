package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// wrap annotates an error kind with the handler operation and an optional
// cause, keeping both visible to errors.Is.
func wrap(op string, kind, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}
