package service

import "errors"

// Sentinel errors returned by the service.
var (
	// ErrNotStarted is returned when sessions are requested before
	// Start.
	ErrNotStarted = errors.New("service not started")

	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidPlayer is returned for an empty player ID.
	ErrInvalidPlayer = errors.New("invalid player id")
)
