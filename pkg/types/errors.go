package types

import "errors"

// Domain errors shared across packages
var (
	// ErrInvalidSlot is returned when a slot id falls outside 1..workerCount.
	ErrInvalidSlot = errors.New("invalid worker slot")

	// ErrRunActive is returned when a run is requested while another is in flight.
	ErrRunActive = errors.New("an indexing run is already active")

	// ErrNoRun is returned when run state is requested but no run was started.
	ErrNoRun = errors.New("no indexing run active")

	// ErrChannelClosed is returned by channel operations after Close.
	ErrChannelClosed = errors.New("channel closed")
)
