package worker

import (
	"log/slog"

	"symdex/internal/channel"
)

// Mode selects the execution strategy for a run's workers.
type Mode int

const (
	// ModeGoroutine runs the work loop on in-process goroutines.
	ModeGoroutine Mode = iota
	// ModeProcess spawns one external worker process per slot.
	ModeProcess
)

func (m Mode) String() string {
	if m == ModeProcess {
		return "process"
	}
	return "goroutine"
}

// Factory builds the worker bound to a slot. The orchestrator owns the
// counter and the interrupt flag and passes them in when it starts slots.
type Factory func(slot int, mode Mode, counter *Counter, interrupt *Flag) Worker

// NewFactory wires a Factory over one run's transport. Process-mode slots
// get the launcher and locator; goroutine-mode slots get the queue, their
// sink, and the payload.
func NewFactory(transport channel.Transport, launcher Launcher, locator Locator,
	payload Payload, cfg ProcessConfig, logger *slog.Logger) Factory {

	return func(slot int, mode Mode, counter *Counter, interrupt *Flag) Worker {
		if mode == ModeProcess {
			return NewProcessWorker(slot, cfg, locator, launcher, transport.Status(), counter, interrupt, logger)
		}
		return NewGoroutineWorker(slot, transport.Queue(), transport.Status(), transport.Sink(slot), payload, counter, logger)
	}
}
