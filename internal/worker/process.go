package worker

import (
	"context"
	"log/slog"
	"strconv"

	"symdex/internal/channel"
)

// ProcessWorker supervises one external worker process bound to a slot.
// The spawned executable attaches to the run's channel database itself;
// the supervisor only spawns, waits, and respawns.
//
// Any non-zero exit is treated as per-job-transient: the fresh process
// re-reads the remaining jobs from the shared queue, so one crashed job
// never aborts the whole run. The file in flight at crash time is moved
// onto the crashed list instead.
type ProcessWorker struct {
	slot      int
	runID     string
	appDir    string
	dataDir   string
	logPath   string
	locator   Locator
	launcher  Launcher
	status    channel.StatusChannel
	counter   *Counter
	interrupt *Flag
	logger    *slog.Logger

	done chan struct{}
}

// ProcessConfig carries the spawn parameters shared by every slot.
type ProcessConfig struct {
	RunID   string
	AppDir  string
	DataDir string
	LogPath string // optional log-file hint passed through to the worker
}

// NewProcessWorker binds a supervisor to its slot.
func NewProcessWorker(slot int, cfg ProcessConfig, locator Locator, launcher Launcher,
	status channel.StatusChannel, counter *Counter, interrupt *Flag, logger *slog.Logger) *ProcessWorker {

	return &ProcessWorker{
		slot:      slot,
		runID:     cfg.RunID,
		appDir:    cfg.AppDir,
		dataDir:   cfg.DataDir,
		logPath:   cfg.LogPath,
		locator:   locator,
		launcher:  launcher,
		status:    status,
		counter:   counter,
		interrupt: interrupt,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

func (w *ProcessWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		w.run(ctx)
	}()
}

func (w *ProcessWorker) Join() error {
	<-w.done
	return nil
}

func (w *ProcessWorker) run(ctx context.Context) {
	w.counter.Inc()
	defer w.counter.Dec()

	exePath, err := w.locator.Resolve()
	if err != nil {
		// fatal for this slot: it contributes no further capacity
		w.interrupt.Set()
		w.logger.Error("cannot start worker process", "slot", w.slot, "error", err)
		return
	}

	args := []string{strconv.Itoa(w.slot), w.runID, w.appDir, w.dataDir}
	if w.logPath != "" {
		args = append(args, w.logPath)
	}

	for {
		code, err := w.launcher.Spawn(ctx, exePath, args, "")
		if err != nil {
			// the executable exists but cannot run; like a missing
			// executable, this slot contributes no further capacity
			w.interrupt.Set()
			w.logger.Error("worker process failed to run", "slot", w.slot, "error", err)
			return
		}

		w.logger.Info("worker process returned", "slot", w.slot, "exit_code", code)

		if code == 0 || w.interrupt.IsSet() || ctx.Err() != nil {
			return
		}

		// abnormal exit: flag whatever the process had in flight
		if err := w.status.RecordCrash(context.WithoutCancel(ctx), w.slot); err != nil {
			w.logger.Error("failed to record crash", "slot", w.slot, "error", err)
		}
	}
}
