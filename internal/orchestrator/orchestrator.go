package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"symdex/internal/channel"
	"symdex/internal/collector"
	"symdex/internal/worker"
	"symdex/pkg/types"
)

// crashMessage is the error recorded for every file abandoned by a crashed
// worker.
const crashMessage = "The translation unit threw an exception during indexing. " +
	"Please check if the source file conforms to the specified language standard " +
	"and all necessary options are defined within your project setup."

// State is the orchestrator's lifecycle position as observed through
// Update.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// StopReason distinguishes why a run reached its terminal state. Both
// reasons report through the same terminal lifecycle signal; callers that
// need the success/cancellation distinction inspect the reason and the
// final error tally.
type StopReason int

const (
	ReasonNone StopReason = iota
	// ReasonExhausted: the backlog drained and no workers remain.
	ReasonExhausted
	// ReasonInterrupted: a cooperative stop was requested.
	ReasonInterrupted
)

func (r StopReason) String() string {
	switch r {
	case ReasonExhausted:
		return "exhausted"
	case ReasonInterrupted:
		return "interrupted"
	default:
		return "none"
	}
}

// Config tunes the polling and drain cadence. Zero values select the
// defaults.
type Config struct {
	PollInterval          time.Duration // sleep at the end of every Update (default 50ms)
	DrainBudget           time.Duration // wall-clock budget of one drain cycle (default 500ms)
	BackpressureThreshold int           // collector depth above which draining pauses (default 10)
	BackpressureSleep     time.Duration // sleep when backpressured (default 100ms)
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 50 * time.Millisecond
	}
	if c.DrainBudget <= 0 {
		c.DrainBudget = 500 * time.Millisecond
	}
	if c.BackpressureThreshold <= 0 {
		c.BackpressureThreshold = 10
	}
	if c.BackpressureSleep <= 0 {
		c.BackpressureSleep = 100 * time.Millisecond
	}
}

// Deps are the collaborators one orchestrator instance works against.
type Deps struct {
	Transport channel.Transport
	Collector collector.Collector
	Factory   worker.Factory
	RunState  *RunState
	Progress  ProgressSink

	// DialogsVisible gates HandleInterruptRequest. Nil means always
	// visible, so soft interrupts are always honored.
	DialogsVisible func() bool

	// Launcher is consulted by Terminate to kill spawned processes. Nil in
	// goroutine-only hosts.
	Launcher worker.Launcher

	Logger *slog.Logger
}

// Orchestrator drives a fixed pool of indexing workers through the shared
// job queue: Enter loads the backlog and starts the pool, Update is the
// non-blocking step function an external scheduler ticks, Exit joins the
// pool and settles results. Reset returns it to idle for the next run.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	queue  channel.JobQueue
	status channel.StatusChannel

	counter   worker.Counter
	interrupt worker.Flag

	workers []worker.Worker
	sinks   []channel.ResultSink

	lastCommandCount  int
	indexingFileCount int

	mu     sync.Mutex
	state  State
	reason StopReason
}

// New creates an orchestrator. It holds no per-run state until Enter.
func New(deps Deps, cfg Config) *Orchestrator {
	cfg.applyDefaults()
	if deps.Progress == nil {
		deps.Progress = NopProgress{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		queue:  deps.Transport.Queue(),
		status: deps.Transport.Status(),
		state:  StateIdle,
	}
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Reason reports why the run stopped; ReasonNone while running.
func (o *Orchestrator) Reason() StopReason {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

func (o *Orchestrator) setStopped(reason StopReason) {
	o.mu.Lock()
	o.state = StateStopped
	o.reason = reason
	o.mu.Unlock()
}

// Enter loads jobs into the shared queue and starts workerCount workers,
// one slot each. Every slot's result sink exists before its worker starts,
// so no result can be lost to a missing sink.
func (o *Orchestrator) Enter(ctx context.Context, jobs []types.Job, workerCount int, mode worker.Mode) error {
	o.mu.Lock()
	o.state = StateRunning
	o.reason = ReasonNone
	o.mu.Unlock()

	o.indexingFileCount = 0
	o.deps.RunState.ResetIndexed()
	o.pushProgress(nil)

	if err := o.queue.Load(ctx, jobs); err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}
	o.lastCommandCount = len(jobs)

	o.deps.RunState.SetActiveWorkers(workerCount)

	for i := 0; i < workerCount; i++ {
		slot := i + 1 // slot 0 stays reserved for this process
		o.sinks = append(o.sinks, o.deps.Transport.Sink(slot))

		w := o.deps.Factory(slot, mode, &o.counter, &o.interrupt)
		w.Start(ctx)
		o.workers = append(o.workers, w)
	}

	o.logger.Info("indexing run entered", "jobs", len(jobs), "workers", workerCount, "mode", mode.String())
	return nil
}

// Update performs one cooperative polling step and returns the resulting
// state. It never blocks beyond the short poll-interval sleep; an external
// scheduler is expected to call it repeatedly while it reports
// StateRunning.
func (o *Orchestrator) Update(ctx context.Context) State {
	if o.State() != StateRunning {
		return o.State()
	}
	if ctx.Err() != nil {
		o.interrupt.Set()
	}

	running := o.counter.Value()

	commandCount, err := o.queue.Count(ctx)
	if err != nil {
		o.logger.Error("failed to read queue size", "error", err)
		return StateRunning
	}

	if commandCount != o.lastCommandCount {
		files, err := o.status.CurrentlyIndexing(ctx)
		if err != nil {
			// keep the old baseline so the flush is retried next tick
			o.logger.Error("failed to read indexing status", "error", err)
		} else {
			o.pushProgress(files)
			o.lastCommandCount = commandCount
		}
	}

	if commandCount == 0 && running == 0 {
		o.setStopped(ReasonExhausted)
		return StateStopped
	}

	if o.interrupt.IsSet() {
		o.deps.RunState.SetInterrupted(true)
		// clearing the queue makes workers return once their current job
		// is done
		if err := o.queue.Clear(ctx); err != nil {
			o.logger.Error("failed to clear queue on interrupt", "error", err)
		}
		o.setStopped(ReasonInterrupted)
		return StateStopped
	}

	if o.drainCycle(ctx) {
		o.pushProgress(nil)
	}

	time.Sleep(o.cfg.PollInterval)
	return StateRunning
}

// Exit joins every worker, drains the sinks dry, converts crash records
// into error entries in the collector, and zeroes the active-worker count.
func (o *Orchestrator) Exit(ctx context.Context) error {
	var g errgroup.Group
	for _, w := range o.workers {
		g.Go(w.Join)
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to join workers: %w", err)
	}
	o.workers = nil

	for o.drainCycle(ctx) {
	}

	crashed, err := o.status.CrashedFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to read crashed files: %w", err)
	}
	if len(crashed) > 0 {
		batch := &types.ResultBatch{ProducedAt: time.Now()}
		for _, path := range crashed {
			batch.AddError(types.ErrorRecord{
				Message:  crashMessage,
				FilePath: path,
				Line:     1,
				Col:      1,
				Fatal:    true,
				Indexed:  true,
			})
			o.logger.Info("crashed translation unit", "file", path)
		}
		if err := o.deps.Collector.Insert(ctx, batch); err != nil {
			return fmt.Errorf("failed to record crashed files: %w", err)
		}
	}

	o.sinks = nil
	o.deps.RunState.SetActiveWorkers(0)
	return nil
}

// Reset returns the orchestrator to idle. Enter re-initializes everything
// else, so there is nothing more to clear; the method exists so the
// lifecycle stays uniform with the other stages of a pipeline.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.state = StateIdle
	o.reason = ReasonNone
	o.mu.Unlock()
}

// Terminate requests a hard stop: the interrupt flag is set and any
// spawned worker processes are killed rather than waited for. Used only
// when the host application itself is shutting down.
func (o *Orchestrator) Terminate() {
	o.interrupt.Set()
	if o.deps.Launcher != nil {
		o.deps.Launcher.KillAll()
	}
}

// HandleInterruptRequest is the soft interrupt entry point. The request is
// ignored while the interruption UI is hidden, so a run the user cannot
// see is never cancelled out from under them.
func (o *Orchestrator) HandleInterruptRequest() {
	if o.deps.DialogsVisible != nil && !o.deps.DialogsVisible() {
		return
	}
	o.interrupt.Set()
}

// Drive runs the whole lifecycle for hosts without their own tick
// scheduler: Enter, Update until terminal, Exit.
func (o *Orchestrator) Drive(ctx context.Context, jobs []types.Job, workerCount int, mode worker.Mode) (StopReason, error) {
	if err := o.Enter(ctx, jobs, workerCount, mode); err != nil {
		return ReasonNone, err
	}
	for o.Update(ctx) == StateRunning {
	}
	if err := o.Exit(ctx); err != nil {
		return o.Reason(), err
	}
	return o.Reason(), nil
}

// pushProgress publishes the current counters plus the given in-flight
// file list to the progress sink.
func (o *Orchestrator) pushProgress(current []string) {
	snap := o.deps.RunState.Snapshot()
	o.indexingFileCount += len(current)

	o.deps.Progress.Update(o.indexingFileCount, snap.IndexedSourceFiles, snap.TotalSourceFiles, current)

	percent := 0
	if snap.TotalSourceFiles > 0 {
		percent = snap.IndexedSourceFiles * 100 / snap.TotalSourceFiles
		if percent > 100 {
			percent = 100
		}
	}
	o.deps.Progress.Publish(percent)
}
