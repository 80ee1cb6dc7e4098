// The symdex-worker executable is spawned by the host in process mode, one
// instance per worker slot. It attaches to the run's channel database,
// drains jobs until the queue is empty, and exits 0. A non-zero exit makes
// the host's supervisor respawn it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"symdex/internal/channel"
	"symdex/internal/worker"
	"symdex/pkg/types"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "symdex-worker: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: symdex-worker <slot> <run-id> <app-dir> <data-dir> [log-file]")
	}

	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 1 {
		return fmt.Errorf("%w: %q", types.ErrInvalidSlot, args[0])
	}
	runID := args[1]
	dataDir := args[3]

	var logOut io.Writer = os.Stderr
	if len(args) >= 5 && args[4] != "" {
		f, err := os.OpenFile(args[4], os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			defer func() { _ = f.Close() }()
			logOut = f
		}
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil)).With("slot", slot)

	transport, err := channel.NewSQLiteTransport(filepath.Join(dataDir, "runs", runID+".db"))
	if err != nil {
		return fmt.Errorf("failed to attach to channel database: %w", err)
	}
	defer func() { _ = transport.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	logger.Info("worker attached", "run_id", runID)

	var counter worker.Counter
	w := worker.NewGoroutineWorker(slot, transport.Queue(), transport.Status(),
		transport.Sink(slot), worker.DefaultPayload, &counter, logger)
	w.Work(ctx)

	logger.Info("worker queue drained, exiting")
	return nil
}
