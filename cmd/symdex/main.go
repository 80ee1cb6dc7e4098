package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"symdex/internal/channel"
	"symdex/internal/collector"
	"symdex/internal/control"
	"symdex/internal/orchestrator"
	"symdex/internal/scan"
	"symdex/internal/worker"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("Symdex Indexing Orchestrator\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", channel.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", channel.DriverName)
		os.Exit(0)
	}

	serve := flag.Bool("serve", false, "run as an MCP control server on stdio")
	mode := flag.String("mode", "goroutine", "execution mode: goroutine or process")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker slots")
	includeTests := flag.Bool("tests", true, "index test files")
	flag.Parse()

	// Log to stderr; stdout stays free for MCP traffic
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dataDir := os.Getenv("SYMDEX_DB_PATH")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to resolve home directory", "error", err)
			os.Exit(1)
		}
		dataDir = filepath.Join(home, ".symdex")
	}

	if *serve {
		runServer(dataDir, logger)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: symdex [flags] <source-tree>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	execMode := worker.ModeGoroutine
	if *mode == "process" {
		execMode = worker.ModeProcess
	}

	if err := runOnce(flag.Arg(0), dataDir, *workers, execMode, *includeTests, logger); err != nil {
		logger.Error("indexing run failed", "error", err)
		os.Exit(1)
	}
}

// runServer starts the MCP control surface and blocks until a shutdown
// signal arrives.
func runServer(dataDir string, logger *slog.Logger) {
	logger.Info("symdex control server starting", "version", version,
		"build_mode", channel.BuildMode, "driver", channel.DriverName)

	srv, err := control.NewServer(dataDir, logger)
	if err != nil {
		logger.Error("failed to create control server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("control server ready, listening on stdio")
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
		srv.Shutdown()
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Error("control server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// runOnce performs a single indexing run over rootPath and reports it on a
// terminal progress bar.
func runOnce(rootPath, dataDir string, workerCount int, mode worker.Mode,
	includeTests bool, logger *slog.Logger) error {

	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return err
	}

	jobs, err := scan.Discover(rootPath, scan.Options{
		Extensions:   []string{".go", ".c", ".h", ".cpp", ".cc", ".py", ".js", ".ts"},
		IncludeTests: includeTests,
	})
	if err != nil {
		return fmt.Errorf("file discovery failed: %w", err)
	}
	logger.Info("discovered source files", "count", len(jobs), "root", rootPath)

	if err := os.MkdirAll(filepath.Join(dataDir, "runs"), 0o755); err != nil {
		return err
	}

	runID := uuid.NewString()

	var transport channel.Transport
	var launcher worker.Launcher
	var locator worker.Locator

	channelDB := filepath.Join(dataDir, "runs", runID+".db")
	if mode == worker.ModeProcess {
		t, err := channel.NewSQLiteTransport(channelDB)
		if err != nil {
			return err
		}
		transport = t
		launcher = worker.NewExecLauncher()
		locator, err = worker.NewSiblingLocator()
		if err != nil {
			return err
		}
	} else {
		transport = channel.NewMemoryTransport()
	}
	defer func() { _ = transport.Close() }()

	store, err := collector.NewStore(filepath.Join(dataDir, "results.db"), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.Start(ctx)

	state := orchestrator.NewRunState()
	state.SetTotalSourceFiles(len(jobs))

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("indexing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	orch := orchestrator.New(orchestrator.Deps{
		Transport: transport,
		Collector: store,
		Factory: worker.NewFactory(transport, launcher, locator, worker.DefaultPayload,
			worker.ProcessConfig{RunID: runID, AppDir: dataDir, DataDir: dataDir}, logger),
		RunState: state,
		Progress: barProgress{bar: bar},
		Launcher: launcher,
		Logger:   logger,
	}, orchestrator.Config{})

	// first Ctrl-C interrupts cooperatively, second one kills workers
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("interrupt requested, letting in-flight jobs finish")
		orch.HandleInterruptRequest()
		<-sigChan
		logger.Info("terminating worker processes")
		orch.Terminate()
	}()

	reason, err := orch.Drive(ctx, jobs, workerCount, mode)
	if err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	store.Stop()
	files, _ := store.FileCount(context.Background())
	errCount, _ := store.ErrorCount(context.Background())
	logger.Info("indexing run finished",
		"reason", reason.String(),
		"files", files,
		"errors", errCount,
	)
	if err := store.Close(); err != nil {
		return err
	}

	if mode == worker.ModeProcess && reason == orchestrator.ReasonExhausted {
		_ = os.Remove(channelDB)
	}
	return nil
}

// barProgress adapts the terminal progress bar to the orchestrator's
// progress sink.
type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p barProgress) Update(shown, indexed, total int, current []string) {
	if total > 0 {
		p.bar.ChangeMax(total)
	}
	_ = p.bar.Set(indexed)
}

func (p barProgress) Publish(percent int) {}
