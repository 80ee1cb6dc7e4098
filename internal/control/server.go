package control

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"

	"symdex/internal/channel"
	"symdex/internal/collector"
	"symdex/internal/orchestrator"
	"symdex/internal/worker"
)

const (
	// ServerName is the MCP server name
	ServerName = "symdex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server exposes the orchestrator over MCP: starting runs, reporting
// progress, and requesting interruption.
type Server struct {
	mcp     *server.MCPServer
	logger  *slog.Logger
	dataDir string

	lock runLock

	mu      sync.Mutex
	current *run
}

// run holds the live pieces of one indexing run.
type run struct {
	id        string
	orch      *orchestrator.Orchestrator
	state     *orchestrator.RunState
	store     *collector.Store
	transport channel.Transport

	done   chan struct{}
	reason orchestrator.StopReason
	err    error
}

// NewServer creates the control server. dataDir holds the result store and
// per-run channel databases.
func NewServer(dataDir string, logger *slog.Logger) (*Server, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, "runs"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		logger:  logger,
		dataDir: dataDir,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// Shutdown hard-stops any active run.
func (s *Server) Shutdown() {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r != nil {
		r.orch.Terminate()
		<-r.done
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexStartTool(), s.handleIndexStart)
	s.mcp.AddTool(indexStatusTool(), s.handleIndexStatus)
	s.mcp.AddTool(indexInterruptTool(), s.handleIndexInterrupt)
}

// newRun wires transport, collector, and orchestrator for one run.
func (s *Server) newRun(mode worker.Mode) (*run, error) {
	runID := uuid.NewString()

	var transport channel.Transport
	var launcher worker.Launcher
	var locator worker.Locator

	if mode == worker.ModeProcess {
		dbPath := filepath.Join(s.dataDir, "runs", runID+".db")
		t, err := channel.NewSQLiteTransport(dbPath)
		if err != nil {
			return nil, err
		}
		transport = t

		launcher = worker.NewExecLauncher()
		loc, err := worker.NewSiblingLocator()
		if err != nil {
			_ = t.Close()
			return nil, err
		}
		locator = loc
	} else {
		transport = channel.NewMemoryTransport()
	}

	store, err := collector.NewStore(filepath.Join(s.dataDir, "results.db"), s.logger)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	state := orchestrator.NewRunState()
	factory := worker.NewFactory(transport, launcher, locator, worker.DefaultPayload, worker.ProcessConfig{
		RunID:   runID,
		AppDir:  s.dataDir,
		DataDir: s.dataDir,
	}, s.logger)

	orch := orchestrator.New(orchestrator.Deps{
		Transport: transport,
		Collector: store,
		Factory:   factory,
		RunState:  state,
		Progress:  orchestrator.LogProgress{Logger: s.logger},
		Launcher:  launcher,
		Logger:    s.logger,
	}, orchestrator.Config{})

	return &run{
		id:        runID,
		orch:      orch,
		state:     state,
		store:     store,
		transport: transport,
		done:      make(chan struct{}),
	}, nil
}

func defaultWorkerCount() int {
	return runtime.NumCPU()
}
