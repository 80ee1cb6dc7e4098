package control

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"symdex/internal/orchestrator"
	"symdex/internal/scan"
	"symdex/internal/worker"
	"symdex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeRunActive     = -32001 // Another indexing run is already active
	ErrorCodeNoRun         = -32002 // No indexing run started yet
)

// handleIndexStart handles the index_start tool invocation
func (s *Server) handleIndexStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	workers := getIntDefault(args, "workers", defaultWorkerCount())
	includeTests := getBoolDefault(args, "include_tests", true)
	mode := worker.ModeGoroutine
	if getStringDefault(args, "mode", "goroutine") == "process" {
		mode = worker.ModeProcess
	}

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeRunActive, types.ErrRunActive.Error(), nil)
	}

	jobs, err := scan.Discover(path, scan.Options{
		Extensions:   []string{".go", ".c", ".h", ".cpp", ".cc", ".py", ".js", ".ts"},
		IncludeTests: includeTests,
	})
	if err != nil {
		s.lock.Release()
		return nil, newMCPError(ErrorCodeInternalError, "file discovery failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	r, err := s.newRun(mode)
	if err != nil {
		s.lock.Release()
		return nil, newMCPError(ErrorCodeInternalError, "failed to prepare run", map[string]interface{}{
			"error": err.Error(),
		})
	}
	r.state.SetTotalSourceFiles(len(jobs))

	s.mu.Lock()
	s.current = r
	s.mu.Unlock()

	// the run proceeds in the background; index_status observes it
	go func() {
		defer s.lock.Release()
		defer close(r.done)

		runCtx := context.Background()
		r.store.Start(runCtx)

		reason, err := r.orch.Drive(runCtx, jobs, workers, mode)
		r.reason = reason
		r.err = err

		if err := r.store.Close(); err != nil {
			s.logger.Error("failed to close result store", "error", err)
		}
		if err := r.transport.Close(); err != nil {
			s.logger.Error("failed to close transport", "error", err)
		}
		if mode == worker.ModeProcess && reason == orchestrator.ReasonExhausted {
			_ = os.Remove(filepath.Join(s.dataDir, "runs", r.id+".db"))
		}
	}()

	response := map[string]interface{}{
		"run_id":  r.id,
		"jobs":    len(jobs),
		"workers": workers,
		"mode":    mode.String(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexStatus handles the index_status tool invocation
func (s *Server) handleIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()

	if r == nil {
		return nil, newMCPError(ErrorCodeNoRun, types.ErrNoRun.Error(), nil)
	}

	snap := r.state.Snapshot()
	percent := 0
	if snap.TotalSourceFiles > 0 {
		percent = snap.IndexedSourceFiles * 100 / snap.TotalSourceFiles
	}

	response := map[string]interface{}{
		"run_id":         r.id,
		"total_files":    snap.TotalSourceFiles,
		"indexed_files":  snap.IndexedSourceFiles,
		"active_workers": snap.ActiveWorkerCount,
		"interrupted":    snap.Interrupted,
		"percent":        percent,
	}

	select {
	case <-r.done:
		response["finished"] = true
		response["stop_reason"] = r.reason.String()
		if r.err != nil {
			response["error"] = r.err.Error()
		}
	default:
		response["finished"] = false
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexInterrupt handles the index_interrupt tool invocation
func (s *Server) handleIndexInterrupt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()

	if r == nil {
		return nil, newMCPError(ErrorCodeNoRun, types.ErrNoRun.Error(), nil)
	}

	r.orch.HandleInterruptRequest()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"run_id":      r.id,
		"interrupted": true,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is a readable directory
func validatePath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory")
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
