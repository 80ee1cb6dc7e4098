package control

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexStartTool returns the tool definition for index_start
func indexStartTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_start",
		Description: "Start an indexing run over a source tree; returns immediately while the run proceeds",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of the source tree to index",
				},
				"workers": map[string]interface{}{
					"type":        "integer",
					"description": "Number of worker slots (default: number of CPUs)",
					"minimum":     1,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Execution mode: 'goroutine' (in-process) or 'process' (external worker executables)",
					"default":     "goroutine",
				},
				"include_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index *_test.go files",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}
}

// indexStatusTool returns the tool definition for index_status
func indexStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_status",
		Description: "Report progress of the current or most recent indexing run",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// indexInterruptTool returns the tool definition for index_interrupt
func indexInterruptTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_interrupt",
		Description: "Request cooperative interruption of the active indexing run; in-flight files finish first",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
