// Package server provides the MCP server implementation for the Notion adapter.
package server

import (
	"context"
	"encoding/json"
)

// WorkspaceToolServer defines the interface for the MCP server that
// handles Notion workspace tool calls from MCP clients.
type WorkspaceToolServer interface {
	// Initialize initializes the server with dependencies and configurations.
	Initialize() error

	// Start starts the MCP server on the stdio transport.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error

	// CallTool dispatches a tool invocation by name, for hosts that embed
	// the adapter instead of speaking MCP to it.
	CallTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error)
}
