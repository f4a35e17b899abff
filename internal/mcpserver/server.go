package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the name advertised during MCP initialization.
const ServerName = "stellarbeat"

// NewMCPServer creates a configured MCP server with all Stellarbeat tools registered.
func NewMCPServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s.AddTools(h.Tools()...)
	return s
}
