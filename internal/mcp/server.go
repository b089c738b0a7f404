// Package mcp exposes the procedure lifecycle over the Model Context
// Protocol, so AI agents can register, inspect, execute, and drop stored
// procedures on connected targets.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sprocketdb/sprocket/internal/config"
	"github.com/sprocketdb/sprocket/internal/definition"
	"github.com/sprocketdb/sprocket/internal/executor"
	"github.com/sprocketdb/sprocket/internal/procedure"
)

// MCPServer wraps the mcp-go server with the sprocket tool and resource
// registrations.
type MCPServer struct {
	registry *executor.Registry
	store    *config.Store
	logger   *slog.Logger
	server   *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all sprocket tools and
// resources. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(registry *executor.Registry, store *config.Store, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		registry: registry,
		store:    store,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"Sprocket Procedure Manager",
		"0.1.0",
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode. This is the primary
// integration path for MCP clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001"). This is suitable for remote MCP clients.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

// manager resolves a target name to its lifecycle manager.
func (s *MCPServer) manager(targetName string) (*procedure.Manager, error) {
	client, err := s.registry.Get(targetName)
	if err != nil {
		return nil, err
	}
	return procedure.NewManager(client, definition.ScriptBuilder{}, s.logger), nil
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
