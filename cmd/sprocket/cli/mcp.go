package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprocketdb/sprocket/internal/config"
	"github.com/sprocketdb/sprocket/internal/executor"
	smcp "github.com/sprocketdb/sprocket/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the procedure
lifecycle as tools for AI agents. Supports stdio (default) and HTTP transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for direct integration with MCP clients that launch the server as a
subprocess. In HTTP mode, the server listens on the specified port.`,
		Example: `  sprocket mcp                              # stdio mode
  sprocket mcp --transport http --port 3001  # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(transport string, port int) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store, err := config.NewStore(resolveDataDir())
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}
	defer store.Close()

	// Connect all active targets
	registry := executor.NewRegistry()
	targets, err := store.ListTargets(context.Background())
	if err != nil {
		logger.Warn("failed to load targets", "error", err)
	}
	for _, tgt := range targets {
		if !tgt.IsActive {
			continue
		}
		if err := registry.Connect(tgt.Name, executorConfig(&tgt), tgt.Language); err != nil {
			logger.Error("failed to connect target", "target", tgt.Name, "error", err)
		} else {
			logger.Info("connected target", "target", tgt.Name, "language", tgt.Language)
		}
	}
	defer registry.CloseAll()

	mcpSrv := smcp.NewMCPServer(registry, store, logger)

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		addr := fmt.Sprintf(":%d", port)
		return mcpSrv.ServeHTTP(addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
