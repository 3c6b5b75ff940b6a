package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/toolgate/toolgate/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve a guarded MCP server over stdio",
	Long: `Start an MCP server on stdin/stdout with the security guard
installed. Every tools/call request is validated against the effective
policy before the tool handler runs; rejections are returned to the
client as tool-call errors.

All logs go to stderr. stdout carries JSON-RPC exclusively.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(mcp.Config{
		Name:     "toolgate",
		Version:  AppVersion,
		ServerID: cfg.ServerID,
		Policy:   cfg.Policy,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting MCP server",
		"server_id", cfg.ServerID,
		"policy", cfg.Policy.ID,
		"strict_mode", cfg.Policy.StrictMode)

	if err := server.Run(ctx, &sdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serving MCP: %w", err)
	}

	logger.Info("MCP server stopped")
	return nil
}
