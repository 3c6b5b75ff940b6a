// Package cmd implements the toolgate command line interface.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/toolgate/toolgate/internal/config"
	"github.com/toolgate/toolgate/internal/log"
	"github.com/toolgate/toolgate/internal/security"
)

var (
	flagConfig string
	flagPreset string
)

var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "Capability-based security policy engine for MCP tool servers",
	Long: `toolgate mediates every MCP tool invocation against a declarative
security policy: path traversal prevention, injection detection,
environment scrubbing, network egress control, and audit logging.

Run 'toolgate mcp' to serve a guarded MCP server over stdio, or
'toolgate check' to validate a single tool call from the shell.`,
	SilenceUsage: true,
}

// Execute is the entry point for the toolgate CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./toolgate.yaml or ~/.toolgate/)")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "policy preset override (restrictive, moderate, permissive)")
}

// loadConfig resolves the effective configuration for a command run,
// honoring --config and --preset flags.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if flagPreset != "" && flagPreset != cfg.Preset {
		cfg.Preset = flagPreset
		var ok bool
		if cfg.Policy, ok = security.PresetByName(flagPreset); !ok {
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownPreset, flagPreset)
		}
	}

	return cfg, nil
}

// newLogger builds the process logger from configuration. Logs always
// go to stderr: stdout carries JSON-RPC in MCP mode.
func newLogger(cfg *config.Config) (log.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{Level: level, JSON: cfg.LogJSON})
	slog.SetDefault(logger)
	return logger, nil
}
