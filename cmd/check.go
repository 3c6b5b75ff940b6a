package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toolgate/toolgate/internal/security"
)

var (
	flagTool string
	flagArgs string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a single tool call against the configured policy",
	Long: `Run one tool call through the full validation pipeline and print the
verdict. Exits non-zero when the call is rejected.

Example:

  toolgate check --tool read_file --args '{"path":"/tmp/notes.txt"}'`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagTool, "tool", "", "tool name to classify and validate (required)")
	checkCmd.Flags().StringVar(&flagArgs, "args", "{}", "tool arguments as a JSON object")
	_ = checkCmd.MarkFlagRequired("tool")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	var arguments any
	if err := json.Unmarshal([]byte(flagArgs), &arguments); err != nil {
		return fmt.Errorf("parsing --args: %w", err)
	}

	validator, err := security.NewValidator(cfg.Policy, logger)
	if err != nil {
		return fmt.Errorf("creating validator: %w", err)
	}

	sctx := security.NewContext(cfg.ServerID, flagTool)
	sanitized, err := validator.ValidateToolCall(cmd.Context(), flagTool, arguments, sctx)
	if err != nil {
		return fmt.Errorf("rejected: %w", err)
	}

	out, err := json.MarshalIndent(sanitized, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "allowed (policy %s, category %s)\n%s\n",
		cfg.Policy.ID, security.ClassifyTool(flagTool), out)
	return nil
}
