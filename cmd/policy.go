package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the effective security policy as JSON",
	Long: `Resolve configuration the same way the server does (config file,
environment, --preset override) and print the resulting policy. Useful
for auditing what a deployment actually enforces.`,
	RunE: runPolicy,
}

func init() {
	rootCmd.AddCommand(policyCmd)
}

func runPolicy(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(cfg.Policy, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding policy: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
