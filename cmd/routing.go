package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/timvw/agent-beacon/internal/mux"
)

var routingCmd = &cobra.Command{
	Use:   "routing",
	Short: "Resolve terminal routing for this process",
	Long: `Run one routing resolution for the current process and print the record
as JSON: controlling terminal, multiplexer kind, session, evidence source,
terminal application, and the matched tmux pane or zellij tab.

Useful for debugging why a beacon routes (or fails to route) to a pane.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve cwd: %w", err)
		}

		resolver := mux.NewResolver(cfg.BinaryName)
		rec := resolver.Resolve(cmd.Context(), cwd)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	rootCmd.AddCommand(routingCmd)
}
