package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/timvw/agent-beacon/internal/config"
	"github.com/timvw/agent-beacon/internal/fleet"
)

var (
	flagStaleMs int64
	flagPretty  bool
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Aggregate all live beacons into one fleet snapshot",
	Long: `Read every beacon file in the beacon directory, discard records whose
process is dead or whose last update is older than the staleness threshold,
and emit one JSON snapshot: activity counts, an aggregate verdict, context
pressure statistics, per-session groups, and the sorted instance list.

Always exits successfully, even when the directory is missing or empty
(counts.total = 0, aggregate = "none"). Unparseable files are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Aggregation always produces a document; a broken config file
		// degrades to defaults rather than failing the invocation.
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: config load failed, using defaults: %v\n", err)
			cfg = config.Defaults()
			if flagDir != "" {
				cfg.Dir = flagDir
			}
		}

		staleMs := cfg.StaleMs
		if cmd.Flags().Changed("stale-ms") {
			staleMs = flagStaleMs
		}
		if staleMs <= 0 {
			staleMs = fleet.DefaultStaleMs
		}

		tel := initTelemetry(ctx, cfg)
		if tel != nil {
			defer tel.Shutdown(ctx)
		}

		opts := fleet.Options{}
		if tel != nil {
			opts.Metrics = tel.Metrics
		}

		snap := fleet.Aggregate(ctx, cfg.Dir, time.Now(), staleMs, opts)

		enc := json.NewEncoder(os.Stdout)
		if flagPretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(snap)
	},
}

func init() {
	fleetCmd.Flags().Int64Var(&flagStaleMs, "stale-ms", fleet.DefaultStaleMs, "staleness threshold in milliseconds (env: AGENT_BEACON_STALE_MS)")
	fleetCmd.Flags().BoolVar(&flagPretty, "pretty", false, "pretty-print the JSON snapshot")
	rootCmd.AddCommand(fleetCmd)
}
