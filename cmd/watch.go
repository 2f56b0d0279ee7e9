package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/timvw/agent-beacon/internal/fleet"
	"github.com/timvw/agent-beacon/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live TUI view of the fleet",
	Long: `Launch a terminal UI showing every live, non-stale instance: pid, session,
activity, context pressure, and the resolved pane/tab. Refreshes on the
configured heartbeat interval; press / to filter by session id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		tel := initTelemetry(ctx, cfg)
		if tel != nil {
			defer tel.Shutdown(context.Background())
		}

		opts := fleet.Options{}
		if tel != nil {
			opts.Metrics = tel.Metrics
		}

		tui := &watch.TUI{
			Dir:             cfg.Dir,
			StaleMs:         cfg.StaleMs,
			RefreshInterval: cfg.HeartbeatDuration,
			Options:         opts,
		}
		return tui.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
