package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/timvw/agent-beacon/internal/beacon"
)

var (
	flagSessionID string
	flagModel     string
	flagPercent   float64
	flagIdle      bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a beacon for this process until interrupted",
	Long: `Run a standalone beacon publisher: write <dir>/<pid>.json now, refresh it
on the heartbeat interval, and remove it on SIGINT/SIGTERM.

Session id, model, context usage, and idle state come from flags; an agent
runtime embedding this package supplies them through the Host interface
instead. Routing is re-resolved on every publish.`,
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

		host := &beacon.StaticHost{
			ID:        flagSessionID,
			ModelName: flagModel,
		}
		if cmd.Flags().Changed("context-percent") {
			pct := flagPercent
			host.Percent = &pct
		}
		if cmd.Flags().Changed("idle") {
			idle := flagIdle
			host.IdleState = &idle
		}

		pub := beacon.NewPublisher(host, cfg.Dir, cfg.HeartbeatDuration, cfg.BinaryName)
		pub.Version = Version
		if tel != nil {
			pub.Metrics = tel.Metrics
		}

		pub.Start(ctx)
		if flagVerbose {
			fmt.Fprintf(os.Stderr, "publishing %s every %s\n", pub.Path(), cfg.HeartbeatDuration)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		// Stop the heartbeat before removing the file; Shutdown then waits
		// out any cycle already in flight.
		cancel()
		pub.Shutdown()
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&flagSessionID, "session-id", "", "agent session identifier")
	publishCmd.Flags().StringVar(&flagModel, "model", "", "model name to record")
	publishCmd.Flags().Float64Var(&flagPercent, "context-percent", 0, "context window usage percentage")
	publishCmd.Flags().BoolVar(&flagIdle, "idle", false, "report the agent as waiting for input")
	rootCmd.AddCommand(publishCmd)
}
