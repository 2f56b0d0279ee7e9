package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/timvw/agent-beacon/internal/config"
	telem "github.com/timvw/agent-beacon/internal/otel"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

var (
	// Global flags.
	flagDir     string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "agent-beacon",
	Short: "Per-process terminal telemetry for AI coding agents",
	Long: `agent-beacon publishes per-process liveness and activity telemetry to disk
and resolves which terminal session (and which multiplexer pane or tab)
each publishing process is physically running in.

Each agent process owns one <pid>.json beacon file, rewritten atomically
on lifecycle events and on a heartbeat interval. The fleet command reads
all beacons and reduces the live, non-stale subset into one snapshot for
dashboards, daemons, and alerting.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", envOrDefault("AGENT_BEACON_DIR", ""), "beacon directory (default: ~/.agent-beacon/instances)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log resolution details to stderr")
}

// loadConfig resolves configuration and applies the global --dir override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagDir != "" {
		cfg.Dir = flagDir
	}
	if flagVerbose && cfg.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "config: loaded %s\n", cfg.ConfigFile)
	}
	return cfg, nil
}

// initTelemetry wires build version into OTEL and initializes exporters.
// Returns nil on failure — observability must never block the tool.
func initTelemetry(ctx context.Context, cfg *config.Config) *telem.Telemetry {
	telem.Version = Version
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
		return nil
	}
	return tel
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
