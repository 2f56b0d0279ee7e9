// Package config loads agent-beacon configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (AGENT_BEACON_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .agent-beacon.yaml in current directory
//  2. ~/.config/agent-beacon/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all agent-beacon configuration.
type Config struct {
	// Dir is the beacon directory; one <pid>.json per publishing process.
	Dir string `yaml:"dir"`

	// Heartbeat is the publish interval as a Go duration string, e.g. "30s".
	// "0", "off", "disable" turn the heartbeat off.
	Heartbeat string `yaml:"heartbeat"`

	// StaleMs is the aggregator staleness threshold in milliseconds.
	StaleMs int64 `yaml:"stale_ms"`

	// BinaryName is the agent command to look for in zellij layouts.
	BinaryName string `yaml:"binary_name"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed durations (not from YAML, set after loading)
	HeartbeatDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Dir:        defaultDir(),
		Heartbeat:  "30s",
		StaleMs:    10_000,
		BinaryName: "claude",
	}
}

// defaultDir derives the beacon directory from the user home directory.
func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "agent-beacon")
	}
	return filepath.Join(home, ".agent-beacon", "instances")
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	mergeEnv(cfg)

	var err error
	cfg.HeartbeatDuration, err = parseDurationOrDisable(cfg.Heartbeat, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid heartbeat interval %q: %w", cfg.Heartbeat, err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".agent-beacon.yaml"); err == nil {
		return ".agent-beacon.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "agent-beacon", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Dir != "" {
		cfg.Dir = file.Dir
	}
	if file.Heartbeat != "" {
		cfg.Heartbeat = file.Heartbeat
	}
	if file.StaleMs > 0 {
		cfg.StaleMs = file.StaleMs
	}
	if file.BinaryName != "" {
		cfg.BinaryName = file.BinaryName
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("AGENT_BEACON_DIR"); v != "" {
		cfg.Dir = v
	}
	if v := os.Getenv("AGENT_BEACON_HEARTBEAT"); v != "" {
		cfg.Heartbeat = v
	}
	if v := os.Getenv("AGENT_BEACON_STALE_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			cfg.StaleMs = ms
		}
	}
	if v := os.Getenv("AGENT_BEACON_BINARY"); v != "" {
		cfg.BinaryName = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable"
// return 0. Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
