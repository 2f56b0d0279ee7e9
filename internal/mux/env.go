package mux

import (
	"context"

	"github.com/timvw/agent-beacon/internal/model"
	"github.com/timvw/agent-beacon/internal/runner"
)

// envVars are the multiplexer-related environment variables captured into
// the routing record for diagnostics.
var envVars = []string{
	"TMUX",
	"TMUX_PANE",
	"ZELLIJ",
	"ZELLIJ_SESSION_NAME",
	"STY",
	"TERM",
	"TERM_PROGRAM",
	"TERM_PROGRAM_VERSION",
}

// FromEnv reads multiplexer markers from the environment. Zellij markers
// win over tmux: a nested zellij-inside-tmux process belongs to the inner
// multiplexer.
//
// The tmux session name is not in the environment; it requires asking tmux
// for the session of the client attached to this process's terminal. That
// query is tolerant of absence — failure leaves the name empty.
func FromEnv(ctx context.Context, getenv func(string) string, run runner.Runner) Evidence {
	if getenv("ZELLIJ") != "" || getenv("ZELLIJ_SESSION_NAME") != "" {
		return Evidence{Kind: model.MuxZellij, SessionName: getenv("ZELLIJ_SESSION_NAME")}
	}
	if getenv("TMUX") != "" {
		name := ""
		if out, ok := run.Output(ctx, "tmux", "display-message", "-p", "#{session_name}"); ok {
			name = out
		}
		return Evidence{Kind: model.MuxTmux, SessionName: name}
	}
	return Evidence{Kind: model.MuxNone}
}

// EnvSnapshot captures the set multiplexer-related variables.
func EnvSnapshot(getenv func(string) string) map[string]string {
	snap := make(map[string]string)
	for _, key := range envVars {
		if v := getenv(key); v != "" {
			snap[key] = v
		}
	}
	if len(snap) == 0 {
		return nil
	}
	return snap
}
