package mux

import (
	"context"
	"strings"

	"github.com/timvw/agent-beacon/internal/model"
	"github.com/timvw/agent-beacon/internal/proc"
	"github.com/timvw/agent-beacon/internal/runner"
)

// tmuxPaneFormat lists every pane across all sessions with its controlling
// terminal device, fully qualified target, and window name.
const tmuxPaneFormat = "#{pane_tty}\t#{session_name}:#{window_index}.#{pane_index}\t#{window_name}"

// MatchTmuxPane locates the pane whose controlling terminal device equals
// tty. Terminal devices are exclusive to one pane, so at most one match
// is possible. Returns nil when tty is unknown or the query yields
// nothing — no information, not an error.
func MatchTmuxPane(ctx context.Context, run runner.Runner, tty string) *model.TmuxPane {
	if tty == "" {
		return nil
	}
	tty = proc.NormalizeTTY(tty)

	out, ok := run.Output(ctx, "tmux", "list-panes", "-a", "-F", tmuxPaneFormat)
	if !ok {
		return nil
	}

	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "\t", 3)
		if len(parts) != 3 {
			continue
		}
		if proc.NormalizeTTY(parts[0]) != tty {
			continue
		}
		return &model.TmuxPane{
			TTY:        parts[0],
			Target:     parts[1],
			WindowName: parts[2],
		}
	}
	return nil
}
