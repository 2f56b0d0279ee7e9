// Package runner executes external tools on a best-effort basis.
//
// Every query the routing subsystem makes (ps, tmux, zellij, git) is
// optional: a missing binary, a non-zero exit, or a timeout all mean "no
// evidence", never an error. Callers branch only on presence of output.
package runner

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single external query.
const DefaultTimeout = 500 * time.Millisecond

// Runner abstracts external command execution for testability.
type Runner interface {
	// Output runs the command and returns its trimmed stdout. ok is false
	// on any failure (missing binary, timeout, non-zero exit).
	Output(ctx context.Context, name string, args ...string) (out string, ok bool)
}

// Exec runs commands via os/exec with a per-call timeout.
type Exec struct {
	// Timeout bounds each call; 0 means DefaultTimeout.
	Timeout time.Duration
}

func (e *Exec) Output(ctx context.Context, name string, args ...string) (string, bool) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}
