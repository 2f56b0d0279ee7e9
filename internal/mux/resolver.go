package mux

import (
	"context"
	"os"

	"github.com/timvw/agent-beacon/internal/model"
	"github.com/timvw/agent-beacon/internal/proc"
	"github.com/timvw/agent-beacon/internal/runner"
)

// Resolver resolves the full routing record for one process. Every field
// is optional for testing; NewResolver fills in the real environment.
type Resolver struct {
	Run    runner.Runner
	Getenv func(string) string
	PID    int
	// BinaryName is the launch command to look for in zellij layouts,
	// i.e. the publishing program's own binary name.
	BinaryName string
}

// NewResolver builds a resolver for the current process.
func NewResolver(binaryName string) *Resolver {
	return &Resolver{
		Run:        &runner.Exec{},
		Getenv:     os.Getenv,
		PID:        os.Getpid(),
		BinaryName: binaryName,
	}
}

// Resolve computes a fresh routing record. It takes a new process-table
// snapshot, walks ancestry, reads the environment, reconciles, and then
// runs the family-specific pane/tab matcher. It never fails: missing
// evidence degrades to "none"/empty fields.
func (r *Resolver) Resolve(ctx context.Context, cwd string) model.RoutingRecord {
	table := proc.Snapshot(ctx, r.Run)

	tty := ""
	if row, ok := table.Lookup(r.PID); ok {
		tty = row.TTY
	}

	ancestry := DetectAncestry(table, r.PID)
	env := FromEnv(ctx, r.Getenv, r.Run)

	rec := Reconcile(ancestry, env)
	rec.TTY = tty
	rec.Env = EnvSnapshot(r.Getenv)
	rec.TerminalApp, rec.TerminalAppPID = DetectTerminalApp(table, r.PID)

	switch rec.Mux {
	case model.MuxTmux:
		rec.TmuxPane = MatchTmuxPane(ctx, r.Run, tty)
	case model.MuxZellij:
		rec.Zellij = MatchZellijTab(ctx, r.Run, rec.SessionName, cwd, r.BinaryName)
	}

	return rec
}
