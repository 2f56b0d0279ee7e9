package beacon

import (
	"context"
	"sync"

	"github.com/timvw/agent-beacon/internal/runner"
)

// GitInfo reads branch and commit for a working directory, best-effort.
// A read that fails (no git, not a repository, timeout) falls back to the
// last successfully observed value, so transient failures do not blank
// the beacon's version-control fields mid-session.
type GitInfo struct {
	Run runner.Runner

	mu         sync.Mutex
	lastBranch string
	lastCommit string
}

// Read returns (branch, commit) for cwd. Either may be "" when neither a
// current read nor a cached value exists.
func (g *GitInfo) Read(ctx context.Context, cwd string) (string, string) {
	branch, _ := g.Run.Output(ctx, "git", "-C", cwd, "rev-parse", "--abbrev-ref", "HEAD")
	commit, _ := g.Run.Output(ctx, "git", "-C", cwd, "rev-parse", "--short", "HEAD")

	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastBranch = fallback(branch, g.lastBranch)
	g.lastCommit = fallback(commit, g.lastCommit)
	return g.lastBranch, g.lastCommit
}

// fallback implements the read precedence: current value when present,
// else the cached one, else absent.
func fallback(current, cached string) string {
	if current != "" {
		return current
	}
	return cached
}
