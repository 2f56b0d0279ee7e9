package mux

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/timvw/agent-beacon/internal/model"
	"github.com/timvw/agent-beacon/internal/runner"
)

// MatchZellijTab asks zellij for a dump of the named session's layout and
// matches the caller's working directory against the panes running binary.
// Returns nil when the session name is unknown or the dump is unavailable.
// A dump with no matching tier is still a valid outcome: the candidates
// are reported with tier "none" for diagnostics.
func MatchZellijTab(ctx context.Context, run runner.Runner, session, cwd, binary string) *model.ZellijRouting {
	if session == "" {
		return nil
	}
	out, ok := run.Output(ctx, "zellij", "--session", session, "action", "dump-layout")
	if !ok {
		return nil
	}
	candidates := parseLayoutCandidates(out, binary)
	return matchCandidates(candidates, cwd)
}

// parseLayoutCandidates walks a zellij layout dump line by line. A running
// 1-based tab index increments on every `tab name="…"` marker; within the
// current tab, every pane whose launch command basename equals binary
// becomes a candidate carrying the pane's cwd attribute.
func parseLayoutCandidates(layout, binary string) []model.TabCandidate {
	var candidates []model.TabCandidate
	tabIndex := 0
	tabName := ""

	for _, raw := range strings.Split(layout, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "tab ") {
			if name, ok := kdlAttr(line, "name"); ok {
				tabIndex++
				tabName = name
				continue
			}
		}
		if tabIndex == 0 {
			continue
		}
		command, ok := kdlAttr(line, "command")
		if !ok {
			continue
		}
		if !strings.EqualFold(filepath.Base(command), binary) {
			continue
		}
		cwd, _ := kdlAttr(line, "cwd")
		candidates = append(candidates, model.TabCandidate{
			Index:   tabIndex,
			TabName: tabName,
			CWD:     cwd,
		})
	}
	return candidates
}

// matchCandidates resolves the caller's cwd against the candidate list in
// three ordered tiers, stopping at the first match: exact normalized
// match, suffix (path-ends-with) match, then sole-candidate fallback.
func matchCandidates(candidates []model.TabCandidate, cwd string) *model.ZellijRouting {
	caller := normalizePath(cwd)

	for _, c := range candidates {
		if caller != "" && caller == normalizePath(c.CWD) {
			return &model.ZellijRouting{
				TabIndex:   c.Index,
				TabName:    c.TabName,
				MatchTier:  model.MatchExact,
				Candidates: candidates,
			}
		}
	}

	for _, c := range candidates {
		if pathEndsWith(caller, normalizePath(c.CWD)) {
			return &model.ZellijRouting{
				TabIndex:   c.Index,
				TabName:    c.TabName,
				MatchTier:  model.MatchSuffix,
				Candidates: candidates,
			}
		}
	}

	if len(candidates) == 1 {
		return &model.ZellijRouting{
			TabIndex:   candidates[0].Index,
			TabName:    candidates[0].TabName,
			MatchTier:  model.MatchSingleCandidate,
			Candidates: candidates,
		}
	}

	return &model.ZellijRouting{
		MatchTier:  model.MatchNone,
		Candidates: candidates,
	}
}

// kdlAttr extracts a double-quoted key="value" attribute from a layout
// line. Layout dumps do not escape quotes inside attribute values, so a
// plain scan to the closing quote is sufficient.
func kdlAttr(line, key string) (string, bool) {
	marker := key + "=\""
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// normalizePath lowercases a path, converts backslashes to forward
// slashes, and trims any trailing slash.
func normalizePath(p string) string {
	p = strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// pathEndsWith reports whether caller equals candidate or ends with it at
// a path-component boundary. Both arguments must already be normalized.
func pathEndsWith(caller, candidate string) bool {
	if caller == "" || candidate == "" {
		return false
	}
	if caller == candidate {
		return true
	}
	if strings.HasPrefix(candidate, "/") {
		return strings.HasSuffix(caller, candidate)
	}
	return strings.HasSuffix(caller, "/"+candidate)
}
