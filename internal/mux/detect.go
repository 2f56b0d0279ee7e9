package mux

import (
	"strings"

	"github.com/timvw/agent-beacon/internal/model"
	"github.com/timvw/agent-beacon/internal/proc"
)

// DetectAncestry walks the parent-pid chain starting at the parent of
// startPID, classifying the nearest ancestor matching a known multiplexer
// signature. The starting process is never classified as its own
// multiplexer.
//
// The walk terminates on a match, on a pid with no known parent, or on a
// pid already visited. Parent links in a live table cannot legitimately
// cycle; the visited set guards against unbounded looping on corrupt data.
func DetectAncestry(table *proc.Table, startPID int) Evidence {
	seen := make(map[int]bool)

	row, ok := table.Lookup(startPID)
	if !ok {
		return Evidence{Kind: model.MuxNone}
	}

	for cur := row.PPID; cur > 0 && !seen[cur]; {
		seen[cur] = true
		r, ok := table.Lookup(cur)
		if !ok {
			break
		}
		for _, sig := range signatures {
			if sig.match(r.Command, r.Args) {
				return Evidence{
					Kind:        sig.kind,
					SessionName: sig.session(r.Args),
					PID:         r.PID,
				}
			}
		}
		cur = r.PPID
	}

	return Evidence{Kind: model.MuxNone}
}

// DetectTerminalApp walks the full ancestor chain of startPID (again
// starting at its parent) and returns the nearest known terminal-emulator
// ancestor's canonical name and pid. Independent of the multiplexer walk:
// the result is recorded whether or not a multiplexer was found.
func DetectTerminalApp(table *proc.Table, startPID int) (string, int) {
	seen := make(map[int]bool)

	row, ok := table.Lookup(startPID)
	if !ok {
		return "", 0
	}

	for cur := row.PPID; cur > 0 && !seen[cur]; {
		seen[cur] = true
		r, ok := table.Lookup(cur)
		if !ok {
			break
		}
		if name, ok := terminalApps[strings.ToLower(r.Command)]; ok {
			return name, r.PID
		}
		cur = r.PPID
	}

	return "", 0
}
