// Package mux resolves terminal routing: which multiplexer session and
// which pane or tab a given process is physically running in.
//
// Two independent evidence sources — a process-ancestry walk and the
// environment — are merged by Reconcile, then the family-specific pane/tab
// matcher refines the result. Every external query is best-effort; routing
// never fails, it degrades to "no information".
package mux

import (
	"path/filepath"
	"strings"

	"github.com/timvw/agent-beacon/internal/model"
)

// Evidence is one source's view of the hosting multiplexer. Two instances
// exist per resolution (ancestry and environment); only their merge is
// ever persisted.
type Evidence struct {
	Kind        model.MuxKind
	SessionName string
	// PID is the multiplexer's own process id. Only the ancestry walk can
	// supply it; environment evidence leaves it zero.
	PID int
}

// signature recognizes one multiplexer family in an ancestor's command
// line and knows how to pull a session name out of its arguments.
type signature struct {
	kind    model.MuxKind
	match   func(command, args string) bool
	session func(args string) string
}

// signatures is the closed set of known families, tried in fixed priority
// order at each ancestor.
var signatures = []signature{
	{
		kind:    model.MuxTmux,
		match:   func(cmd, args string) bool { return hasToken(cmd, args, "tmux") },
		session: func(args string) string { return flagValue(args, "-s", "--session") },
	},
	{
		kind:  model.MuxZellij,
		match: func(cmd, args string) bool { return hasToken(cmd, args, "zellij") },
		session: func(args string) string {
			if s := flagValue(args, "-s", "--session"); s != "" {
				return s
			}
			// The zellij server process carries the session as the
			// basename of its --server socket path.
			if p := flagValue(args, "--server"); p != "" {
				return filepath.Base(p)
			}
			return ""
		},
	},
	{
		kind:    model.MuxScreen,
		match:   func(cmd, args string) bool { return hasToken(cmd, args, "screen") },
		session: func(args string) string { return flagValue(args, "-S") },
	},
}

// terminalApps maps lowercased command names to canonical terminal
// emulator names. Closed set; unrecognized ancestors are simply not
// terminal emulators.
var terminalApps = map[string]string{
	"iterm2":                "iTerm2",
	"iterm":                 "iTerm2",
	"terminal":              "Apple Terminal",
	"alacritty":             "Alacritty",
	"kitty":                 "kitty",
	"wezterm":               "WezTerm",
	"wezterm-gui":           "WezTerm",
	"ghostty":               "Ghostty",
	"gnome-terminal-server": "GNOME Terminal",
	"konsole":               "Konsole",
	"xterm":                 "xterm",
	"foot":                  "foot",
	"tilix":                 "Tilix",
	"terminator":            "Terminator",
	"urxvt":                 "urxvt",
	"hyper":                 "Hyper",
	"warp":                  "Warp",
}

// hasToken reports whether name matches the process's short command name
// or the basename of any argument token, case-insensitively.
func hasToken(command, args, name string) bool {
	if strings.EqualFold(command, name) {
		return true
	}
	for _, tok := range strings.Fields(args) {
		base := strings.TrimSuffix(filepath.Base(tok), ":")
		if strings.EqualFold(base, name) {
			return true
		}
	}
	return false
}

// flagValue extracts the value following any of the given flags in a
// command line. Supports both "--flag value" and "--flag=value". Returns
// "" when the flag is absent or has no value — extraction failing is not
// an error, it just leaves the session name undefined.
func flagValue(args string, flags ...string) string {
	tokens := strings.Fields(args)
	for i, tok := range tokens {
		for _, flag := range flags {
			if tok == flag {
				if i+1 < len(tokens) {
					return tokens[i+1]
				}
				return ""
			}
			if strings.HasPrefix(tok, flag+"=") {
				return tok[len(flag)+1:]
			}
		}
	}
	return ""
}
