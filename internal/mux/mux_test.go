package mux

import (
	"context"
	"strings"
	"testing"
)

// fakeRunner maps "name arg arg..." to canned output. Commands without an
// entry fail, mimicking a missing binary or timeout.
type fakeRunner struct {
	outputs map[string]string
	calls   []string
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) (string, bool) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	out, ok := f.outputs[key]
	return out, ok
}

func TestFlagValue(t *testing.T) {
	tests := []struct {
		name  string
		args  string
		flags []string
		want  string
	}{
		{name: "short flag", args: "tmux new-session -s work", flags: []string{"-s", "--session"}, want: "work"},
		{name: "long flag", args: "zellij --session dev attach", flags: []string{"-s", "--session"}, want: "dev"},
		{name: "equals form", args: "zellij --session=dev", flags: []string{"-s", "--session"}, want: "dev"},
		{name: "flag absent", args: "tmux attach", flags: []string{"-s"}, want: ""},
		{name: "flag without value", args: "tmux new-session -s", flags: []string{"-s"}, want: ""},
		{name: "empty args", args: "", flags: []string{"-s"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flagValue(tt.args, tt.flags...); got != tt.want {
				t.Errorf("flagValue(%q): got %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestHasToken(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    string
		token   string
		want    bool
	}{
		{name: "command match", command: "tmux", args: "", token: "tmux", want: true},
		{name: "case insensitive command", command: "SCREEN", args: "SCREEN -S main", token: "screen", want: true},
		{name: "path token", command: "zellij", args: "/usr/bin/zellij --server /run/z/main", token: "zellij", want: true},
		{name: "rewritten argv colon", command: "tmux", args: "tmux: server", token: "tmux", want: true},
		{name: "no match", command: "zsh", args: "-zsh", token: "tmux", want: false},
		{name: "substring is not a token", command: "tmuxinator", args: "tmuxinator start", token: "tmux", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasToken(tt.command, tt.args, tt.token); got != tt.want {
				t.Errorf("hasToken(%q, %q, %q): got %v, want %v", tt.command, tt.args, tt.token, got, tt.want)
			}
		})
	}
}
