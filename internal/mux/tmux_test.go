package mux

import (
	"context"
	"testing"
)

const panesOut = "/dev/pts/2\tmain:0.0\teditor\n" +
	"/dev/pts/5\tmain:1.2\tagent\n" +
	"/dev/ttys007\tside:0.0\tscratch"

func TestMatchTmuxPane(t *testing.T) {
	run := &fakeRunner{outputs: map[string]string{
		"tmux list-panes -a -F " + tmuxPaneFormat: panesOut,
	}}

	pane := MatchTmuxPane(context.Background(), run, "/dev/pts/5")
	if pane == nil {
		t.Fatal("expected a match")
	}
	if pane.Target != "main:1.2" {
		t.Errorf("Target: got %q, want %q", pane.Target, "main:1.2")
	}
	if pane.WindowName != "agent" {
		t.Errorf("WindowName: got %q, want %q", pane.WindowName, "agent")
	}
	if pane.TTY != "/dev/pts/5" {
		t.Errorf("TTY: got %q", pane.TTY)
	}
}

func TestMatchTmuxPane_QualifiesBareDevice(t *testing.T) {
	run := &fakeRunner{outputs: map[string]string{
		"tmux list-panes -a -F " + tmuxPaneFormat: panesOut,
	}}

	pane := MatchTmuxPane(context.Background(), run, "ttys007")
	if pane == nil {
		t.Fatal("expected a match for bare device name")
	}
	if pane.Target != "side:0.0" {
		t.Errorf("Target: got %q, want %q", pane.Target, "side:0.0")
	}
}

func TestMatchTmuxPane_NoMatch(t *testing.T) {
	run := &fakeRunner{outputs: map[string]string{
		"tmux list-panes -a -F " + tmuxPaneFormat: panesOut,
	}}

	if pane := MatchTmuxPane(context.Background(), run, "/dev/pts/99"); pane != nil {
		t.Fatalf("expected no match, got %+v", pane)
	}
}

func TestMatchTmuxPane_Degrades(t *testing.T) {
	// Unknown tty — no query should even be attempted.
	run := &fakeRunner{}
	if pane := MatchTmuxPane(context.Background(), run, ""); pane != nil {
		t.Fatalf("expected nil for unknown tty, got %+v", pane)
	}
	if len(run.calls) != 0 {
		t.Errorf("no calls expected, got %v", run.calls)
	}

	// tmux unavailable.
	if pane := MatchTmuxPane(context.Background(), &fakeRunner{}, "/dev/pts/5"); pane != nil {
		t.Fatalf("expected nil when tmux is unavailable, got %+v", pane)
	}
}
