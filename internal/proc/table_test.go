package proc

import "testing"

func TestParseTable(t *testing.T) {
	out := `
    1     0  ??   /sbin/launchd
  501     1  ??   /usr/sbin/sshd
  742   501  pts/3  -zsh
  901   742  pts/3  tmux: server
 1204   901  pts/4  /usr/local/bin/claude --continue
garbage line
  abc   def  pts/1  not-a-pid
`
	table := parseTable(out)
	if table.Len() != 5 {
		t.Fatalf("expected 5 rows, got %d", table.Len())
	}

	row, ok := table.Lookup(1204)
	if !ok {
		t.Fatal("expected row for pid 1204")
	}
	if row.PPID != 901 {
		t.Errorf("PPID: got %d, want 901", row.PPID)
	}
	if row.Command != "claude" {
		t.Errorf("Command: got %q, want %q", row.Command, "claude")
	}
	if row.TTY != "/dev/pts/4" {
		t.Errorf("TTY: got %q, want %q", row.TTY, "/dev/pts/4")
	}
	if row.Args != "/usr/local/bin/claude --continue" {
		t.Errorf("Args: got %q", row.Args)
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{name: "absolute path", args: "/usr/local/bin/claude --continue", want: "claude"},
		{name: "login shell dash", args: "-zsh", want: "zsh"},
		{name: "rewritten argv", args: "tmux: server", want: "tmux"},
		{name: "bare name", args: "kitty", want: "kitty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commandName(tt.args); got != tt.want {
				t.Errorf("commandName(%q): got %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestNormalizeTTY(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "?", want: ""},
		{in: "??", want: ""},
		{in: "-", want: ""},
		{in: "", want: ""},
		{in: "pts/3", want: "/dev/pts/3"},
		{in: "ttys001", want: "/dev/ttys001"},
		{in: "/dev/pts/3", want: "/dev/pts/3"},
	}
	for _, tt := range tests {
		if got := NormalizeTTY(tt.in); got != tt.want {
			t.Errorf("NormalizeTTY(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAliveSelf(t *testing.T) {
	if !Alive(1) {
		t.Error("pid 1 should be alive")
	}
	if Alive(0) {
		t.Error("pid 0 should not be alive")
	}
	if Alive(-5) {
		t.Error("negative pid should not be alive")
	}
}
