// Package proc captures point-in-time snapshots of the OS process table
// and answers pid liveness probes.
//
// A snapshot is one `ps` invocation parsed into a pid-keyed table. Tables
// are immutable once captured; every routing resolution takes a fresh one.
package proc

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/timvw/agent-beacon/internal/runner"
)

// Row is one process in a table snapshot.
type Row struct {
	PID     int
	PPID    int
	Command string // short name derived from the first argv token
	TTY     string // controlling terminal device path, "" when none
	Args    string // full command line
}

// Table is a pid-keyed snapshot of all processes.
type Table struct {
	rows map[int]Row
}

// NewTable builds a table from explicit rows. Used by tests and by any
// caller that already has process data.
func NewTable(rows []Row) *Table {
	t := &Table{rows: make(map[int]Row, len(rows))}
	for _, r := range rows {
		t.rows[r.PID] = r
	}
	return t
}

// Lookup returns the row for pid, if present.
func (t *Table) Lookup(pid int) (Row, bool) {
	r, ok := t.rows[pid]
	return r, ok
}

// Len returns the number of rows in the snapshot.
func (t *Table) Len() int {
	return len(t.rows)
}

// Snapshot enumerates all processes with a single ps call.
// Returns an empty table when ps is unavailable — process info is
// best-effort, never fatal.
func Snapshot(ctx context.Context, run runner.Runner) *Table {
	out, ok := run.Output(ctx, "ps", "-eo", "pid=,ppid=,tty=,args=")
	if !ok {
		return NewTable(nil)
	}
	return parseTable(out)
}

// parseTable parses `ps -eo pid=,ppid=,tty=,args=` output. Lines that do
// not start with two integers and a tty field are skipped.
func parseTable(out string) *Table {
	var rows []Row
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		pid, err1 := strconv.Atoi(fields[0])
		ppid, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			continue
		}
		args := strings.Join(fields[3:], " ")
		rows = append(rows, Row{
			PID:     pid,
			PPID:    ppid,
			Command: commandName(args),
			TTY:     NormalizeTTY(fields[2]),
			Args:    args,
		})
	}
	return NewTable(rows)
}

// commandName derives the short process name from a full command line:
// basename of the first token, without login-shell dash or the trailing
// colon ps shows for processes that rewrite their argv ("tmux: server").
func commandName(args string) string {
	first := args
	if idx := strings.IndexByte(args, ' '); idx >= 0 {
		first = args[:idx]
	}
	name := filepath.Base(first)
	name = strings.TrimPrefix(name, "-")
	name = strings.TrimSuffix(name, ":")
	return name
}

// NormalizeTTY maps ps tty output to a device path. "?", "??", and "-"
// mean no controlling terminal; bare names like "pts/3" or "ttys001" are
// qualified with /dev/.
func NormalizeTTY(tty string) string {
	switch tty {
	case "", "?", "??", "-":
		return ""
	}
	if strings.HasPrefix(tty, "/") {
		return tty
	}
	return "/dev/" + tty
}

// Alive reports whether pid currently accepts a signal. Signal 0 probes
// existence without delivering anything; EPERM means the process exists
// but belongs to another user, which still counts as alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
