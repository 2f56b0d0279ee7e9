// Package beacon assembles and publishes the per-process instance record:
// one JSON file per pid, written atomically on lifecycle events and on a
// heartbeat interval, removed on graceful shutdown.
package beacon

import (
	"fmt"
	"os"
)

// Host is the agent runtime's capability object, treated as a black box.
// It supplies the metadata the beacon cannot observe from outside and
// receives notifications about unexpected conditions.
type Host interface {
	// SessionID identifies the agent session, "" when unknown.
	SessionID() string

	// Model names the model the agent is running, "" when unknown.
	Model() string

	// CWD is the agent's current working directory.
	CWD() string

	// ContextUsage reports context-window usage as a percentage.
	// ok is false when the host has no figure.
	ContextUsage() (percent float64, ok bool)

	// Idle reports whether the agent is waiting for input.
	// ok is false when the host cannot tell.
	Idle() (idle bool, ok bool)

	// Notify receives unexpected-condition reports. It must never block
	// or panic; telemetry must never crash the thing it observes.
	Notify(msg string)
}

// StaticHost backs a standalone publisher from fixed values. Used by the
// publish command and by tests.
type StaticHost struct {
	ID        string
	ModelName string
	WorkDir   string

	// Percent is the reported context usage; nil means not reporting.
	Percent *float64
	// IdleState is the reported idle flag; nil means unknown.
	IdleState *bool
}

func (h *StaticHost) SessionID() string { return h.ID }
func (h *StaticHost) Model() string     { return h.ModelName }

func (h *StaticHost) CWD() string {
	if h.WorkDir != "" {
		return h.WorkDir
	}
	cwd, _ := os.Getwd()
	return cwd
}

func (h *StaticHost) ContextUsage() (float64, bool) {
	if h.Percent == nil {
		return 0, false
	}
	return *h.Percent, true
}

func (h *StaticHost) Idle() (bool, bool) {
	if h.IdleState == nil {
		return false, false
	}
	return *h.IdleState, true
}

func (h *StaticHost) Notify(msg string) {
	fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
}
