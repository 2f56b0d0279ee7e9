// Package model holds the shared data types for agent-beacon: the routing
// record resolved per process, the per-pid beacon written to disk, and the
// fleet snapshot produced by the aggregator.
package model

// SchemaVersion is the beacon file format version. The aggregator skips
// files that do not carry this exact value.
const SchemaVersion = 1

// Activity states reported by a beacon. Exactly three buckets; anything
// the host cannot classify is unknown.
const (
	ActivityWorking      = "working"
	ActivityWaitingInput = "waiting_input"
	ActivityUnknown      = "unknown"
)

// Aggregate verdicts across the qualifying fleet.
const (
	AggregateNone         = "none"
	AggregateWorking      = "working"
	AggregateWaitingInput = "waiting_input"
	AggregateMixed        = "mixed"
)

// MuxKind identifies a terminal multiplexer family.
type MuxKind string

const (
	MuxTmux   MuxKind = "tmux"
	MuxZellij MuxKind = "zellij"
	MuxScreen MuxKind = "screen"
	MuxNone   MuxKind = "none"
)

// EvidenceSource records which evidence produced the reconciled routing.
type EvidenceSource string

const (
	SourceEnvironment EvidenceSource = "environment"
	SourceAncestry    EvidenceSource = "ancestry"
	SourceBothAgree   EvidenceSource = "both_agree"
	SourceNone        EvidenceSource = "none"
)

// Zellij tab match tiers, in the order they are tried.
const (
	MatchExact           = "exact"
	MatchSuffix          = "suffix"
	MatchSingleCandidate = "single_candidate"
	MatchNone            = "none"
)

// TmuxPane is the pane hosting this process, located by controlling
// terminal device. Terminal devices are exclusive to one pane, so at most
// one match exists.
type TmuxPane struct {
	// Target is the fully qualified pane identifier ("session:window.pane").
	Target string `json:"target"`
	// WindowName is the tmux window name.
	WindowName string `json:"windowName"`
	// TTY is the pane's controlling terminal device path.
	TTY string `json:"tty"`
}

// TabCandidate is a zellij pane running this binary, discovered in a
// layout dump. Index is the 1-based tab position.
type TabCandidate struct {
	Index   int    `json:"index"`
	TabName string `json:"tabName"`
	CWD     string `json:"cwd"`
}

// ZellijRouting is the outcome of matching the caller's working directory
// against layout candidates. Candidates are reported even when no tier
// matched, for diagnostics.
type ZellijRouting struct {
	TabIndex   int            `json:"tabIndex"`
	TabName    string         `json:"tabName"`
	MatchTier  string         `json:"matchTier"`
	Candidates []TabCandidate `json:"candidates,omitempty"`
}

// RoutingRecord maps a running instance to the terminal, multiplexer, and
// pane/tab physically displaying it. Recomputed fresh on every publish.
type RoutingRecord struct {
	// TTY is the process's controlling terminal device path, empty when
	// the process has none.
	TTY string `json:"tty"`
	// Mux is the reconciled multiplexer family.
	Mux MuxKind `json:"mux"`
	// SessionName is the multiplexer session, empty when unknown.
	SessionName string `json:"sessionName,omitempty"`
	// MuxPID is the multiplexer process id, 0 when unknown. Only the
	// ancestry walk can discover it.
	MuxPID int `json:"muxPid,omitempty"`
	// TerminalApp is the nearest terminal-emulator ancestor, recorded
	// regardless of multiplexer outcome.
	TerminalApp    string `json:"terminalApp,omitempty"`
	TerminalAppPID int    `json:"terminalAppPid,omitempty"`
	// Source records which evidence the reconciler used.
	Source EvidenceSource `json:"evidenceSource"`
	// Env is a snapshot of the multiplexer-related environment variables
	// that were set at resolution time.
	Env map[string]string `json:"env,omitempty"`

	TmuxPane *TmuxPane      `json:"tmuxPane,omitempty"`
	Zellij   *ZellijRouting `json:"zellij,omitempty"`
}

// ProcessInfo identifies the publishing process.
type ProcessInfo struct {
	PID        int    `json:"pid"`
	PPID       int    `json:"ppid,omitempty"`
	Executable string `json:"executable,omitempty"`
	CWD        string `json:"cwd,omitempty"`
}

// ActivityInfo classifies what the instance is doing right now.
type ActivityInfo struct {
	State string `json:"state"`
}

// ContextInfo reports context-window pressure. PercentUsed is nil when the
// host did not report a usage figure.
type ContextInfo struct {
	PercentUsed  *float64 `json:"percentUsed,omitempty"`
	CloseToLimit bool     `json:"closeToLimit"`
	NearLimit    bool     `json:"nearLimit"`
	AtLimit      bool     `json:"atLimit"`
}

// SessionInfo carries host session and model metadata plus best-effort
// version-control context.
type SessionInfo struct {
	ID        string `json:"id,omitempty"`
	Model     string `json:"model,omitempty"`
	GitBranch string `json:"gitBranch,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
}

// InstanceRecord is one beacon file: the full persisted state of one
// publishing process. One file per pid, owned exclusively by that process
// for its lifetime.
//
// UpdatedAt and StartedAt are milliseconds since the Unix epoch. UpdatedAt
// is a pointer so the aggregator can distinguish "missing" from zero.
type InstanceRecord struct {
	SchemaVersion int           `json:"schemaVersion"`
	StartedAt     int64         `json:"startedAt,omitempty"`
	UpdatedAt     *float64      `json:"updatedAt,omitempty"`
	Version       string        `json:"version,omitempty"`
	Process       ProcessInfo   `json:"process"`
	Activity      ActivityInfo  `json:"activity"`
	Context       ContextInfo   `json:"context"`
	Session       SessionInfo   `json:"session"`
	Routing       RoutingRecord `json:"routing"`
}

// ActivityCounts buckets instances by activity state.
type ActivityCounts struct {
	Working      int `json:"working"`
	WaitingInput int `json:"waiting_input"`
	Unknown      int `json:"unknown"`
}

// FleetCounts is the top-level instance tally.
type FleetCounts struct {
	Total int `json:"total"`
	ActivityCounts
}

// ContextStats summarizes context pressure across the qualifying fleet.
type ContextStats struct {
	Reporting      int     `json:"reporting"`
	CloseToLimit   int     `json:"closeToLimit"`
	NearLimit      int     `json:"nearLimit"`
	AtLimit        int     `json:"atLimit"`
	MaxPercentUsed float64 `json:"maxPercentUsed"`
}

// SessionGroup accumulates the qualifying instances sharing one session id.
// PIDs appear in processing order (ascending by pid).
type SessionGroup struct {
	PIDs       []int          `json:"pids"`
	Activities ActivityCounts `json:"activities"`
	Context    ContextStats   `json:"context"`
}

// FleetSnapshot is the aggregator's output document. Derived, ephemeral,
// recomputed on every invocation.
type FleetSnapshot struct {
	GeneratedAt int64                      `json:"generatedAt"`
	StaleMs     int64                      `json:"staleMs"`
	Counts      FleetCounts                `json:"counts"`
	Aggregate   string                     `json:"aggregate"`
	Context     ContextStats               `json:"context"`
	Sessions    map[string]*SessionGroup   `json:"sessions"`
	ByPID       map[string]*InstanceRecord `json:"byPid"`
	Instances   []InstanceRecord           `json:"instances"`
}

// Valid reports whether a parsed record passes the aggregator's schema
// check: the expected schema version and a positive pid.
func (r *InstanceRecord) Valid() bool {
	return r != nil && r.SchemaVersion == SchemaVersion && r.Process.PID > 0
}
