package beacon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/timvw/agent-beacon/internal/model"
	"github.com/timvw/agent-beacon/internal/mux"
	obs "github.com/timvw/agent-beacon/internal/otel"
	"github.com/timvw/agent-beacon/internal/runner"
)

// Context pressure thresholds, in percent of the context window.
const (
	closeToLimitPct = 70
	nearLimitPct    = 90
	atLimitPct      = 100
)

// Publish triggers, recorded on the publish metric.
const (
	TriggerSessionStart = "session_start"
	TriggerEvent        = "event"
	TriggerHeartbeat    = "heartbeat"
)

// Publisher owns one beacon file for the lifetime of its process.
// Publish cycles run from lifecycle callbacks and from the heartbeat
// ticker. The mutex serializes cycles against each other and against
// Shutdown: a cycle in flight finishes before Shutdown removes the file,
// and once the publisher is stopped a cycle that was still waiting on
// the lock cannot resurrect it.
type Publisher struct {
	Host     Host
	Resolver *mux.Resolver
	Dir      string
	Interval time.Duration
	Version  string
	Git      *GitInfo
	Metrics  *obs.Metrics
	Now      func() time.Time

	mu        sync.Mutex
	started   bool
	stopped   bool
	startedAt time.Time
}

// NewPublisher builds a publisher for the current process. binaryName is
// the command the agent runs as, used to find its pane in zellij layouts.
func NewPublisher(host Host, dir string, interval time.Duration, binaryName string) *Publisher {
	run := &runner.Exec{}
	return &Publisher{
		Host:     host,
		Resolver: mux.NewResolver(binaryName),
		Dir:      dir,
		Interval: interval,
		Git:      &GitInfo{Run: run},
		Now:      time.Now,
	}
}

// Path returns this process's beacon file path.
func (p *Publisher) Path() string {
	return filepath.Join(p.Dir, strconv.Itoa(p.Resolver.PID)+".json")
}

// Start publishes the initial session-start beacon and launches the
// heartbeat ticker. A second Start on the same publisher is reported to
// the notification sink, never fatal. The ticker goroutine is advisory
// and does not keep the host process alive.
func (p *Publisher) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		p.Host.Notify(fmt.Sprintf("beacon publisher for pid %d started twice", p.Resolver.PID))
		return
	}
	p.started = true
	p.startedAt = p.Now()
	p.mu.Unlock()

	p.Publish(ctx, TriggerSessionStart)

	if p.Interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Publish(ctx, TriggerHeartbeat)
			}
		}
	}()
}

// Publish assembles a fresh record and writes it atomically. Failures are
// reported to the notification sink; nothing propagates out of a publish
// cycle.
func (p *Publisher) Publish(ctx context.Context, trigger string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	rec := p.record(ctx)
	if err := writeAtomic(p.Path(), rec); err != nil {
		p.Host.Notify(fmt.Sprintf("beacon publish failed: %v", err))
		return
	}
	p.Metrics.RecordPublish(ctx, trigger)
	p.Metrics.RecordRouting(ctx, string(rec.Routing.Source), string(rec.Routing.Mux))
}

// Shutdown stops further publishes and removes the beacon file. It waits
// for any publish cycle in flight, so the file cannot reappear after this
// returns. A file that survives because this was never called is evidence
// of an ungraceful exit, which is exactly what the aggregator's liveness
// probe detects.
func (p *Publisher) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if err := os.Remove(p.Path()); err != nil && !os.IsNotExist(err) {
		p.Host.Notify(fmt.Sprintf("beacon remove failed: %v", err))
	}
}

// record assembles the full instance record: routing, activity, context
// pressure, and session metadata.
func (p *Publisher) record(ctx context.Context) model.InstanceRecord {
	now := p.Now()
	cwd := p.Host.CWD()

	updated := float64(now.UnixMilli())
	rec := model.InstanceRecord{
		SchemaVersion: model.SchemaVersion,
		StartedAt:     p.startedAt.UnixMilli(),
		UpdatedAt:     &updated,
		Version:       p.Version,
		Process: model.ProcessInfo{
			PID:        p.Resolver.PID,
			PPID:       os.Getppid(),
			Executable: executableName(),
			CWD:        cwd,
		},
		Activity: model.ActivityInfo{State: activityState(p.Host)},
		Context:  contextInfo(p.Host),
		Session: model.SessionInfo{
			ID:    p.Host.SessionID(),
			Model: p.Host.Model(),
		},
		Routing: p.Resolver.Resolve(ctx, cwd),
	}

	if p.Git != nil {
		rec.Session.GitBranch, rec.Session.GitCommit = p.Git.Read(ctx, cwd)
	}
	return rec
}

// activityState maps the host's idle report onto the three activity
// buckets.
func activityState(h Host) string {
	idle, ok := h.Idle()
	switch {
	case !ok:
		return model.ActivityUnknown
	case idle:
		return model.ActivityWaitingInput
	default:
		return model.ActivityWorking
	}
}

// contextInfo derives the pressure flags from the host's usage report.
func contextInfo(h Host) model.ContextInfo {
	pct, ok := h.ContextUsage()
	if !ok {
		return model.ContextInfo{}
	}
	return model.ContextInfo{
		PercentUsed:  &pct,
		CloseToLimit: pct >= closeToLimitPct,
		NearLimit:    pct >= nearLimitPct,
		AtLimit:      pct >= atLimitPct,
	}
}

// writeAtomic writes the record to path via a temp file and rename, so a
// concurrent reader never observes a partially written document. The
// rename is the sole linearization point.
func writeAtomic(path string, rec model.InstanceRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create beacon dir: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal beacon: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// executableName is the basename of the running binary, best-effort.
func executableName() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Base(exe)
}
