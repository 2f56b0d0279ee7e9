package beacon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timvw/agent-beacon/internal/model"
	"github.com/timvw/agent-beacon/internal/mux"
)

// recordingHost captures notifications and reports fixed values.
type recordingHost struct {
	id      string
	model   string
	cwd     string
	percent *float64
	idle    *bool
	notes   []string
}

func (h *recordingHost) SessionID() string { return h.id }
func (h *recordingHost) Model() string     { return h.model }
func (h *recordingHost) CWD() string       { return h.cwd }

func (h *recordingHost) ContextUsage() (float64, bool) {
	if h.percent == nil {
		return 0, false
	}
	return *h.percent, true
}

func (h *recordingHost) Idle() (bool, bool) {
	if h.idle == nil {
		return false, false
	}
	return *h.idle, true
}

func (h *recordingHost) Notify(msg string) { h.notes = append(h.notes, msg) }

// fakeRunner fails every command, so routing degrades to empty evidence.
type fakeRunner struct{}

func (fakeRunner) Output(context.Context, string, ...string) (string, bool) { return "", false }

// gatedRunner signals when a publish cycle first reaches an external
// query, then blocks it until released.
type gatedRunner struct {
	entered func()
	gate    chan struct{}
}

func (g gatedRunner) Output(context.Context, string, ...string) (string, bool) {
	g.entered()
	<-g.gate
	return "", false
}

func newTestPublisher(t *testing.T, host Host) *Publisher {
	t.Helper()
	return &Publisher{
		Host: host,
		Resolver: &mux.Resolver{
			Run:        fakeRunner{},
			Getenv:     func(string) string { return "" },
			PID:        4242,
			BinaryName: "claude",
		},
		Dir:     t.TempDir(),
		Version: "test",
		Now:     func() time.Time { return time.UnixMilli(1_700_000_000_000) },
	}
}

func TestPublisher_StartWritesValidBeacon(t *testing.T) {
	pct := 75.0
	idle := false
	host := &recordingHost{id: "sess-1", model: "opus", cwd: "/tmp/proj", percent: &pct, idle: &idle}
	pub := newTestPublisher(t, host)

	pub.Start(context.Background())

	data, err := os.ReadFile(pub.Path())
	if err != nil {
		t.Fatalf("beacon not written: %v", err)
	}
	var rec model.InstanceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("beacon not parseable: %v", err)
	}
	if !rec.Valid() {
		t.Errorf("record fails schema check: %+v", rec)
	}
	if rec.Process.PID != 4242 {
		t.Errorf("pid: got %d, want 4242", rec.Process.PID)
	}
	if rec.UpdatedAt == nil || *rec.UpdatedAt != 1_700_000_000_000 {
		t.Errorf("updatedAt: got %v", rec.UpdatedAt)
	}
	if rec.Activity.State != model.ActivityWorking {
		t.Errorf("activity: got %q, want working", rec.Activity.State)
	}
	if rec.Session.ID != "sess-1" || rec.Session.Model != "opus" {
		t.Errorf("session: got %+v", rec.Session)
	}
	if rec.Context.PercentUsed == nil || !rec.Context.CloseToLimit || rec.Context.NearLimit {
		t.Errorf("context: got %+v", rec.Context)
	}
	if rec.Routing.Source != model.SourceNone {
		t.Errorf("routing source: got %q, want none", rec.Routing.Source)
	}
	if base := filepath.Base(pub.Path()); base != strconv.Itoa(4242)+".json" {
		t.Errorf("path: got %q", base)
	}
	if len(host.notes) != 0 {
		t.Errorf("unexpected notifications: %v", host.notes)
	}
}

func TestPublisher_DoubleStartNotifies(t *testing.T) {
	host := &recordingHost{}
	pub := newTestPublisher(t, host)

	pub.Start(context.Background())
	pub.Start(context.Background())

	if len(host.notes) != 1 || !strings.Contains(host.notes[0], "started twice") {
		t.Errorf("notifications: got %v", host.notes)
	}
}

func TestPublisher_ShutdownRemovesFile(t *testing.T) {
	host := &recordingHost{}
	pub := newTestPublisher(t, host)

	pub.Start(context.Background())
	if _, err := os.Stat(pub.Path()); err != nil {
		t.Fatalf("beacon missing before shutdown: %v", err)
	}

	pub.Shutdown()
	if _, err := os.Stat(pub.Path()); !os.IsNotExist(err) {
		t.Errorf("beacon should be removed, stat err: %v", err)
	}

	// A second shutdown on an already-removed file is silent.
	pub.Shutdown()
	if len(host.notes) != 0 {
		t.Errorf("unexpected notifications: %v", host.notes)
	}
}

func TestPublisher_ShutdownOutlastsInflightPublish(t *testing.T) {
	host := &recordingHost{}
	pub := newTestPublisher(t, host)

	entered := make(chan struct{})
	gate := make(chan struct{})
	pub.Resolver.Run = gatedRunner{
		entered: sync.OnceFunc(func() { close(entered) }),
		gate:    gate,
	}

	publishDone := make(chan struct{})
	go func() {
		pub.Publish(context.Background(), TriggerHeartbeat)
		close(publishDone)
	}()
	<-entered // the cycle holds the lock, mid-resolution

	shutdownDone := make(chan struct{})
	go func() {
		pub.Shutdown()
		close(shutdownDone)
	}()

	close(gate)
	<-publishDone
	<-shutdownDone

	if _, err := os.Stat(pub.Path()); !os.IsNotExist(err) {
		t.Errorf("beacon survived shutdown, stat err: %v", err)
	}

	// A heartbeat that fires after shutdown must not bring the file back.
	pub.Publish(context.Background(), TriggerHeartbeat)
	if _, err := os.Stat(pub.Path()); !os.IsNotExist(err) {
		t.Errorf("publish after shutdown recreated the beacon, stat err: %v", err)
	}
}

func TestPublisher_PublishAfterShutdownIsNoop(t *testing.T) {
	host := &recordingHost{}
	pub := newTestPublisher(t, host)

	pub.Start(context.Background())
	pub.Shutdown()

	pub.Publish(context.Background(), TriggerEvent)
	if _, err := os.Stat(pub.Path()); !os.IsNotExist(err) {
		t.Errorf("beacon recreated after shutdown, stat err: %v", err)
	}
	if len(host.notes) != 0 {
		t.Errorf("unexpected notifications: %v", host.notes)
	}
}

func TestPublisher_PublishFailureNotifies(t *testing.T) {
	host := &recordingHost{}
	pub := newTestPublisher(t, host)
	// A regular file where the beacon directory should be makes MkdirAll fail.
	pub.Dir = filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(pub.Dir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	pub.Publish(context.Background(), TriggerEvent)

	if len(host.notes) != 1 || !strings.Contains(host.notes[0], "publish failed") {
		t.Errorf("notifications: got %v", host.notes)
	}
}

func TestActivityState(t *testing.T) {
	idle := true
	busy := false
	tests := []struct {
		name string
		host *recordingHost
		want string
	}{
		{name: "idle maps to waiting_input", host: &recordingHost{idle: &idle}, want: model.ActivityWaitingInput},
		{name: "busy maps to working", host: &recordingHost{idle: &busy}, want: model.ActivityWorking},
		{name: "no report maps to unknown", host: &recordingHost{}, want: model.ActivityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := activityState(tt.host); got != tt.want {
				t.Errorf("activityState: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContextInfo_Thresholds(t *testing.T) {
	tests := []struct {
		pct                  float64
		close, near, atLimit bool
	}{
		{pct: 0},
		{pct: 69.9},
		{pct: 70, close: true},
		{pct: 89.9, close: true},
		{pct: 90, close: true, near: true},
		{pct: 99.9, close: true, near: true},
		{pct: 100, close: true, near: true, atLimit: true},
		{pct: 104, close: true, near: true, atLimit: true},
	}
	for _, tt := range tests {
		host := &recordingHost{percent: &tt.pct}
		got := contextInfo(host)
		if got.PercentUsed == nil || *got.PercentUsed != tt.pct {
			t.Errorf("pct %v: PercentUsed = %v", tt.pct, got.PercentUsed)
		}
		if got.CloseToLimit != tt.close || got.NearLimit != tt.near || got.AtLimit != tt.atLimit {
			t.Errorf("pct %v: got %+v", tt.pct, got)
		}
	}

	if got := contextInfo(&recordingHost{}); got.PercentUsed != nil || got.CloseToLimit {
		t.Errorf("no report: got %+v", got)
	}
}

func TestWriteAtomic_NoTempResidue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.json")

	if err := writeAtomic(path, model.InstanceRecord{SchemaVersion: model.SchemaVersion}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "1.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents: %v", names)
	}
}
