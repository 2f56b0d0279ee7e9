package mux

import (
	"testing"

	"github.com/timvw/agent-beacon/internal/model"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name        string
		ancestry    Evidence
		env         Evidence
		wantKind    model.MuxKind
		wantSession string
		wantPID     int
		wantSource  model.EvidenceSource
	}{
		{
			name:        "kinds disagree env wins",
			ancestry:    Evidence{Kind: model.MuxTmux, SessionName: "foo", PID: 100},
			env:         Evidence{Kind: model.MuxZellij, SessionName: "bar"},
			wantKind:    model.MuxZellij,
			wantSession: "bar",
			wantPID:     0,
			wantSource:  model.SourceEnvironment,
		},
		{
			name:        "agreement keeps ancestry pid",
			ancestry:    Evidence{Kind: model.MuxTmux, SessionName: "foo", PID: 100},
			env:         Evidence{Kind: model.MuxTmux, SessionName: "foo"},
			wantKind:    model.MuxTmux,
			wantSession: "foo",
			wantPID:     100,
			wantSource:  model.SourceBothAgree,
		},
		{
			name:        "agreement env session overrides",
			ancestry:    Evidence{Kind: model.MuxTmux, SessionName: "stale", PID: 100},
			env:         Evidence{Kind: model.MuxTmux, SessionName: "fresh"},
			wantKind:    model.MuxTmux,
			wantSession: "fresh",
			wantPID:     100,
			wantSource:  model.SourceBothAgree,
		},
		{
			name:        "agreement without env session keeps ancestry session",
			ancestry:    Evidence{Kind: model.MuxZellij, SessionName: "dev", PID: 55},
			env:         Evidence{Kind: model.MuxZellij},
			wantKind:    model.MuxZellij,
			wantSession: "dev",
			wantPID:     55,
			wantSource:  model.SourceBothAgree,
		},
		{
			name:        "ancestry only",
			ancestry:    Evidence{Kind: model.MuxScreen, SessionName: "main", PID: 42},
			env:         Evidence{Kind: model.MuxNone},
			wantKind:    model.MuxScreen,
			wantSession: "main",
			wantPID:     42,
			wantSource:  model.SourceAncestry,
		},
		{
			name:        "environment only",
			ancestry:    Evidence{Kind: model.MuxNone},
			env:         Evidence{Kind: model.MuxTmux, SessionName: "solo"},
			wantKind:    model.MuxTmux,
			wantSession: "solo",
			wantPID:     0,
			wantSource:  model.SourceEnvironment,
		},
		{
			name:       "neither",
			ancestry:   Evidence{Kind: model.MuxNone},
			env:        Evidence{Kind: model.MuxNone},
			wantKind:   model.MuxNone,
			wantSource: model.SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Reconcile(tt.ancestry, tt.env)
			if rec.Mux != tt.wantKind {
				t.Errorf("Mux: got %s, want %s", rec.Mux, tt.wantKind)
			}
			if rec.SessionName != tt.wantSession {
				t.Errorf("SessionName: got %q, want %q", rec.SessionName, tt.wantSession)
			}
			if rec.MuxPID != tt.wantPID {
				t.Errorf("MuxPID: got %d, want %d", rec.MuxPID, tt.wantPID)
			}
			if rec.Source != tt.wantSource {
				t.Errorf("Source: got %s, want %s", rec.Source, tt.wantSource)
			}
		})
	}
}
