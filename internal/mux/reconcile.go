package mux

import "github.com/timvw/agent-beacon/internal/model"

// Reconcile merges ancestry-derived and environment-derived evidence into
// the multiplexer fields of a routing record.
//
// Environment variables are set by the multiplexer itself at pane-creation
// time and are authoritative for the session name; only the ancestry walk
// can discover the multiplexer's own pid. So: on agreement, ancestry's pid
// stays primary but an environment session name overwrites ancestry's.
// On disagreement the environment wins outright (the pid found by ancestry
// belongs to a different multiplexer generation, e.g. nested sessions).
func Reconcile(ancestry, env Evidence) model.RoutingRecord {
	switch {
	case ancestry.Kind != model.MuxNone && ancestry.Kind == env.Kind:
		rec := model.RoutingRecord{
			Mux:         ancestry.Kind,
			SessionName: ancestry.SessionName,
			MuxPID:      ancestry.PID,
			Source:      model.SourceBothAgree,
		}
		if env.SessionName != "" {
			rec.SessionName = env.SessionName
		}
		return rec

	case env.Kind != model.MuxNone:
		return model.RoutingRecord{
			Mux:         env.Kind,
			SessionName: env.SessionName,
			Source:      model.SourceEnvironment,
		}

	case ancestry.Kind != model.MuxNone:
		return model.RoutingRecord{
			Mux:         ancestry.Kind,
			SessionName: ancestry.SessionName,
			MuxPID:      ancestry.PID,
			Source:      model.SourceAncestry,
		}

	default:
		return model.RoutingRecord{
			Mux:    model.MuxNone,
			Source: model.SourceNone,
		}
	}
}
