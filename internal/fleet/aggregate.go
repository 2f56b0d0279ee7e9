// Package fleet reduces all published beacon files into one point-in-time
// snapshot: liveness and staleness classification, activity counts, context
// pressure statistics, and per-session grouping.
//
// The aggregator takes no locks. Every file is a possibly-stale, possibly-
// torn snapshot; anything unreadable or invalid is skipped, never fatal.
package fleet

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/agent-beacon/internal/model"
	obs "github.com/timvw/agent-beacon/internal/otel"
	"github.com/timvw/agent-beacon/internal/proc"
)

var tracer = otel.Tracer("agent-beacon")

// DefaultStaleMs is the staleness threshold applied when none is given.
const DefaultStaleMs = 10_000

// unknownSession groups records that carry no session id.
const unknownSession = "unknown"

// Options tune an aggregation pass.
type Options struct {
	// Alive probes pid liveness; nil means proc.Alive.
	Alive func(pid int) bool
	// Metrics receives pass and skip counters; nil-safe.
	Metrics *obs.Metrics
}

// Aggregate reads every beacon in dir and reduces the live, non-stale
// subset. A missing directory yields an empty fleet, not an error. Output
// is deterministic for identical inputs: the instances array is sorted
// ascending by pid and all counts derive from that order.
func Aggregate(ctx context.Context, dir string, now time.Time, staleMs int64, opts Options) *model.FleetSnapshot {
	ctx, span := tracer.Start(ctx, "fleet_pass",
		trace.WithAttributes(attribute.String("fleet.dir", dir)))
	defer span.End()

	alive := opts.Alive
	if alive == nil {
		alive = proc.Alive
	}

	snap := &model.FleetSnapshot{
		GeneratedAt: now.UnixMilli(),
		StaleMs:     staleMs,
		Aggregate:   model.AggregateNone,
		Sessions:    make(map[string]*model.SessionGroup),
		ByPID:       make(map[string]*model.InstanceRecord),
		Instances:   []model.InstanceRecord{},
	}

	qualifying := readQualifying(ctx, dir, now, staleMs, alive, opts.Metrics)
	opts.Metrics.RecordFleetPass(ctx, len(qualifying))

	sort.Slice(qualifying, func(i, j int) bool {
		return qualifying[i].Process.PID < qualifying[j].Process.PID
	})
	if len(qualifying) > 0 {
		snap.Instances = qualifying
	}

	for i := range snap.Instances {
		rec := snap.Instances[i]
		snap.ByPID[strconv.Itoa(rec.Process.PID)] = &snap.Instances[i]

		snap.Counts.Total++
		countActivity(&snap.Counts.ActivityCounts, rec.Activity.State)
		countContext(&snap.Context, rec.Context)

		key := rec.Session.ID
		if key == "" {
			key = unknownSession
		}
		group, ok := snap.Sessions[key]
		if !ok {
			group = &model.SessionGroup{PIDs: []int{}}
			snap.Sessions[key] = group
		}
		group.PIDs = append(group.PIDs, rec.Process.PID)
		countActivity(&group.Activities, rec.Activity.State)
		countContext(&group.Context, rec.Context)
	}

	snap.Aggregate = aggregateVerdict(snap.Counts)
	span.SetAttributes(
		attribute.Int("fleet.total", snap.Counts.Total),
		attribute.String("fleet.aggregate", snap.Aggregate),
	)
	return snap
}

// readQualifying parses every candidate file independently and keeps the
// alive, non-stale records. Parse failures, schema mismatches, and
// unreadable files are skipped without aborting the pass.
func readQualifying(ctx context.Context, dir string, now time.Time, staleMs int64, alive func(int) bool, metrics *obs.Metrics) []model.InstanceRecord {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var qualifying []model.InstanceRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			metrics.RecordFleetSkip(ctx, "unreadable")
			continue
		}
		var rec model.InstanceRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			metrics.RecordFleetSkip(ctx, "unparseable")
			continue
		}
		if !rec.Valid() {
			metrics.RecordFleetSkip(ctx, "schema")
			continue
		}
		if !alive(rec.Process.PID) {
			metrics.RecordFleetSkip(ctx, "dead")
			continue
		}
		if isStale(rec.UpdatedAt, now, staleMs) {
			metrics.RecordFleetSkip(ctx, "stale")
			continue
		}
		qualifying = append(qualifying, rec)
	}
	return qualifying
}

// isStale classifies a record's last-updated timestamp. Missing or
// non-finite timestamps are stale. The boundary is exclusive: a record
// aged exactly at the threshold is NOT stale.
func isStale(updatedAt *float64, now time.Time, staleMs int64) bool {
	if updatedAt == nil {
		return true
	}
	u := *updatedAt
	if math.IsNaN(u) || math.IsInf(u, 0) {
		return true
	}
	return float64(now.UnixMilli())-u > float64(staleMs)
}

func countActivity(counts *model.ActivityCounts, state string) {
	switch state {
	case model.ActivityWorking:
		counts.Working++
	case model.ActivityWaitingInput:
		counts.WaitingInput++
	default:
		counts.Unknown++
	}
}

func countContext(stats *model.ContextStats, info model.ContextInfo) {
	if info.PercentUsed == nil {
		return
	}
	stats.Reporting++
	if info.CloseToLimit {
		stats.CloseToLimit++
	}
	if info.NearLimit {
		stats.NearLimit++
	}
	if info.AtLimit {
		stats.AtLimit++
	}
	if *info.PercentUsed > stats.MaxPercentUsed {
		stats.MaxPercentUsed = *info.PercentUsed
	}
}

// aggregateVerdict reduces the activity counts to one fleet verdict.
func aggregateVerdict(counts model.FleetCounts) string {
	switch {
	case counts.Total == 0:
		return model.AggregateNone
	case counts.Working == counts.Total:
		return model.AggregateWorking
	case counts.WaitingInput == counts.Total:
		return model.AggregateWaitingInput
	default:
		return model.AggregateMixed
	}
}
