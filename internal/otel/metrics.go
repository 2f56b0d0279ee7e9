package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agent-beacon"

// Metrics holds all OTEL metric instruments for agent-beacon.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Publisher counters
	Publishes metric.Int64Counter // partitioned by trigger: session_start, event, heartbeat

	// Routing counters (partitioned by evidence source + mux kind)
	RoutingResolutions metric.Int64Counter

	// Aggregator counters
	FleetPasses     metric.Int64Counter
	FleetQualifying metric.Int64Counter
	FleetSkips      metric.Int64Counter // partitioned by reason
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Publishes, err = meter.Int64Counter("beacon.publishes",
		metric.WithDescription("Beacon publish cycles partitioned by trigger (session_start, event, heartbeat)"))
	if err != nil {
		return nil, err
	}

	m.RoutingResolutions, err = meter.Int64Counter("routing.resolutions",
		metric.WithDescription("Routing resolutions partitioned by evidence source and multiplexer kind"))
	if err != nil {
		return nil, err
	}

	m.FleetPasses, err = meter.Int64Counter("fleet.passes",
		metric.WithDescription("Fleet aggregation passes"))
	if err != nil {
		return nil, err
	}

	m.FleetQualifying, err = meter.Int64Counter("fleet.qualifying",
		metric.WithDescription("Qualifying (alive, non-stale) instances seen across aggregation passes"),
		metric.WithUnit("{instance}"))
	if err != nil {
		return nil, err
	}

	m.FleetSkips, err = meter.Int64Counter("fleet.skips",
		metric.WithDescription("Beacon files skipped during aggregation partitioned by reason (unreadable, unparseable, schema, dead, stale)"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordPublish records one publish cycle.
func (m *Metrics) RecordPublish(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.Publishes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("publish.trigger", trigger),
	))
}

// RecordRouting records one routing resolution.
func (m *Metrics) RecordRouting(ctx context.Context, source, kind string) {
	if m == nil {
		return
	}
	m.RoutingResolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("routing.source", source),
		attribute.String("routing.mux", kind),
	))
}

// RecordFleetPass records one aggregation pass and its qualifying count.
func (m *Metrics) RecordFleetPass(ctx context.Context, qualifying int) {
	if m == nil {
		return
	}
	m.FleetPasses.Add(ctx, 1)
	m.FleetQualifying.Add(ctx, int64(qualifying))
}

// RecordFleetSkip records one skipped beacon file.
func (m *Metrics) RecordFleetSkip(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.FleetSkips.Add(ctx, 1, metric.WithAttributes(
		attribute.String("skip.reason", reason),
	))
}
