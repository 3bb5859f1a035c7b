package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for pipeline testing.
type Metrics struct {
	Comparisons   metric.Int64Counter
	DiffOps       metric.Int64Counter
	EngineLatency metric.Float64Histogram
	EngineErrors  metric.Int64Counter
	ActivityCalls metric.Int64Counter
}

// NewMetrics creates the ingest-test metric instruments on the global meter
// provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("ingesttest")

	comparisons, err := meter.Int64Counter("ingesttest.comparisons",
		metric.WithDescription("Number of pipeline test comparisons, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	diffOps, err := meter.Int64Counter("ingesttest.diff.operations",
		metric.WithDescription("Number of diff operations produced, by operation type"),
	)
	if err != nil {
		return nil, err
	}

	engineLatency, err := meter.Float64Histogram("ingesttest.engine.latency_seconds",
		metric.WithDescription("Time spent in pipeline engine simulate calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	engineErrors, err := meter.Int64Counter("ingesttest.engine.errors",
		metric.WithDescription("Number of failed simulate calls"),
	)
	if err != nil {
		return nil, err
	}

	activityCalls, err := meter.Int64Counter("ingesttest.activity.calls",
		metric.WithDescription("Number of activity invocations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Comparisons:   comparisons,
		DiffOps:       diffOps,
		EngineLatency: engineLatency,
		EngineErrors:  engineErrors,
		ActivityCalls: activityCalls,
	}, nil
}

// RecordComparison records one finished comparison and its operation counts.
func (m *Metrics) RecordComparison(ctx context.Context, pipeline string, match bool, opCounts map[string]int) {
	if m == nil {
		return
	}
	outcome := "diverged"
	if match {
		outcome = "matched"
	}
	m.Comparisons.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("pipeline", pipeline),
			attribute.String("outcome", outcome),
		),
	)
	for op, n := range opCounts {
		m.DiffOps.Add(ctx, int64(n), metric.WithAttributes(attribute.String("op", op)))
	}
}

// RecordEngineCall records the latency of a simulate call and whether it failed.
func (m *Metrics) RecordEngineCall(ctx context.Context, engine string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("engine", engine))
	m.EngineLatency.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.EngineErrors.Add(ctx, 1, attrs)
	}
}

// RecordActivity records an activity invocation.
func (m *Metrics) RecordActivity(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.ActivityCalls.Add(ctx, 1,
		metric.WithAttributes(attribute.String("activity", name)),
	)
}
