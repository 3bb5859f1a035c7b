// Package tester runs pipeline test cases: it validates the case, asks the
// engine to simulate the pipeline and compares the results with the
// expected documents.
package tester

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ingest-test/ingesttest-go/internal/compare"
	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/jsondiff"
	"github.com/ingest-test/ingesttest-go/internal/observability"
)

// ValidationError wraps a malformed test case.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid test case: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// EngineError wraps a failed simulate call.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string { return "simulate via " + e.Engine + ": " + e.Err.Error() }
func (e *EngineError) Unwrap() error { return e.Err }

// Tester runs test cases against one engine.
type Tester struct {
	sim     engine.Simulator
	metrics *observability.Metrics
	logger  *slog.Logger
	opts    jsondiff.Options
}

// Option configures a Tester.
type Option func(*Tester)

// WithMetrics records comparisons and engine latency.
func WithMetrics(m *observability.Metrics) Option {
	return func(t *Tester) { t.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tester) { t.logger = l }
}

// WithDiffOptions changes the shape of produced diff operations.
func WithDiffOptions(o jsondiff.Options) Option {
	return func(t *Tester) { t.opts = o }
}

// New creates a Tester for sim.
func New(sim engine.Simulator, opts ...Option) *Tester {
	t := &Tester{sim: sim, logger: slog.Default(), opts: jsondiff.DefaultOptions}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run executes one test case. Expected documents are checked before the
// engine is called so a malformed case costs no engine round trip.
func (t *Tester) Run(ctx context.Context, tc domain.TestCase) (*compare.Report, error) {
	ctx, span := otel.Tracer("ingesttest/tester").Start(ctx, "tester.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("pipeline.id", tc.PipelineID),
		attribute.Bool("pipeline.inline", len(tc.Pipeline) > 0),
	)

	report, err := t.run(ctx, tc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("diff.match", report.AllMatch),
		attribute.Int("diff.operations", len(report.Diff)),
	)
	return report, nil
}

func (t *Tester) run(ctx context.Context, tc domain.TestCase) (*compare.Report, error) {
	if err := domain.ValidateTestCase(tc); err != nil {
		return nil, &ValidationError{Err: err}
	}
	if _, err := compare.ValidateExpected(tc.Expected); err != nil {
		return nil, err
	}

	req, err := engine.RequestFor(tc)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	name := engine.NameOf(t.sim)
	start := time.Now()
	sim, err := t.sim.Simulate(ctx, req)
	t.metrics.RecordEngineCall(ctx, name, time.Since(start), err)
	if err != nil {
		t.logger.WarnContext(ctx, "simulate failed", "engine", name, "pipeline", pipelineLabel(tc), "error", err)
		return nil, &EngineError{Engine: name, Err: err}
	}

	report, err := compare.CompareWith(t.opts, *sim, tc.Expected)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	t.metrics.RecordComparison(ctx, pipelineLabel(tc), report.AllMatch, countOps(report.Diff))
	t.logger.InfoContext(ctx, "pipeline test finished",
		"case", tc.Name,
		"pipeline", pipelineLabel(tc),
		"documents", len(report.Normalized),
		"operations", len(report.Diff),
		"match", report.AllMatch,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func pipelineLabel(tc domain.TestCase) string {
	if tc.PipelineID != "" {
		return tc.PipelineID
	}
	return "_inline"
}

func countOps(ops []jsondiff.Operation) map[string]int {
	counts := make(map[string]int)
	for _, op := range ops {
		counts[string(op.Op)]++
	}
	return counts
}
