package suite

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ingest-test/ingesttest-go/internal/compare"
	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/jsondiff"
)

// CaseRunner runs one test case. Implemented by tester.Tester.
type CaseRunner interface {
	Run(ctx context.Context, tc domain.TestCase) (*compare.Report, error)
}

// CaseResult is the outcome of one case. Error is set when the case could not
// be compared at all; Match and Diff are meaningless in that case.
type CaseResult struct {
	Name    string               `json:"name"`
	Match   bool                 `json:"match"`
	Summary string               `json:"summary,omitempty"`
	Diff    []jsondiff.Operation `json:"diff,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// Status is a one-word label for the case: pass, fail or error.
func (c CaseResult) Status() string {
	switch {
	case c.Error != "":
		return "error"
	case c.Match:
		return "pass"
	}
	return "fail"
}

// NewCaseResult converts a report or a run error into a CaseResult.
func NewCaseResult(name string, report *compare.Report, err error) CaseResult {
	if err != nil {
		return CaseResult{Name: name, Error: err.Error()}
	}
	return CaseResult{
		Name:    name,
		Match:   report.AllMatch,
		Summary: report.Summary,
		Diff:    report.Diff,
	}
}

// Result aggregates a suite run.
type Result struct {
	Name     string        `json:"name"`
	RunID    string        `json:"run_id"`
	Total    int           `json:"total"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Errored  int           `json:"errored"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Cases    []CaseResult  `json:"cases"`
}

// OK reports whether every case matched.
func (r *Result) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

// Tally builds a Result from case results in suite order.
func Tally(name, runID string, cases []CaseResult) *Result {
	res := &Result{Name: name, RunID: runID, Total: len(cases), Cases: cases}
	for _, c := range cases {
		switch c.Status() {
		case "pass":
			res.Passed++
		case "fail":
			res.Failed++
		default:
			res.Errored++
		}
	}
	return res
}

// Options configures Run.
type Options struct {
	// Concurrency bounds the number of cases in flight. Zero or less means 1.
	Concurrency int
	Logger      *slog.Logger
}

// Run executes every case of s with r. Case failures are recorded in the
// result; the returned error is non-nil only when ctx ends first.
func Run(ctx context.Context, r CaseRunner, s *Suite, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := max(opts.Concurrency, 1)
	runID := uuid.NewString()
	start := time.Now()

	cases := make([]CaseResult, len(s.Cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, tc := range s.Cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				cases[i] = NewCaseResult(tc.Name, nil, err)
				return nil
			}
			report, err := r.Run(gctx, tc)
			cases[i] = NewCaseResult(tc.Name, report, err)
			logger.DebugContext(gctx, "suite case done",
				"suite", s.Name, "run_id", runID, "case", tc.Name, "status", cases[i].Status())
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := Tally(s.Name, runID, cases)
	res.Duration = time.Since(start)
	logger.InfoContext(ctx, "suite finished",
		"suite", s.Name,
		"run_id", runID,
		"total", res.Total,
		"passed", res.Passed,
		"failed", res.Failed,
		"errored", res.Errored,
		"duration", res.Duration,
	)
	return res, nil
}
