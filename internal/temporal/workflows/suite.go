// Package workflows defines the Temporal workflow functions.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ingest-test/ingesttest-go/internal/suite"
	"github.com/ingest-test/ingesttest-go/internal/temporal/activities"
	"github.com/ingest-test/ingesttest-go/internal/temporal/versioning"
)

// QueryNameProgress is the Temporal Query handler name for suite progress.
const QueryNameProgress = "progress"

// DefaultConcurrency bounds in-flight cases when SuiteInput leaves it unset.
const DefaultConcurrency = 4

// SuiteInput is the input to the suite workflow.
type SuiteInput struct {
	TenantID    string      `json:"tenant_id,omitempty"`
	Suite       suite.Suite `json:"suite"`
	Concurrency int         `json:"concurrency,omitempty"`

	// EngineQueue is the task queue for engine-bound activities. Empty
	// means versioning.QueueEngine.
	EngineQueue string `json:"engine_queue,omitempty"`
}

// Progress is the answer to QueryNameProgress.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Passed    int `json:"passed"`
	Failed    int `json:"failed"`
	Errored   int `json:"errored"`
}

// SuiteWorkflow runs every case of a suite as a RunCase activity, with at
// most Concurrency activities in flight. Case failures are part of the
// result; only an invalid suite fails the workflow.
func SuiteWorkflow(ctx workflow.Context, input SuiteInput) (suite.Result, error) {
	logger := workflow.GetLogger(ctx)
	info := workflow.GetInfo(ctx)
	started := workflow.Now(ctx)

	if err := input.Suite.Validate(); err != nil {
		return suite.Result{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidSuite", err)
	}

	cases := input.Suite.Cases
	results := make([]suite.CaseResult, len(cases))
	progress := Progress{Total: len(cases)}
	if err := workflow.SetQueryHandler(ctx, QueryNameProgress, func() (Progress, error) {
		return progress, nil
	}); err != nil {
		return suite.Result{}, err
	}

	queue := input.EngineQueue
	if queue == "" {
		queue = versioning.QueueEngine
	}
	actCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           queue,
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	})

	limit := input.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	record := func(i int, res suite.CaseResult) {
		results[i] = res
		progress.Completed++
		switch res.Status() {
		case "pass":
			progress.Passed++
		case "fail":
			progress.Failed++
		default:
			progress.Errored++
		}
	}

	sel := workflow.NewSelector(ctx)
	inFlight := 0
	for i, tc := range cases {
		if inFlight == limit {
			sel.Select(ctx)
			inFlight--
		}
		f := workflow.ExecuteActivity(actCtx, activities.ActivityRunCase, activities.RunCaseInput{
			TenantID:  input.TenantID,
			SuiteName: input.Suite.Name,
			Case:      tc,
		})
		sel.AddFuture(f, func(f workflow.Future) {
			var out activities.RunCaseOutput
			if err := f.Get(ctx, &out); err != nil {
				logger.Warn("case failed after retries", "case", tc.Name, "error", err)
				record(i, suite.CaseResult{Name: tc.Name, Error: err.Error()})
				return
			}
			record(i, out.Result)
		})
		inFlight++
	}
	for ; inFlight > 0; inFlight-- {
		sel.Select(ctx)
	}

	res := suite.Tally(input.Suite.Name, info.WorkflowExecution.RunID, results)
	res.Duration = workflow.Now(ctx).Sub(started)
	logger.Info("suite complete",
		"suite", res.Name,
		"total", res.Total,
		"passed", res.Passed,
		"failed", res.Failed,
		"errored", res.Errored,
	)
	return *res, nil
}
