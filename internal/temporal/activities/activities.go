package activities

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/observability"
	"github.com/ingest-test/ingesttest-go/internal/ratelimit"
	"github.com/ingest-test/ingesttest-go/internal/suite"
	"github.com/ingest-test/ingesttest-go/internal/tester"
)

// Activities holds the dependencies for all Temporal activities.
// Each method is registered as a Temporal activity.
type Activities struct {
	Runner  suite.CaseRunner
	Budget  *ratelimit.Budget     // nil = no budget enforcement
	Metrics *observability.Metrics // nil = no metrics
}

// checkBudget enforces per-tenant activity budgets when configured. An
// exhausted budget is retried once the window frees a slot.
func (a *Activities) checkBudget(tenantID, activityName string) error {
	if a.Budget == nil {
		return nil
	}
	err := a.Budget.Allow(tenantID, activityName)
	var exceeded *ratelimit.BudgetExceededError
	if errors.As(err, &exceeded) {
		return temporal.NewApplicationErrorWithOptions(err.Error(), "BudgetExceeded", temporal.ApplicationErrorOptions{
			NextRetryDelay: max(time.Until(exceeded.RetryAt), time.Second),
			Cause:          err,
		})
	}
	return err
}

// RunCase runs one test case. Outcomes that a retry cannot change (a match,
// a divergence, an invalid case, an engine 4xx) are returned as the case
// result. Transient engine failures are returned as errors so Temporal
// retries them.
func (a *Activities) RunCase(ctx context.Context, in RunCaseInput) (RunCaseOutput, error) {
	if err := a.checkBudget(in.TenantID, ActivityRunCase); err != nil {
		return RunCaseOutput{}, err
	}
	a.Metrics.RecordActivity(ctx, ActivityRunCase)

	report, err := a.Runner.Run(ctx, in.Case)
	if err != nil && retryable(err) {
		return RunCaseOutput{}, fmt.Errorf("run case %q: %w", in.Case.Name, err)
	}
	return RunCaseOutput{Result: suite.NewCaseResult(in.Case.Name, report, err)}, nil
}

func retryable(err error) bool {
	var engineErr *tester.EngineError
	if !errors.As(err, &engineErr) {
		return false
	}
	var statusErr *engine.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
