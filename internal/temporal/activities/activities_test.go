package activities_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/ratelimit"
	"github.com/ingest-test/ingesttest-go/internal/temporal/activities"
	"github.com/ingest-test/ingesttest-go/internal/tester"
	"github.com/ingest-test/ingesttest-go/internal/testutil"
)

func testCase(name, expected string) domain.TestCase {
	return domain.TestCase{
		Name:       name,
		PipelineID: "p1",
		Docs:       []byte(`[{"_source":{}}]`),
		Expected:   document.MustParse(expected),
	}
}

func newActivities(sim engine.Simulator) *activities.Activities {
	return &activities.Activities{Runner: tester.New(sim)}
}

func TestRunCase_Match(t *testing.T) {
	a := newActivities(testutil.NewStubSimulator(testutil.OneDocResponse))
	out, err := a.RunCase(context.Background(), activities.RunCaseInput{
		SuiteName: "s",
		Case:      testCase("ok", testutil.OneDocExpected),
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Result.Name)
	assert.True(t, out.Result.Match)
	assert.Empty(t, out.Result.Error)
}

func TestRunCase_Divergence(t *testing.T) {
	a := newActivities(testutil.NewStubSimulator(testutil.OneDocResponse))
	out, err := a.RunCase(context.Background(), activities.RunCaseInput{
		Case: testCase("diff", `[]`),
	})
	require.NoError(t, err)
	assert.False(t, out.Result.Match)
	require.Len(t, out.Result.Diff, 1)
	assert.Equal(t, "remove", string(out.Result.Diff[0].Op))
}

func TestRunCase_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantRetry bool
	}{
		{"not found is final", &engine.StatusError{StatusCode: 404}, false},
		{"bad request is final", &engine.StatusError{StatusCode: 400}, false},
		{"unavailable is retried", &engine.StatusError{StatusCode: 503}, true},
		{"throttled is retried", &engine.StatusError{StatusCode: 429}, true},
		{"transport error is retried", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newActivities(&testutil.StubSimulator{Err: tt.err})
			out, err := a.RunCase(context.Background(), activities.RunCaseInput{
				Case: testCase("c", `[]`),
			})
			if tt.wantRetry {
				require.Error(t, err)
				assert.Contains(t, err.Error(), `run case "c"`)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "error", out.Result.Status())
			assert.NotEmpty(t, out.Result.Error)
		})
	}
}

func TestRunCase_InvalidCaseIsFinal(t *testing.T) {
	stub := testutil.NewStubSimulator(testutil.OneDocResponse)
	a := newActivities(stub)
	tc := testCase("bad", `{}`)
	out, err := a.RunCase(context.Background(), activities.RunCaseInput{Case: tc})
	require.NoError(t, err)
	assert.Contains(t, out.Result.Error, "invalid expected_docs")
	assert.Zero(t, stub.Calls())
}

func TestRunCase_Budget(t *testing.T) {
	a := newActivities(testutil.NewStubSimulator(testutil.OneDocResponse))
	a.Budget = ratelimit.NewBudget(1, time.Minute)
	in := activities.RunCaseInput{TenantID: "t1", Case: testCase("ok", testutil.OneDocExpected)}

	_, err := a.RunCase(context.Background(), in)
	require.NoError(t, err)

	_, err = a.RunCase(context.Background(), in)
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BudgetExceeded", appErr.Type())
	assert.Greater(t, appErr.NextRetryDelay(), time.Duration(0))

	in.TenantID = "t2"
	_, err = a.RunCase(context.Background(), in)
	assert.NoError(t, err)
}
