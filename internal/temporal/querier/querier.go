package querier

import (
	"context"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	workflowpb "go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"github.com/ingest-test/ingesttest-go/internal/suite"
	"github.com/ingest-test/ingesttest-go/internal/temporal/versioning"
	"github.com/ingest-test/ingesttest-go/internal/temporal/workflows"
)

// WorkflowClient is the subset of client.Client the querier uses.
type WorkflowClient interface {
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
	GetWorkflow(ctx context.Context, workflowID, runID string) client.WorkflowRun
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (converter.EncodedValue, error)
	ListWorkflow(ctx context.Context, request *workflowservice.ListWorkflowExecutionsRequest) (*workflowservice.ListWorkflowExecutionsResponse, error)
}

// TemporalQuerier reads suite workflow state from Temporal.
type TemporalQuerier struct {
	client WorkflowClient
}

// New creates a TemporalQuerier.
func New(c WorkflowClient) *TemporalQuerier {
	return &TemporalQuerier{client: c}
}

// ListSuites lists suite workflow executions using Temporal's visibility API.
func (q *TemporalQuerier) ListSuites(ctx context.Context, opts ListOptions) ([]WorkflowSummary, error) {
	query := fmt.Sprintf("WorkflowType = %q", versioning.WorkflowSuite)
	if opts.TaskQueue != "" {
		query += fmt.Sprintf(" AND TaskQueue = %q", opts.TaskQueue)
	}
	if opts.StatusFilter != "" {
		query += fmt.Sprintf(" AND ExecutionStatus = %q", opts.StatusFilter)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	resp, err := q.client.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
		Query:    query,
		PageSize: int32(pageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}

	summaries := make([]WorkflowSummary, 0, len(resp.Executions))
	for _, exec := range resp.Executions {
		summaries = append(summaries, summarize(exec))
	}
	return summaries, nil
}

// SuiteStatus describes a suite workflow. Completed workflows carry their
// result; running workflows carry the progress query answer.
func (q *TemporalQuerier) SuiteStatus(ctx context.Context, workflowID string) (*SuiteStatus, error) {
	desc, err := q.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return nil, fmt.Errorf("describe workflow: %w", err)
	}
	status := &SuiteStatus{WorkflowSummary: summarize(desc.WorkflowExecutionInfo)}

	switch desc.WorkflowExecutionInfo.Status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var result suite.Result
		if err := q.client.GetWorkflow(ctx, workflowID, "").Get(ctx, &result); err != nil {
			return nil, fmt.Errorf("get workflow result: %w", err)
		}
		status.Result = &result

	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		resp, err := q.client.QueryWorkflow(ctx, workflowID, "", workflows.QueryNameProgress)
		if err != nil {
			return nil, fmt.Errorf("query workflow progress: %w", err)
		}
		var progress workflows.Progress
		if err := resp.Get(&progress); err != nil {
			return nil, fmt.Errorf("decode query result: %w", err)
		}
		status.Progress = &progress
	}
	return status, nil
}

// StatusName returns the short display name of a workflow status.
func StatusName(s enumspb.WorkflowExecutionStatus) string {
	switch s {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return "Running"
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return "Completed"
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:
		return "Failed"
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return "Canceled"
	case enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return "Terminated"
	case enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return "ContinuedAsNew"
	case enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return "TimedOut"
	}
	return "Unspecified"
}

func summarize(info *workflowpb.WorkflowExecutionInfo) WorkflowSummary {
	s := WorkflowSummary{
		WorkflowID: info.GetExecution().GetWorkflowId(),
		RunID:      info.GetExecution().GetRunId(),
		Status:     StatusName(info.GetStatus()),
		TaskQueue:  info.GetTaskQueue(),
	}
	if info.GetStartTime() != nil {
		s.StartTime = info.GetStartTime().AsTime()
	}
	if info.GetCloseTime() != nil {
		s.CloseTime = info.GetCloseTime().AsTime()
	}
	return s
}
