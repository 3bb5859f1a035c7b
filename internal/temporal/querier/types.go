// Package querier provides read access to suite workflow state.
package querier

import (
	"time"

	"github.com/ingest-test/ingesttest-go/internal/suite"
	"github.com/ingest-test/ingesttest-go/internal/temporal/workflows"
)

// ListOptions controls filtering for ListSuites.
type ListOptions struct {
	// TaskQueue filters by task queue name. Empty means no filter.
	TaskQueue string
	// StatusFilter filters by workflow status (e.g. "Running", "Completed").
	StatusFilter string
	// PageSize limits the number of results.
	PageSize int
}

// WorkflowSummary is a lightweight overview of a workflow execution.
type WorkflowSummary struct {
	WorkflowID string    `json:"workflow_id"`
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	CloseTime  time.Time `json:"close_time,omitempty"`
	TaskQueue  string    `json:"task_queue"`
}

// SuiteStatus is a suite workflow's status plus whatever state can be read
// for it: live progress while running, the result once completed.
type SuiteStatus struct {
	WorkflowSummary
	Progress *workflows.Progress `json:"progress,omitempty"`
	Result   *suite.Result       `json:"result,omitempty"`
}
