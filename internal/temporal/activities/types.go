// Package activities defines the Temporal activity I/O structs and the
// Activities implementation that bridges Temporal's serialization boundary
// to the test runner in internal/.
package activities

import (
	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/suite"
)

// Activity names, as registered from the Activities struct methods.
const (
	ActivityRunCase = "RunCase"
)

// RunCaseInput is the activity input for running one suite case.
type RunCaseInput struct {
	TenantID  string          `json:"tenant_id,omitempty"`
	SuiteName string          `json:"suite_name"`
	Case      domain.TestCase `json:"case"`
}

// RunCaseOutput is the activity output of one suite case.
type RunCaseOutput struct {
	Result suite.CaseResult `json:"result"`
}
