// Package mcpserver exposes pipeline testing and suite status via MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ingest-test/ingesttest-go/internal/compare"
	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/jsondiff"
	"github.com/ingest-test/ingesttest-go/internal/temporal/querier"
	"github.com/ingest-test/ingesttest-go/internal/tester"
)

// PipelineTester runs one test case. Implemented by tester.Tester.
type PipelineTester interface {
	Run(ctx context.Context, tc domain.TestCase) (*compare.Report, error)
}

// SuiteQuerier reads suite workflow state. Implemented by
// querier.TemporalQuerier.
type SuiteQuerier interface {
	ListSuites(ctx context.Context, opts querier.ListOptions) ([]querier.WorkflowSummary, error)
	SuiteStatus(ctx context.Context, workflowID string) (*querier.SuiteStatus, error)
}

// RegisterTools registers the MCP tools on server. The suite tools are only
// registered when q is non-nil.
func RegisterTools(server *mcp.Server, t PipelineTester, q SuiteQuerier) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "test_pipeline",
			Description: "Run documents through an ingest pipeline and diff the output against expected documents",
		},
		testPipelineHandler(t),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "diff_documents",
			Description: "Compute the JSON Patch that turns actual documents into expected documents",
		},
		diffDocumentsHandler(),
	)

	if q == nil {
		return
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_suites",
			Description: "List recent suite runs with their status",
		},
		listSuitesHandler(q),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "suite_status",
			Description: "Get progress or the final result of a suite run",
		},
		suiteStatusHandler(q),
	)
}

type testPipelineInput struct {
	PipelineID    string `json:"pipeline_id,omitempty" jsonschema:"id of a stored pipeline; omit when pipeline is given"`
	Pipeline      any    `json:"pipeline,omitempty" jsonschema:"inline pipeline definition with a processors array"`
	Docs          any    `json:"docs" jsonschema:"input documents, each with an optional _index, _id and a _source object"`
	ExpectedDocs  any    `json:"expected_docs" jsonschema:"documents the pipeline should produce"`
	OmitFromValue bool   `json:"omit_from_value,omitempty" jsonschema:"leave fromValue out of replace operations"`
}

type testPipelineOutput struct {
	Match           bool                 `json:"match"`
	Summary         string               `json:"summary"`
	SimulateResults json.RawMessage      `json:"simulate_results"`
	Diff            []jsondiff.Operation `json:"diff"`
}

func testPipelineHandler(t PipelineTester) mcp.ToolHandlerFor[testPipelineInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input testPipelineInput) (*mcp.CallToolResult, any, error) {
		args, err := rawArguments(req)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		tc, err := input.testCase(args)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		report, err := t.Run(ctx, tc)
		var (
			validation *tester.ValidationError
			format     *compare.InvalidExpectedFormatError
		)
		switch {
		case errors.As(err, &validation), errors.As(err, &format):
			return errorResult(err.Error()), nil, nil
		case err != nil:
			return nil, nil, fmt.Errorf("test_pipeline: %w", err)
		}

		diff := report.Diff
		if input.OmitFromValue {
			diff = make([]jsondiff.Operation, len(report.Diff))
			for i, op := range report.Diff {
				op.FromValue = nil
				diff[i] = op
			}
		}
		return textResult(testPipelineOutput{
			Match:           report.AllMatch,
			Summary:         report.Summary,
			SimulateResults: report.SimulateResults,
			Diff:            diff,
		})
	}
}

// testCase builds the case from the raw arguments. The pipeline and docs are
// forwarded byte for byte.
func (in testPipelineInput) testCase(args map[string]json.RawMessage) (domain.TestCase, error) {
	tc := domain.TestCase{
		Name:       "mcp",
		PipelineID: in.PipelineID,
		Pipeline:   present(args["pipeline"]),
		Docs:       present(args["docs"]),
	}
	expected, err := argument(args, "expected_docs")
	if err != nil {
		return tc, err
	}
	tc.Expected = expected
	return tc, nil
}

type diffDocumentsInput struct {
	Actual        any  `json:"actual" jsonschema:"array of actual documents"`
	Expected      any  `json:"expected" jsonschema:"array of expected documents"`
	OmitFromValue bool `json:"omit_from_value,omitempty" jsonschema:"leave fromValue out of replace operations"`
}

func diffDocumentsHandler() mcp.ToolHandlerFor[diffDocumentsInput, any] {
	return func(_ context.Context, req *mcp.CallToolRequest, input diffDocumentsInput) (*mcp.CallToolResult, any, error) {
		args, err := rawArguments(req)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		actualVal, err := argument(args, "actual")
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		actual, ok := actualVal.AsSequence()
		if !ok {
			return errorResult("actual must be an array, got " + actualVal.Kind().String()), nil, nil
		}
		expectedVal, err := argument(args, "expected")
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		expected, err := compare.ValidateExpected(expectedVal)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		opts := jsondiff.Options{OmitFromValue: input.OmitFromValue}
		return textResult(map[string]any{"diff": opts.Diff(actual, expected)})
	}
}

// rawArguments splits the arguments exactly as the client sent them. The
// typed input has been through map[string]any and lost number literals and
// key order, so document-valued fields are read from here.
func rawArguments(req *mcp.CallToolRequest) (map[string]json.RawMessage, error) {
	args := make(map[string]json.RawMessage)
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("arguments: %w", err)
	}
	return args, nil
}

// argument parses one document-valued argument. A missing argument is null.
func argument(args map[string]json.RawMessage, name string) (document.Value, error) {
	raw := present(args[name])
	if raw == nil {
		return document.Null(), nil
	}
	v, err := document.Parse(raw)
	if err != nil {
		return document.Value{}, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// present returns raw unless it is absent or a JSON null.
func present(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

type listSuitesInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter by workflow status, e.g. Running or Completed"`
}

func listSuitesHandler(q SuiteQuerier) mcp.ToolHandlerFor[listSuitesInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input listSuitesInput) (*mcp.CallToolResult, any, error) {
		suites, err := q.ListSuites(ctx, querier.ListOptions{StatusFilter: input.Status})
		if err != nil {
			return nil, nil, fmt.Errorf("list_suites: %w", err)
		}
		return textResult(suites)
	}
}

type workflowIDInput struct {
	WorkflowID string `json:"workflow_id" jsonschema:"id of the suite workflow"`
}

func suiteStatusHandler(q SuiteQuerier) mcp.ToolHandlerFor[workflowIDInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input workflowIDInput) (*mcp.CallToolResult, any, error) {
		if input.WorkflowID == "" {
			return errorResult("workflow_id is required"), nil, nil
		}

		status, err := q.SuiteStatus(ctx, input.WorkflowID)
		if err != nil {
			return nil, nil, fmt.Errorf("suite_status: %w", err)
		}
		return textResult(status)
	}
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
