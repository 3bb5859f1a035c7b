package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	commonpb "go.temporal.io/api/common/v1"
	enumspb "go.temporal.io/api/enums/v1"
	workflowpb "go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/ingest-test/ingesttest-go/internal/config"
	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/jsondiff"
	"github.com/ingest-test/ingesttest-go/internal/suite"
	"github.com/ingest-test/ingesttest-go/internal/testutil"
)

const suiteFile = `{
  "name": "titles",
  "cases": [
    {"name": "match", "pipeline_id": "p1", "docs": [{"_source": {}}],
     "expected_docs": [{"_index": "i", "_id": "1", "_source": {"title": "test"}}]}
  ]
}`

const divergingSuiteFile = `{
  "name": "titles",
  "cases": [
    {"name": "diverge", "pipeline_id": "p1", "docs": [{"_source": {}}],
     "expected_docs": [{"_index": "i", "_id": "1", "_source": {"title": "other"}}]}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testDeps(sim engine.Simulator, tc client.Client) Deps {
	return Deps{
		Config: func() (config.Config, error) { return config.Defaults(), nil },
		Simulator: func(context.Context, config.Config) (engine.Simulator, error) {
			return sim, nil
		},
		Temporal: func(config.Config, *slog.Logger) (client.Client, error) {
			if tc == nil {
				return nil, errors.New("no temporal")
			}
			return tc, nil
		},
	}
}

func execute(t *testing.T, deps Deps, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(deps)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_Pass(t *testing.T) {
	path := writeFile(t, "suite.json", suiteFile)
	out, err := execute(t, testDeps(testutil.NewStubSimulator(testutil.OneDocResponse), nil), "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "match")
	assert.Contains(t, out, "titles: 1 passed, 0 failed, 0 errored (1 total)")
}

func TestRun_DivergenceExitsOne(t *testing.T) {
	path := writeFile(t, "suite.json", divergingSuiteFile)
	out, err := execute(t, testDeps(testutil.NewStubSimulator(testutil.OneDocResponse), nil), "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitDiverged, ExitCode(err))
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, `{"op":"replace","path":"/0/_source/title","value":"other","fromValue":"test"}`)
}

func TestRun_EngineErrorExitsTwo(t *testing.T) {
	path := writeFile(t, "suite.json", suiteFile)
	stub := &testutil.StubSimulator{Err: errors.New("connection refused")}
	out, err := execute(t, testDeps(stub, nil), "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, out, "ERROR")
}

func TestRun_JSON(t *testing.T) {
	path := writeFile(t, "suite.json", divergingSuiteFile)
	out, err := execute(t, testDeps(testutil.NewStubSimulator(testutil.OneDocResponse), nil),
		"run", "--json", "--omit-from-value", path)
	assert.Equal(t, ExitDiverged, ExitCode(err))

	var res suite.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Cases[0].Diff, 1)
	assert.Nil(t, res.Cases[0].Diff[0].FromValue)
}

func TestRun_InvalidSuite(t *testing.T) {
	path := writeFile(t, "suite.json", `{"cases":[]}`)
	_, err := execute(t, testDeps(testutil.NewStubSimulator(testutil.OneDocResponse), nil), "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "suite: no cases")
}

func TestRun_ConfigError(t *testing.T) {
	deps := testDeps(nil, nil)
	deps.Config = func() (config.Config, error) { return config.Config{}, errors.New("config: bad mode") }
	_, err := execute(t, deps, "run", "x.json")
	require.EqualError(t, err, "config: bad mode")
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestDiff(t *testing.T) {
	actual := writeFile(t, "actual.json", `[{"_index":"i","_id":"1","_source":{}}]`)
	same := writeFile(t, "same.json", `[{"_id":"1","_index":"i","_source":{}}]`)
	other := writeFile(t, "other.json", `[{"_index":"i","_id":"1","_source":{"title":"test"}}]`)
	notArray := writeFile(t, "obj.json", `{}`)
	three := writeFile(t, "three.json", `[{"_index":"i","_id":"1","_source":{}},{"_id":"2"},{"_id":"3"}]`)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"equal", []string{"diff", actual, same}, ExitOK, `{"diff":[]}`},
		{"scenario B", []string{"diff", actual, other}, ExitDiverged,
			`{"diff":[{"op":"add","path":"/0/_source/title","value":"test"}]}`},
		{"expected not array", []string{"diff", actual, notArray}, ExitFailure, ""},
		{"actual not array", []string{"diff", notArray, actual}, ExitFailure, ""},
		{"missing file", []string{"diff", actual, filepath.Join(t.TempDir(), "nope.json")}, ExitFailure, ""},
		{"wrong arity", []string{"diff", actual}, ExitFailure, ""},
		{"verified divergence", []string{"diff", "--verify", actual, other}, ExitDiverged,
			`{"diff":[{"op":"add","path":"/0/_source/title","value":"test"}]}`},
		{"verified extra documents", []string{"diff", "--verify", three, actual}, ExitDiverged,
			`{"diff":[{"op":"remove","path":"/2"},{"op":"remove","path":"/1"}]}`},
	}
	deps := testDeps(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, deps, tt.args...)
			assert.Equal(t, tt.wantCode, ExitCode(err))
			if tt.wantOut != "" {
				assert.JSONEq(t, tt.wantOut, out)
			}
		})
	}
}

func TestVerifyPatch(t *testing.T) {
	t.Parallel()
	actual, _ := document.MustParse(`[{"a":1,"list":[1,2,3]}]`).AsSequence()
	expected, _ := document.MustParse(`[{"a":1.0,"list":[1]},{"b":true}]`).AsSequence()

	ops := jsondiff.Diff(actual, expected)
	require.NoError(t, verifyPatch(actual, expected, ops))

	err := verifyPatch(actual, expected, ops[:1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not equal")

	bad := []jsondiff.Operation{{Op: jsondiff.OpRemove, Path: jsondiff.Pointer{"9"}}}
	err = verifyPatch(actual, expected, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify:")
}

func TestStatus(t *testing.T) {
	mc := &mocks.Client{}
	mc.On("DescribeWorkflowExecution", mock.Anything, "suite-1", "").Return(
		&workflowservice.DescribeWorkflowExecutionResponse{
			WorkflowExecutionInfo: &workflowpb.WorkflowExecutionInfo{
				Execution: &commonpb.WorkflowExecution{WorkflowId: "suite-1", RunId: "run-1"},
				Status:    enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED,
				StartTime: timestamppb.New(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
				CloseTime: timestamppb.New(time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)),
			},
		}, nil)
	mc.On("Close").Return()

	out, err := execute(t, testDeps(nil, mc), "status", "suite-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Workflow: suite-1")
	assert.Contains(t, out, "Status:   Terminated")
	assert.Contains(t, out, "Closed:   2026-03-01T12:01:00Z")
	mc.AssertExpectations(t)
}

func TestStatus_DialError(t *testing.T) {
	_, err := execute(t, testDeps(nil, nil), "status", "suite-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to create Temporal client")
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitDiverged, ExitCode(diverged("x")))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("x")))
}
