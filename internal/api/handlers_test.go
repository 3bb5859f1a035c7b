package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingest-test/ingesttest-go/internal/api"
	"github.com/ingest-test/ingesttest-go/internal/compare"
	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/tester"
	"github.com/ingest-test/ingesttest-go/internal/testutil"
)

func newTestServer(t *testing.T, sim engine.Simulator) *httptest.Server {
	t.Helper()
	srv, err := api.New(context.Background(), tester.New(sim), api.Options{CORSOrigins: []string{"*"}})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testutil.NewStubSimulator(testutil.OneDocResponse))

	resp, body := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRequestID_Propagated(t *testing.T) {
	ts := newTestServer(t, testutil.NewStubSimulator(testutil.OneDocResponse))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestPipelineTest_Match(t *testing.T) {
	stub := testutil.NewStubSimulator(testutil.OneDocResponse)
	ts := newTestServer(t, stub)

	resp, body := do(t, http.MethodPost, ts.URL+"/_ingest/pipeline/my-pipeline/_test",
		`{"docs":[{"_index":"i","_id":"1","_source":{}}],"expected_docs":`+testutil.OneDocExpected+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, `{"simulate_results":`+testutil.OneDocResponse+`,"diff":[]}`+"\n", body)

	reqs := stub.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "my-pipeline", reqs[0].PipelineID)
	assert.JSONEq(t, `{"docs":[{"_index":"i","_id":"1","_source":{}}]}`, string(reqs[0].Body))
}

func TestPipelineTest_Diff(t *testing.T) {
	ts := newTestServer(t, testutil.NewStubSimulator(testutil.OneDocResponse))

	resp, body := do(t, http.MethodPost, ts.URL+"/_ingest/pipeline/p1/_test",
		`{"docs":[{"_source":{}}],"expected_docs":[{"_index":"i","_id":"1","_source":{"title":"new"}},{"_source":{}}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var got struct {
		Diff json.RawMessage `json:"diff"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t,
		`[{"op":"replace","path":"/0/_source/title","value":"new","fromValue":"test"},`+
			`{"op":"add","path":"/1","value":{"_source":{}}}]`,
		string(got.Diff))
}

func TestPipelineTest_InlinePipeline(t *testing.T) {
	ts := newTestServer(t, engine.NewFixtureSimulator(""))

	resp, body := do(t, http.MethodPost, ts.URL+"/_ingest/pipeline/_test",
		`{"pipeline":{"processors":[]},"docs":[{"_index":"logs","_id":"9","_source":{"msg":"x"}}],`+
			`"expected_docs":[{"_index":"logs","_id":"9","_source":{"msg":"x"}}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"diff":[]`)
}

func TestPipelineTest_GetWithSourceParam(t *testing.T) {
	stub := testutil.NewStubSimulator(testutil.OneDocResponse)
	ts := newTestServer(t, stub)

	q := url.Values{}
	q.Set("source", `{"docs":[{"_source":{}}],"expected_docs":`+testutil.OneDocExpected+`}`)
	q.Set("source_content_type", "application/json")
	resp, body := do(t, http.MethodGet, ts.URL+"/_ingest/pipeline/p1/_test?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"diff":[]`)
}

func TestPipelineTest_Errors(t *testing.T) {
	missing := &testutil.StubSimulator{Err: &engine.StatusError{StatusCode: 404, Body: "pipeline [nope] is missing"}}
	down := &testutil.StubSimulator{Err: errors.New("dial tcp: connection refused")}
	overloaded := &testutil.StubSimulator{Err: &engine.StatusError{StatusCode: 503}}
	ok := testutil.NewStubSimulator(testutil.OneDocResponse)

	tests := []struct {
		name       string
		sim        engine.Simulator
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"verbose rejected", ok, "/_ingest/pipeline/p1/_test?verbose=true", `{"docs":[{}],"expected_docs":[]}`, 400, "verbose"},
		{"bare verbose rejected", ok, "/_ingest/pipeline/p1/_test?verbose", `{"docs":[{}],"expected_docs":[]}`, 400, "verbose"},
		{"bad verbose", ok, "/_ingest/pipeline/p1/_test?verbose=maybe", `{}`, 400, "invalid verbose"},
		{"malformed body", ok, "/_ingest/pipeline/p1/_test", `{"docs":`, 400, "malformed request body"},
		{"empty body", ok, "/_ingest/pipeline/p1/_test", ``, 400, "request body is required"},
		{"no pipeline", ok, "/_ingest/pipeline/_test", `{"docs":[{}],"expected_docs":[]}`, 400, "pipeline or pipeline_id"},
		{"missing expected", ok, "/_ingest/pipeline/p1/_test", `{"docs":[{}]}`, 400, "invalid expected_docs: missing"},
		{"expected not array", ok, "/_ingest/pipeline/p1/_test", `{"docs":[{}],"expected_docs":{}}`, 400, "must be an array"},
		{"expected item scalar", ok, "/_ingest/pipeline/p1/_test", `{"docs":[{}],"expected_docs":[1]}`, 400, "expected_docs[0]"},
		{"pipeline missing", missing, "/_ingest/pipeline/nope/_test", `{"docs":[{}],"expected_docs":[]}`, 404, "is missing"},
		{"engine down", down, "/_ingest/pipeline/p1/_test", `{"docs":[{}],"expected_docs":[]}`, 502, "connection refused"},
		{"engine 503", overloaded, "/_ingest/pipeline/p1/_test", `{"docs":[{}],"expected_docs":[]}`, 502, "unexpected status 503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.sim)
			resp, body := do(t, http.MethodPost, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, body)

			var got map[string]string
			require.NoError(t, json.Unmarshal([]byte(body), &got))
			assert.Contains(t, got["error"], tt.wantError)
		})
	}
}

func TestPipelineTest_BodyTooLarge(t *testing.T) {
	srv, err := api.New(context.Background(), tester.New(testutil.NewStubSimulator(testutil.OneDocResponse)),
		api.Options{MaxBodyBytes: 64})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, _ := do(t, http.MethodPost, ts.URL+"/_ingest/pipeline/p1/_test", `{"docs":[`+strings.Repeat(`{},`, 100)+`{}]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestDiff(t *testing.T) {
	ts := newTestServer(t, testutil.NewStubSimulator(testutil.OneDocResponse))

	tests := []struct {
		name       string
		query      string
		body       string
		wantStatus int
		want       string
	}{
		{
			name:       "scenario A",
			body:       `{"actual":[{"_index":"i","_id":"1","_source":{}}],"expected":[{"_index":"i","_id":"1","_source":{}}]}`,
			wantStatus: 200,
			want:       `{"diff":[]}`,
		},
		{
			name:       "scenario B",
			body:       `{"actual":[{"_index":"i","_id":"1","_source":{}}],"expected":[{"_index":"i","_id":"1","_source":{"title":"test"}}]}`,
			wantStatus: 200,
			want:       `{"diff":[{"op":"add","path":"/0/_source/title","value":"test"}]}`,
		},
		{
			name:       "scenario C",
			body:       `{"actual":[{"_source":{"title":"old"}}],"expected":[{"_source":{"title":"new"}}]}`,
			wantStatus: 200,
			want:       `{"diff":[{"op":"replace","path":"/0/_source/title","value":"new","fromValue":"old"}]}`,
		},
		{
			name:       "omit from value",
			query:      "?omit_from_value=true",
			body:       `{"actual":[{"_source":{"title":"old"}}],"expected":[{"_source":{"title":"new"}}]}`,
			wantStatus: 200,
			want:       `{"diff":[{"op":"replace","path":"/0/_source/title","value":"new"}]}`,
		},
		{
			name:       "actual not array",
			body:       `{"actual":{},"expected":[]}`,
			wantStatus: 400,
		},
		{
			name:       "expected missing",
			body:       `{"actual":[]}`,
			wantStatus: 400,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/_diff"+tt.query, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, body)
			if tt.want != "" {
				assert.Equal(t, tt.want+"\n", body)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, testutil.NewStubSimulator(testutil.OneDocResponse))
	resp, _ := do(t, http.MethodOptions, ts.URL+"/_ingest/pipeline/p1/_test", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

// reportTester returns a fixed report, to check the wire shape independently
// of the comparison.
type reportTester struct {
	report *compare.Report
	got    domain.TestCase
}

func (r *reportTester) Run(_ context.Context, tc domain.TestCase) (*compare.Report, error) {
	r.got = tc
	return r.report, nil
}

func TestPipelineTest_WireShape(t *testing.T) {
	rt := &reportTester{report: &compare.Report{
		SimulateResults: json.RawMessage(`{"docs":[]}`),
		Summary:         "not on the wire",
		AllMatch:        true,
	}}
	srv, err := api.New(context.Background(), rt, api.Options{})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, body := do(t, http.MethodPost, ts.URL+"/_ingest/pipeline/abc/_test", `{"docs":[{}],"expected_docs":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"simulate_results":{"docs":[]},"diff":null}`, body)
	assert.Equal(t, "abc", rt.got.PipelineID)
}
