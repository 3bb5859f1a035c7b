package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ingest-test/ingesttest-go/internal/compare"
	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/jsondiff"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// testRequest is the body of a _test call: a simulate request plus the
// documents the pipeline is expected to produce.
type testRequest struct {
	Pipeline json.RawMessage `json:"pipeline"`
	Docs     json.RawMessage `json:"docs"`
	Expected document.Value  `json:"expected_docs"`
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	verbose, err := boolParam(r, "verbose")
	if err != nil {
		writeErr(w, err)
		return
	}
	if verbose {
		writeError(w, http.StatusBadRequest, "verbose is not supported: verbose results cannot be diffed")
		return
	}

	body, err := s.readBody(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req testRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeErr(w, badRequest("malformed request body: "+err.Error()))
		return
	}

	tc := domain.TestCase{
		PipelineID: r.PathValue("id"),
		Pipeline:   req.Pipeline,
		Docs:       req.Docs,
		Expected:   req.Expected,
	}
	report, err := s.tester.Run(r.Context(), tc)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type diffRequest struct {
	Actual   document.Value `json:"actual"`
	Expected document.Value `json:"expected"`
}

type diffResponse struct {
	Diff []jsondiff.Operation `json:"diff"`
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	omit, err := boolParam(r, "omit_from_value")
	if err != nil {
		writeErr(w, err)
		return
	}
	body, err := s.readBody(w, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req diffRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeErr(w, badRequest("malformed request body: "+err.Error()))
		return
	}

	actual, ok := req.Actual.AsSequence()
	if !ok {
		writeErr(w, badRequest("actual must be an array, got "+req.Actual.Kind().String()))
		return
	}
	expected, err := compare.ValidateExpected(req.Expected)
	if err != nil {
		writeErr(w, err)
		return
	}

	opts := jsondiff.Options{OmitFromValue: omit}
	writeJSON(w, http.StatusOK, diffResponse{Diff: opts.Diff(actual, expected)})
}

// readBody returns the request body, or the "source" query parameter when
// the body is empty so that GET requests can carry a payload in the URL.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, badRequest("read request body: " + err.Error())
	}
	if len(strings.TrimSpace(string(data))) > 0 {
		return data, nil
	}
	q := r.URL.Query()
	if src := q.Get("source"); src != "" {
		if ct := q.Get("source_content_type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
			return nil, badRequest("unsupported source_content_type " + strconv.Quote(ct))
		}
		return []byte(src), nil
	}
	return nil, badRequest("request body is required")
}

// boolParam parses a boolean query parameter. A bare "?name" is true.
func boolParam(r *http.Request, name string) (bool, error) {
	q := r.URL.Query()
	if !q.Has(name) {
		return false, nil
	}
	raw := q.Get(name)
	if raw == "" {
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("invalid " + name + " parameter " + strconv.Quote(raw))
	}
	return v, nil
}
