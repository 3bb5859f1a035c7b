// Package domain holds the types shared by the engine boundary, the
// comparison core and the transports: execution results and test cases.
package domain

import (
	"encoding/json"
	"fmt"

	"github.com/ingest-test/ingesttest-go/internal/document"
)

// MetadataEntry is one envelope attribute of an execution result. A null
// Value means the engine reported the field without a value.
type MetadataEntry struct {
	Field MetadataField  `json:"field"`
	Value document.Value `json:"value"`
}

// ExecutionResult is the per-document outcome of running a pipeline.
type ExecutionResult struct {
	Metadata []MetadataEntry `json:"metadata,omitempty"`

	// Document is the full key/value view of the transformed document,
	// metadata keys included. Nil when the document failed.
	Document *document.Mapping `json:"document,omitempty"`

	// Error is the engine's error object for a failed document.
	Error *document.Mapping `json:"error,omitempty"`
}

// Failed reports whether the engine rejected this document.
func (r ExecutionResult) Failed() bool {
	return r.Error != nil
}

// SimulateResult is what a pipeline engine returns for one simulate call:
// the engine's native serialization plus the parsed per-document results.
type SimulateResult struct {
	Raw     json.RawMessage   `json:"raw"`
	Results []ExecutionResult `json:"-"`
}

// TestCase is one pipeline test: input documents, the pipeline to run them
// through (by id or inline) and the documents the pipeline should produce.
type TestCase struct {
	Name       string          `json:"name,omitempty"`
	PipelineID string          `json:"pipeline_id,omitempty"`
	Pipeline   json.RawMessage `json:"pipeline,omitempty"`
	Docs       json.RawMessage `json:"docs"`
	Expected   document.Value  `json:"expected_docs"`
	Verbose    bool            `json:"verbose,omitempty"`
}

// SimulateBody builds the request body forwarded to the engine's simulate
// API. Expected documents are never sent to the engine.
func (tc TestCase) SimulateBody() ([]byte, error) {
	body := map[string]json.RawMessage{"docs": tc.Docs}
	if len(tc.Pipeline) > 0 {
		body["pipeline"] = tc.Pipeline
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("simulate body: %w", err)
	}
	return data, nil
}
