// Package engine talks to the pipeline execution engine: it forwards a
// simulate request and parses the per-document results.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ingest-test/ingesttest-go/internal/domain"
)

// Request is one simulate call. PipelineID is empty when Body carries an
// inline pipeline definition.
type Request struct {
	PipelineID string
	Body       json.RawMessage
}

// Simulator runs documents through a pipeline without indexing them.
type Simulator interface {
	Simulate(ctx context.Context, req Request) (*domain.SimulateResult, error)
}

// Named is implemented by simulators that report an engine name for logs
// and metrics.
type Named interface {
	Name() string
}

// NameOf returns s's engine name, or "unknown".
func NameOf(s Simulator) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return "unknown"
}

// RequestFor builds the simulate request for a test case.
func RequestFor(tc domain.TestCase) (Request, error) {
	body, err := tc.SimulateBody()
	if err != nil {
		return Request{}, fmt.Errorf("engine: %w", err)
	}
	return Request{PipelineID: tc.PipelineID, Body: body}, nil
}

// StatusError is returned when the engine answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("engine: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("engine: unexpected status %d: %s", e.StatusCode, e.Body)
}

// NotFound reports whether the engine said the pipeline does not exist.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == 404
}
