// Package testutil holds engine stubs shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/engine"
)

// StubSimulator returns a canned simulate response, or Err when set.
// It records every request it receives.
type StubSimulator struct {
	Response string
	Err      error

	mu       sync.Mutex
	requests []engine.Request
}

// NewStubSimulator answers every call with response.
func NewStubSimulator(response string) *StubSimulator {
	return &StubSimulator{Response: response}
}

// Name implements engine.Named.
func (s *StubSimulator) Name() string { return "stub" }

// Simulate implements engine.Simulator.
func (s *StubSimulator) Simulate(ctx context.Context, req engine.Request) (*domain.SimulateResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, engine.Request{
		PipelineID: req.PipelineID,
		Body:       append(json.RawMessage(nil), req.Body...),
	})
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return engine.ParseResponse([]byte(s.Response))
}

// Requests returns the requests received so far.
func (s *StubSimulator) Requests() []engine.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.Request(nil), s.requests...)
}

// Calls returns the number of Simulate calls.
func (s *StubSimulator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// OneDocResponse is a simulate response with a single successful document
// {"_index":"i","_id":"1","_source":{"title":"test"}}.
const OneDocResponse = `{"docs":[{"doc":{"_index":"i","_id":"1","_source":{"title":"test"},` +
	`"_ingest":{"timestamp":"2026-01-01T00:00:00Z"}}}]}`

// OneDocExpected matches OneDocResponse.
const OneDocExpected = `[{"_index":"i","_id":"1","_source":{"title":"test"}}]`
