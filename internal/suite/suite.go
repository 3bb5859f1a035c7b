// Package suite loads pipeline test suites and runs their cases concurrently.
package suite

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ingest-test/ingesttest-go/internal/compare"
	"github.com/ingest-test/ingesttest-go/internal/domain"
)

// Suite is a named set of test cases, usually read from a JSON file.
type Suite struct {
	Name  string            `json:"name"`
	Cases []domain.TestCase `json:"cases"`
}

// Load reads and validates a suite file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("suite: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a suite.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("suite: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every case up front so that a bad case is reported before
// any engine call is made. Case names must be present and unique.
func (s *Suite) Validate() error {
	if len(s.Cases) == 0 {
		return fmt.Errorf("suite: no cases")
	}
	var errs []error
	seen := make(map[string]bool, len(s.Cases))
	for i, tc := range s.Cases {
		if tc.Name == "" {
			errs = append(errs, fmt.Errorf("suite: cases[%d]: name is required", i))
			continue
		}
		if seen[tc.Name] {
			errs = append(errs, fmt.Errorf("suite: case %q: duplicate name", tc.Name))
			continue
		}
		seen[tc.Name] = true
		if err := domain.ValidateTestCase(tc); err != nil {
			errs = append(errs, fmt.Errorf("suite: case %q: %w", tc.Name, err))
			continue
		}
		if _, err := compare.ValidateExpected(tc.Expected); err != nil {
			errs = append(errs, fmt.Errorf("suite: case %q: %w", tc.Name, err))
		}
	}
	return errors.Join(errs...)
}
