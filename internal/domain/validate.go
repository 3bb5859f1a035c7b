package domain

import (
	"encoding/json"
	"fmt"
)

// ValidateTestCase checks the parts of a TestCase the engine needs. Expected
// documents are validated by the comparison core.
func ValidateTestCase(tc TestCase) error {
	if tc.PipelineID == "" && len(tc.Pipeline) == 0 {
		return fmt.Errorf("pipeline or pipeline_id is required")
	}
	if tc.PipelineID != "" && len(tc.Pipeline) > 0 {
		return fmt.Errorf("pipeline and pipeline_id are mutually exclusive")
	}
	if len(tc.Pipeline) > 0 {
		var p map[string]json.RawMessage
		if err := json.Unmarshal(tc.Pipeline, &p); err != nil {
			return fmt.Errorf("pipeline must be an object: %w", err)
		}
		if p == nil {
			return fmt.Errorf("pipeline must be an object, not null")
		}
	}
	if len(tc.Docs) == 0 {
		return fmt.Errorf("docs is required")
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(tc.Docs, &docs); err != nil || docs == nil {
		return fmt.Errorf("docs must be an array")
	}
	if len(docs) == 0 {
		return fmt.Errorf("docs must contain at least one document")
	}
	if tc.Verbose {
		return fmt.Errorf("verbose simulation is not supported: its results cannot be diffed")
	}
	return nil
}
