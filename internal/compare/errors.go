package compare

import (
	"fmt"

	"github.com/ingest-test/ingesttest-go/internal/document"
)

// InvalidExpectedFormatError reports expected documents that are not an
// array of objects. Index is -1 when the top level itself is wrong.
type InvalidExpectedFormatError struct {
	Index  int
	Reason string
}

func (e *InvalidExpectedFormatError) Error() string {
	if e.Index < 0 {
		return "invalid expected_docs: " + e.Reason
	}
	return fmt.Sprintf("invalid expected_docs[%d]: %s", e.Index, e.Reason)
}

// ValidateExpected checks that expected is a sequence of mappings and
// returns its items.
func ValidateExpected(expected document.Value) ([]document.Value, error) {
	if expected.IsNull() {
		return nil, &InvalidExpectedFormatError{Index: -1, Reason: "missing"}
	}
	items, ok := expected.AsSequence()
	if !ok {
		return nil, &InvalidExpectedFormatError{
			Index:  -1,
			Reason: "must be an array, got " + expected.Kind().String(),
		}
	}
	for i, item := range items {
		if item.Kind() != document.KindMapping {
			return nil, &InvalidExpectedFormatError{
				Index:  i,
				Reason: "must be an object, got " + item.Kind().String(),
			}
		}
	}
	return items, nil
}
