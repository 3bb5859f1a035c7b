// Package compare turns pipeline execution results into canonical documents
// and reports how they diverge from the documents an operator expected.
package compare

import (
	"encoding/json"
	"strconv"

	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/jsondiff"
)

// Report is the outcome of one comparison. Only SimulateResults and Diff are
// part of the wire form.
type Report struct {
	SimulateResults json.RawMessage      `json:"simulate_results"`
	Diff            []jsondiff.Operation `json:"diff"`

	Normalized []document.Value `json:"-"`
	AllMatch   bool             `json:"-"`
	Summary    string           `json:"-"`
}

// DocumentsWithDiff lists the indices of documents that have at least one
// operation, in ascending order.
func (r *Report) DocumentsWithDiff() []int {
	var out []int
	seen := map[string]bool{}
	for _, op := range r.Diff {
		if len(op.Path) == 0 || seen[op.Path[0]] {
			continue
		}
		seen[op.Path[0]] = true
		if i, err := strconv.Atoi(op.Path[0]); err == nil {
			out = append(out, i)
		}
	}
	return out
}
