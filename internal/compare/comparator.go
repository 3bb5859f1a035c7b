package compare

import (
	"fmt"
	"strings"

	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/jsondiff"
)

// Compare normalizes every result of sim, diffs them positionally against
// expected and wraps the engine's native output together with the diff.
func Compare(sim domain.SimulateResult, expected document.Value) (*Report, error) {
	return CompareWith(jsondiff.DefaultOptions, sim, expected)
}

// CompareWith is Compare with explicit diff options.
func CompareWith(opts jsondiff.Options, sim domain.SimulateResult, expected document.Value) (*Report, error) {
	want, err := ValidateExpected(expected)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeAll(sim.Results)
	ops := opts.Diff(normalized, want)

	report := &Report{
		SimulateResults: sim.Raw,
		Diff:            ops,
		Normalized:      normalized,
		AllMatch:        len(ops) == 0,
	}
	report.Summary = summarize(report, len(normalized), len(want))
	return report, nil
}

func summarize(r *Report, actual, expected int) string {
	if r.AllMatch {
		return fmt.Sprintf("all %d documents match", actual)
	}
	var parts []string
	for _, i := range r.DocumentsWithDiff() {
		parts = append(parts, fmt.Sprintf("%d", i))
	}
	summary := fmt.Sprintf("%d operations; divergence in documents: %s", len(r.Diff), strings.Join(parts, ", "))
	if actual != expected {
		summary += fmt.Sprintf(" (pipeline produced %d documents, expected %d)", actual, expected)
	}
	return summary
}
