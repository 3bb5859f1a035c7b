package compare

import (
	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/domain"
)

// Normalize converts one execution result into the canonical document shape:
// non-null metadata as strings at the top level, followed by the source
// content under _source with every metadata key stripped out.
//
// A failed result has no metadata and carries the engine error as
// {"_source": {"error": ...}}.
func Normalize(result domain.ExecutionResult) *document.Mapping {
	out := document.NewMapping()
	if result.Failed() {
		src := document.NewMapping().Set("error", document.Map(result.Error.DeepCopy()))
		return out.Set(domain.SourceField, document.Map(src))
	}

	for _, entry := range result.Metadata {
		if entry.Value.IsNull() {
			continue
		}
		out.Set(string(entry.Field), document.String(entry.Value.Text()))
	}

	src := document.NewMapping()
	if result.Document != nil {
		src = result.Document.DeepCopy()
	}
	for _, field := range domain.MetadataFields {
		src.Delete(string(field))
	}
	return out.Set(domain.SourceField, document.Map(src))
}

// NormalizeAll normalizes results in order.
func NormalizeAll(results []domain.ExecutionResult) []document.Value {
	out := make([]document.Value, len(results))
	for i, r := range results {
		out[i] = document.Map(Normalize(r))
	}
	return out
}
