package engine

import (
	"fmt"

	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/domain"
)

// ParseResponse decodes a simulate response of the form
//
//	{"docs": [{"doc": {...}} | {"error": {...}}, ...]}
//
// Each "doc" carries metadata keys, "_source" and "_ingest". The document
// view of a result is the source content plus the metadata keys present in
// the response; "_ingest" is not part of it. Verbose responses
// ("processor_results") are rejected.
func ParseResponse(raw []byte) (*domain.SimulateResult, error) {
	v, err := document.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("engine: parse response: %w", err)
	}
	root, ok := v.AsMapping()
	if !ok {
		return nil, fmt.Errorf("engine: parse response: expected object, got %s", v.Kind())
	}
	docsVal, ok := root.Get("docs")
	if !ok {
		return nil, fmt.Errorf("engine: parse response: missing docs")
	}
	docs, ok := docsVal.AsSequence()
	if !ok {
		return nil, fmt.Errorf("engine: parse response: docs is %s, not array", docsVal.Kind())
	}

	results := make([]domain.ExecutionResult, 0, len(docs))
	for i, item := range docs {
		r, err := parseResult(item)
		if err != nil {
			return nil, fmt.Errorf("engine: parse response: docs[%d]: %w", i, err)
		}
		results = append(results, r)
	}
	return &domain.SimulateResult{Raw: append([]byte(nil), raw...), Results: results}, nil
}

func parseResult(item document.Value) (domain.ExecutionResult, error) {
	m, ok := item.AsMapping()
	if !ok {
		return domain.ExecutionResult{}, fmt.Errorf("expected object, got %s", item.Kind())
	}
	if m.Has("processor_results") {
		return domain.ExecutionResult{}, fmt.Errorf("verbose results are not supported")
	}
	if errVal, ok := m.Get("error"); ok {
		errMap, ok := errVal.AsMapping()
		if !ok {
			// Some engines report a bare message.
			errMap = document.NewMapping().Set("reason", errVal)
		}
		return domain.ExecutionResult{Error: errMap}, nil
	}
	docVal, ok := m.Get("doc")
	if !ok {
		return domain.ExecutionResult{}, fmt.Errorf("neither doc nor error present")
	}
	doc, ok := docVal.AsMapping()
	if !ok {
		return domain.ExecutionResult{}, fmt.Errorf("doc is %s, not object", docVal.Kind())
	}
	return resultFromDoc(doc)
}

func resultFromDoc(doc *document.Mapping) (domain.ExecutionResult, error) {
	view := document.NewMapping()
	if srcVal, ok := doc.Get(domain.SourceField); ok && !srcVal.IsNull() {
		src, ok := srcVal.AsMapping()
		if !ok {
			return domain.ExecutionResult{}, fmt.Errorf("_source is %s, not object", srcVal.Kind())
		}
		view = src.DeepCopy()
	}

	var meta []domain.MetadataEntry
	for _, field := range domain.MetadataFields {
		v, ok := doc.Get(string(field))
		if !ok {
			continue
		}
		meta = append(meta, domain.MetadataEntry{Field: field, Value: v})
		view.Set(string(field), v)
	}
	return domain.ExecutionResult{Metadata: meta, Document: view}, nil
}
