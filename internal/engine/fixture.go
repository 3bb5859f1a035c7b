package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/domain"
)

// FixtureSimulator answers simulate calls without an engine. A pipeline id
// with a <dir>/<id>.json file gets that file as its response; every other
// call runs the documents through an identity pipeline, which returns each
// document unchanged the way the simulate API renders it.
type FixtureSimulator struct {
	Dir string

	now func() time.Time
}

// NewFixtureSimulator creates a simulator reading fixtures from dir. An empty
// dir means identity simulation only.
func NewFixtureSimulator(dir string) *FixtureSimulator {
	return &FixtureSimulator{Dir: dir, now: time.Now}
}

// Name implements Named.
func (f *FixtureSimulator) Name() string { return "fixture" }

// Simulate implements Simulator.
func (f *FixtureSimulator) Simulate(ctx context.Context, req Request) (*domain.SimulateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if f.Dir != "" && req.PipelineID != "" {
		if filepath.Base(req.PipelineID) != req.PipelineID {
			return nil, &StatusError{StatusCode: 400, Body: fmt.Sprintf("invalid pipeline id %q", req.PipelineID)}
		}
		data, err := os.ReadFile(filepath.Join(f.Dir, req.PipelineID+".json"))
		switch {
		case err == nil:
			return ParseResponse(data)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("engine: read fixture: %w", err)
		}
	}
	return f.identity(req.Body)
}

func (f *FixtureSimulator) identity(body []byte) (*domain.SimulateResult, error) {
	var in struct {
		Docs []document.Value `json:"docs"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, &StatusError{StatusCode: 400, Body: "malformed simulate request: " + err.Error()}
	}

	now := f.now
	if now == nil {
		now = time.Now
	}
	ingest := document.NewMapping().Set("timestamp", document.String(now().UTC().Format(time.RFC3339Nano)))

	docs := make([]document.Value, 0, len(in.Docs))
	for i, d := range in.Docs {
		m, ok := d.AsMapping()
		if !ok {
			return nil, &StatusError{StatusCode: 400, Body: fmt.Sprintf("docs[%d] is not an object", i)}
		}
		out := document.NewMapping()
		// Index and id default the same way the simulate API does.
		out.Set(string(domain.MetaIndex), document.String("_index"))
		out.Set(string(domain.MetaID), document.String("_id"))
		for _, field := range domain.MetadataFields {
			if v, ok := m.Get(string(field)); ok {
				out.Set(string(field), v.DeepCopy())
			}
		}
		src := document.NewMapping()
		if v, ok := m.Get(domain.SourceField); ok {
			if sm, ok := v.AsMapping(); ok {
				src = sm.DeepCopy()
			}
		}
		out.Set(domain.SourceField, document.Map(src))
		out.Set("_ingest", document.Map(ingest.DeepCopy()))
		docs = append(docs, document.Map(document.NewMapping().Set("doc", document.Map(out))))
	}

	raw, err := json.Marshal(document.Map(document.NewMapping().Set("docs", document.Seq(docs...))))
	if err != nil {
		return nil, fmt.Errorf("engine: encode identity response: %w", err)
	}
	return ParseResponse(raw)
}
