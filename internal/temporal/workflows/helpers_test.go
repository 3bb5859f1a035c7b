package workflows_test

import (
	"github.com/stretchr/testify/mock"

	"github.com/ingest-test/ingesttest-go/internal/document"
	"github.com/ingest-test/ingesttest-go/internal/domain"
	ingestsuite "github.com/ingest-test/ingesttest-go/internal/suite"
)

// Matchers for activity mocks -- match any context and any input.
var (
	testAnyCtx   = mock.Anything
	testAnyInput = mock.Anything
)

func testSuite(names ...string) ingestsuite.Suite {
	s := ingestsuite.Suite{Name: "wf"}
	for _, name := range names {
		s.Cases = append(s.Cases, domain.TestCase{
			Name:       name,
			PipelineID: "p1",
			Docs:       []byte(`[{"_source":{}}]`),
			Expected:   document.MustParse(`[{"_index":"i","_id":"1","_source":{"title":"test"}}]`),
		})
	}
	return s
}
