// Package api serves the pipeline test endpoints over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/ingest-test/ingesttest-go/internal/compare"
	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/ratelimit"
)

// PipelineTester runs one test case. Implemented by tester.Tester.
type PipelineTester interface {
	Run(ctx context.Context, tc domain.TestCase) (*compare.Report, error)
}

// Options configures a Server.
type Options struct {
	CORSOrigins []string
	OIDC        OIDCConfig

	// Budget limits requests per tenant and route. Nil disables it.
	Budget *ratelimit.Budget

	// MaxBodyBytes bounds request bodies; zero means 10 MiB.
	MaxBodyBytes int64
}

// Server is the HTTP API server.
type Server struct {
	tester  PipelineTester
	opts    Options
	mux     *http.ServeMux
	handler http.Handler
}

// New creates a Server. When OIDC is enabled the issuer's discovery document
// is fetched with ctx.
func New(ctx context.Context, t PipelineTester, opts Options) (*Server, error) {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{tester: t, opts: opts, mux: http.NewServeMux()}
	s.routes()

	var inner http.Handler = s.mux
	if opts.Budget != nil {
		inner = budget(opts.Budget, inner)
	}
	if opts.OIDC.Enabled {
		provider, err := oidc.NewProvider(ctx, opts.OIDC.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("api: oidc discovery: %w", err)
		}
		inner = bearerAuth(provider, opts.OIDC, inner)
	}
	s.handler = requestID(logging(cors(opts.CORSOrigins, inner)))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /_ingest/pipeline/{id}/_test", s.handleTest)
	s.mux.HandleFunc("GET /_ingest/pipeline/{id}/_test", s.handleTest)
	s.mux.HandleFunc("POST /_ingest/pipeline/_test", s.handleTest)
	s.mux.HandleFunc("GET /_ingest/pipeline/_test", s.handleTest)
	s.mux.HandleFunc("POST /_diff", s.handleDiff)
}
