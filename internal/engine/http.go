package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/ratelimit"
)

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// HTTPClient calls the _ingest/pipeline/_simulate API of an Elasticsearch or
// OpenSearch cluster.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	limiter    *ratelimit.KeyedLimiter
	username   string
	password   string
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client (for testing).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithTransport wraps rt with tracing and uses it for every call. Use it to
// install a signing transport.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(h *HTTPClient) {
		h.httpClient.Transport = otelhttp.NewTransport(rt)
	}
}

// WithBasicAuth sends credentials on every call.
func WithBasicAuth(username, password string) HTTPOption {
	return func(h *HTTPClient) {
		h.username = username
		h.password = password
	}
}

// WithLimiter throttles calls, keyed by endpoint.
func WithLimiter(l *ratelimit.KeyedLimiter) HTTPOption {
	return func(h *HTTPClient) { h.limiter = l }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPClient) { h.httpClient.Timeout = d }
}

// NewHTTPClient creates a client for the cluster at endpoint.
func NewHTTPClient(endpoint string, opts ...HTTPOption) (*HTTPClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("engine: invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("engine: invalid endpoint %q: scheme must be http or https", endpoint)
	}
	c := &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name implements Named.
func (c *HTTPClient) Name() string { return "http" }

// SimulateURL returns the simulate URL for a pipeline id, or for an inline
// pipeline when id is empty.
func (c *HTTPClient) SimulateURL(pipelineID string) string {
	if pipelineID == "" {
		return c.endpoint + "/_ingest/pipeline/_simulate"
	}
	return c.endpoint + "/_ingest/pipeline/" + url.PathEscape(pipelineID) + "/_simulate"
}

// Simulate implements Simulator.
func (c *HTTPClient) Simulate(ctx context.Context, req Request) (*domain.SimulateResult, error) {
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SimulateURL(req.PipelineID), bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("engine: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("engine: read response: %w", err)
	}
	return ParseResponse(body)
}
