package awsauth

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// ServiceOpenSearch is the SigV4 signing name of Amazon OpenSearch Service
// domains.
const ServiceOpenSearch = "es"

// SigningTransport signs every request with AWS Signature Version 4 before
// handing it to Base.
type SigningTransport struct {
	Base        http.RoundTripper
	Credentials aws.CredentialsProvider
	Region      string
	Service     string

	signer *v4.Signer
	now    func() time.Time
}

// NewSigningTransport signs requests for the OpenSearch service in region.
// A nil base uses http.DefaultTransport.
func NewSigningTransport(base http.RoundTripper, cfg aws.Config) *SigningTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &SigningTransport{
		Base:        base,
		Credentials: cfg.Credentials,
		Region:      cfg.Region,
		Service:     ServiceOpenSearch,
		signer:      v4.NewSigner(),
		now:         time.Now,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Credentials == nil {
		return nil, fmt.Errorf("aws auth: no credentials configured")
	}
	creds, err := t.Credentials.Retrieve(req.Context())
	if err != nil {
		return nil, fmt.Errorf("aws auth: retrieve credentials: %w", err)
	}

	// RoundTrippers must not modify the caller's request.
	signed := req.Clone(req.Context())
	var body []byte
	if req.Body != nil {
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("aws auth: read body: %w", err)
		}
		signed.Body = io.NopCloser(bytes.NewReader(body))
		signed.ContentLength = int64(len(body))
	}
	sum := sha256.Sum256(body)
	hash := hex.EncodeToString(sum[:])
	signed.Header.Set("X-Amz-Content-Sha256", hash)

	if err := t.signer.SignHTTP(req.Context(), creds, signed, hash, t.Service, t.Region, t.now()); err != nil {
		return nil, fmt.Errorf("aws auth: sign request: %w", err)
	}
	return t.Base.RoundTrip(signed)
}
