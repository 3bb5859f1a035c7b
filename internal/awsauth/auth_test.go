package awsauth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRoleARN(t *testing.T) {
	t.Parallel()
	tests := []struct {
		arn     string
		wantErr bool
	}{
		{"arn:aws:iam::123456789012:role/MyRole", false},
		{"arn:aws:iam::123456789012:role/path/MyRole", false},
		{"arn:aws:iam::12345:role/Short", true},           // too few digits
		{"arn:aws:iam::123456789012:user/NotARole", true}, // user, not role
		{"", true},
		{"not-an-arn", true},
	}

	for _, tt := range tests {
		t.Run(tt.arn, func(t *testing.T) {
			t.Parallel()
			err := ValidateRoleARN(tt.arn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewAWSConfig_InvalidRole(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	_, err := NewAWSConfig(t.Context(), "us-east-1", "", "arn:aws:iam::1:role/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid IAM role ARN")
}

func TestNewAWSConfig_Region(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	cfg, err := NewAWSConfig(t.Context(), "eu-west-1", "", "arn:aws:iam::123456789012:role/IngestTest")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.NotNil(t, cfg.Credentials)
}

func TestSigningTransport_SignsRequest(t *testing.T) {
	t.Parallel()
	var got *http.Request
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := aws.Config{
		Region:      "us-west-2",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "token"),
	}
	transport := NewSigningTransport(nil, cfg)
	transport.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	body := `{"docs":[{"_source":{}}]}`
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost,
		srv.URL+"/_ingest/pipeline/_simulate", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Transport: transport}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NotNil(t, got)
	assert.Equal(t, body, gotBody)
	auth := got.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20260102/us-west-2/es/aws4_request"), auth)
	assert.Equal(t, "20260102T030405Z", got.Header.Get("X-Amz-Date"))
	assert.Equal(t, "token", got.Header.Get("X-Amz-Security-Token"))
	assert.NotEmpty(t, got.Header.Get("X-Amz-Content-Sha256"))
	assert.Empty(t, req.Header.Get("Authorization"), "caller's request must not be modified")
}

func TestSigningTransport_NoCredentials(t *testing.T) {
	t.Parallel()
	transport := NewSigningTransport(nil, aws.Config{Region: "us-east-1"})
	req := httptest.NewRequest(http.MethodGet, "http://localhost/", nil)
	_, err := transport.RoundTrip(req)
	assert.Error(t, err)
}
