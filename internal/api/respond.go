package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ingest-test/ingesttest-go/internal/compare"
	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/ratelimit"
	"github.com/ingest-test/ingesttest-go/internal/tester"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps an error from the test pipeline to a status code.
func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	var exceeded *ratelimit.BudgetExceededError
	if errors.As(err, &exceeded) {
		secs := int(time.Until(exceeded.RetryAt).Seconds()) + 1
		w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	var (
		requestErr  *requestError
		validation  *tester.ValidationError
		format      *compare.InvalidExpectedFormatError
		engineErr   *tester.EngineError
		statusErr   *engine.StatusError
		exceeded    *ratelimit.BudgetExceededError
		maxBytesErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &requestErr), errors.As(err, &validation), errors.As(err, &format):
		return http.StatusBadRequest
	case errors.As(err, &exceeded):
		return http.StatusTooManyRequests
	case errors.As(err, &statusErr):
		switch statusErr.StatusCode {
		case http.StatusBadRequest, http.StatusNotFound:
			return statusErr.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &engineErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// requestError is a malformed HTTP request.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }
