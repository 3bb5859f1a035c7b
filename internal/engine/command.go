package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ingest-test/ingesttest-go/internal/domain"
	"github.com/ingest-test/ingesttest-go/internal/ratelimit"
)

// CommandSimulator runs an external program that reads a simulate request
// body on stdin and writes a simulate response on stdout. The pipeline id,
// when set, is passed as --pipeline. Runs are throttled per Path when
// Limiter is set.
type CommandSimulator struct {
	Path    string
	Args    []string
	Limiter *ratelimit.KeyedLimiter
}

// Name implements Named.
func (r *CommandSimulator) Name() string { return "command" }

// Simulate implements Simulator.
func (r *CommandSimulator) Simulate(ctx context.Context, req Request) (*domain.SimulateResult, error) {
	if err := r.Limiter.Wait(ctx, r.Path); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	args := append([]string(nil), r.Args...)
	if req.PipelineID != "" {
		args = append(args, "--pipeline", req.PipelineID)
	}
	cmd := exec.CommandContext(ctx, r.Path, args...)
	cmd.Stdin = bytes.NewReader(req.Body)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("engine: command failed: %s\n%s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("engine: command: %w", err)
	}
	return ParseResponse(out)
}
