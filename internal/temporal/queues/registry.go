// Package queues defines per-queue worker configuration for task-queue partitioning.
package queues

import (
	"fmt"
	"strings"

	"go.temporal.io/sdk/worker"

	"github.com/ingest-test/ingesttest-go/internal/temporal/versioning"
)

// QueueConfig holds worker options for a single task queue.
type QueueConfig struct {
	Name    string
	Options worker.Options
}

// DefaultConfigs returns the standard per-queue worker options. engineSlots
// caps concurrent engine calls per worker; zero or less means 4.
//
//   - QueueSuite: orchestration only, cheap workflow tasks
//   - QueueEngine: simulate calls, bounded by engineSlots
func DefaultConfigs(engineSlots int) map[string]QueueConfig {
	if engineSlots <= 0 {
		engineSlots = 4
	}
	return map[string]QueueConfig{
		versioning.QueueSuite: {
			Name: versioning.QueueSuite,
			Options: worker.Options{
				MaxConcurrentActivityExecutionSize:     10,
				MaxConcurrentWorkflowTaskExecutionSize: 10,
			},
		},
		versioning.QueueEngine: {
			Name: versioning.QueueEngine,
			Options: worker.Options{
				MaxConcurrentActivityExecutionSize:     engineSlots,
				MaxConcurrentWorkflowTaskExecutionSize: 1,
			},
		},
	}
}

// ParseQueues parses a comma-separated queue list (e.g. "suite,engine")
// into queue names. Accepts short names ("engine") and full names
// ("ingesttest-engine"). An empty list means both queues.
func ParseQueues(raw string) ([]string, error) {
	all := []string{versioning.QueueSuite, versioning.QueueEngine}
	if raw == "" {
		return all, nil
	}

	shortNames := map[string]string{
		"suite":  versioning.QueueSuite,
		"engine": versioning.QueueEngine,
	}
	fullNames := map[string]bool{
		versioning.QueueSuite:  true,
		versioning.QueueEngine: true,
	}

	seen := make(map[string]bool)
	var result []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if full, ok := shortNames[name]; ok {
			name = full
		}
		if !fullNames[name] {
			return nil, fmt.Errorf("unknown queue %q", name)
		}
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	if len(result) == 0 {
		return all, nil
	}
	return result, nil
}
