// Command worker runs the Temporal worker for pipeline test suites.
// Supports stub mode (fixture engine) and production mode (real engine).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"golang.org/x/sync/errgroup"

	"github.com/ingest-test/ingesttest-go/internal/config"
	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/observability"
	"github.com/ingest-test/ingesttest-go/internal/ratelimit"
	"github.com/ingest-test/ingesttest-go/internal/temporal/activities"
	"github.com/ingest-test/ingesttest-go/internal/temporal/queues"
	"github.com/ingest-test/ingesttest-go/internal/temporal/versioning"
	"github.com/ingest-test/ingesttest-go/internal/temporal/workflows"
	"github.com/ingest-test/ingesttest-go/internal/tester"
)

func main() {
	queueList := flag.String("queues", os.Getenv("INGESTTEST_WORKER_QUEUES"), "comma-separated queues to poll (suite, engine); default both")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	logger := observability.InitLogger(cfg.LogLevel)

	names, err := queues.ParseQueues(*queueList)
	if err != nil {
		logger.Error("invalid queue list", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "ingesttest-worker",
		Enabled:     cfg.OTelEnabled,
		SampleRatio: cfg.OTelSampleRatio,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("otel init failed", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}
	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Error("metrics init failed", "error", err)
		os.Exit(1)
	}

	sim, err := engine.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Error("engine init failed", "error", err)
		os.Exit(1)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    observability.NewTemporalSlogAdapter(logger),
	})
	if err != nil {
		logger.Error("unable to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	acts := &activities.Activities{
		Runner:  tester.New(sim, tester.WithLogger(logger), tester.WithMetrics(metrics)),
		Budget:  ratelimit.NewBudget(cfg.TenantRequests, cfg.TenantWindow),
		Metrics: metrics,
	}

	configs := queues.DefaultConfigs(cfg.SuiteConcurrency)
	var g errgroup.Group
	for _, name := range names {
		qc := configs[name]
		taskQueue := qc.Name
		if name == versioning.QueueSuite {
			taskQueue = cfg.TaskQueue
		}
		w := worker.New(c, taskQueue, qc.Options)
		switch name {
		case versioning.QueueSuite:
			w.RegisterWorkflow(workflows.SuiteWorkflow)
		case versioning.QueueEngine:
			w.RegisterActivity(acts)
		}
		logger.Info("starting worker", "queue", taskQueue, "mode", cfg.Mode, "engine", engine.NameOf(sim))
		g.Go(func() error {
			return w.Run(worker.InterruptCh())
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}
