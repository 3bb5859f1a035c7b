// Command mcp-ingesttest runs the MCP tool server for pipeline testing.
// Uses stdio transport for integration with AI assistants; logs go to stderr.
package main

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.temporal.io/sdk/client"

	"github.com/ingest-test/ingesttest-go/internal/config"
	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/mcpserver"
	"github.com/ingest-test/ingesttest-go/internal/observability"
	"github.com/ingest-test/ingesttest-go/internal/temporal/querier"
	"github.com/ingest-test/ingesttest-go/internal/tester"
)

func main() {
	logger := observability.InitLoggerTo(os.Stderr, "info")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}
	logger = observability.InitLoggerTo(os.Stderr, cfg.LogLevel)

	ctx := context.Background()
	sim, err := engine.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Error("engine init failed", "error", err)
		os.Exit(1)
	}

	// Suite tools need Temporal; without it only the pipeline tools are served.
	var q mcpserver.SuiteQuerier
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    observability.NewTemporalSlogAdapter(logger),
	})
	if err != nil {
		logger.Warn("temporal unavailable, suite tools disabled", "error", err)
	} else {
		defer c.Close()
		q = querier.New(c)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ingesttest",
		Version: "v1.0.0",
	}, nil)
	mcpserver.RegisterTools(server, tester.New(sim, tester.WithLogger(logger)), q)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
