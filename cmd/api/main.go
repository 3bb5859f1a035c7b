// Command api runs the HTTP pipeline test API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ingest-test/ingesttest-go/internal/api"
	"github.com/ingest-test/ingesttest-go/internal/config"
	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/observability"
	"github.com/ingest-test/ingesttest-go/internal/ratelimit"
	"github.com/ingest-test/ingesttest-go/internal/tester"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "ingesttest-api",
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
	t := tester.New(sim, tester.WithLogger(logger), tester.WithMetrics(metrics))

	oidcCfg := api.OIDCConfig{
		IssuerURL:   cfg.OIDCIssuer,
		Audience:    cfg.OIDCAudience,
		Enabled:     cfg.OIDCEnabled(),
		TenantClaim: cfg.OIDCTenantClaim,
	}
	srv, err := api.New(ctx, t, api.Options{
		CORSOrigins: cfg.CORSOrigins,
		OIDC:        oidcCfg,
		Budget:      ratelimit.NewBudget(cfg.TenantRequests, cfg.TenantWindow),
	})
	if err != nil {
		logger.Error("api init failed", "error", err)
		os.Exit(1)
	}

	var handler http.Handler = srv
	if cfg.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "ingesttest-api")
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting API server",
		"addr", httpSrv.Addr,
		"mode", cfg.Mode,
		"engine", engine.NameOf(sim),
		"oidc_enabled", oidcCfg.Enabled,
	)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
