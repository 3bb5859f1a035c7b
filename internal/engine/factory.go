package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/ingest-test/ingesttest-go/internal/awsauth"
	"github.com/ingest-test/ingesttest-go/internal/config"
	"github.com/ingest-test/ingesttest-go/internal/ratelimit"
)

// NewFromConfig builds the simulator selected by cfg: fixtures in stub mode,
// otherwise the HTTP client or the external command.
func NewFromConfig(ctx context.Context, cfg config.Config) (Simulator, error) {
	if cfg.Mode == config.ModeStub {
		return NewFixtureSimulator(cfg.FixturesDir), nil
	}

	if cfg.EngineCommand != "" {
		fields := strings.Fields(cfg.EngineCommand)
		return &CommandSimulator{
			Path:    fields[0],
			Args:    fields[1:],
			Limiter: ratelimit.NewKeyedLimiter(cfg.EngineRPS, int(cfg.EngineRPS)),
		}, nil
	}

	opts := []HTTPOption{
		WithTimeout(cfg.EngineTimeout),
		WithLimiter(ratelimit.NewKeyedLimiter(cfg.EngineRPS, int(cfg.EngineRPS))),
	}
	if cfg.EngineUsername != "" {
		opts = append(opts, WithBasicAuth(cfg.EngineUsername, cfg.EnginePassword))
	}
	if cfg.EngineSigV4 {
		awsCfg, err := awsauth.NewAWSConfig(ctx, cfg.AWSRegion, cfg.AWSProfile, cfg.AWSRoleARN)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		opts = append(opts, WithTransport(awsauth.NewSigningTransport(nil, awsCfg)))
	}
	return NewHTTPClient(cfg.EngineURL, opts...)
}
