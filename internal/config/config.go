// Package config provides application configuration loaded from environment
// variables, optionally layered over a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ingest-test/ingesttest-go/internal/awsauth"
)

// Mode determines whether pipelines run against fixtures or a real engine.
type Mode string

const (
	ModeStub       Mode = "stub"
	ModeProduction Mode = "production"
)

// Config holds all application configuration.
type Config struct {
	Mode        Mode
	FixturesDir string

	// Engine settings. EngineURL selects the HTTP simulate API; EngineCommand
	// selects an external program that speaks the same JSON.
	EngineURL      string
	EngineCommand  string
	EngineUsername string
	EnginePassword string
	EngineTimeout  time.Duration
	EngineRPS      float64
	EngineSigV4    bool

	AWSRegion  string
	AWSProfile string
	AWSRoleARN string

	// API server settings.
	APIPort        string
	CORSOrigins    []string
	TenantRequests int
	TenantWindow   time.Duration

	OIDCIssuer      string
	OIDCAudience    string
	OIDCTenantClaim string

	TemporalHostPort  string
	TemporalNamespace string
	TaskQueue         string

	SuiteConcurrency int
	LogLevel         string
	OTelEnabled      bool
	OTelSampleRatio  float64
}

// OIDCEnabled reports whether bearer-token auth is configured.
func (c Config) OIDCEnabled() bool {
	return c.OIDCIssuer != ""
}

// fileConfig is the TOML layout of INGESTTEST_CONFIG_FILE.
type fileConfig struct {
	Mode        string  `toml:"mode"`
	FixturesDir string  `toml:"fixtures_dir"`
	LogLevel    string  `toml:"log_level"`
	OTelEnabled bool    `toml:"otel_enabled"`
	OTelSample  float64 `toml:"otel_sample_ratio"`

	Engine struct {
		URL      string  `toml:"url"`
		Command  string  `toml:"command"`
		Username string  `toml:"username"`
		Password string  `toml:"password"`
		Timeout  string  `toml:"timeout"`
		RPS      float64 `toml:"rps"`
		SigV4    bool    `toml:"sigv4"`
	} `toml:"engine"`

	AWS struct {
		Region  string `toml:"region"`
		Profile string `toml:"profile"`
		RoleARN string `toml:"role_arn"`
	} `toml:"aws"`

	API struct {
		Port           string   `toml:"port"`
		CORSOrigins    []string `toml:"cors_origins"`
		TenantRequests int      `toml:"tenant_requests"`
		TenantWindow   string   `toml:"tenant_window"`
		OIDCIssuer     string   `toml:"oidc_issuer"`
		OIDCAudience   string   `toml:"oidc_audience"`
		TenantClaim    string   `toml:"oidc_tenant_claim"`
	} `toml:"api"`

	Temporal struct {
		HostPort  string `toml:"host_port"`
		Namespace string `toml:"namespace"`
		TaskQueue string `toml:"task_queue"`
	} `toml:"temporal"`

	Suite struct {
		Concurrency int `toml:"concurrency"`
	} `toml:"suite"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Mode:              ModeStub,
		EngineTimeout:     30 * time.Second,
		EngineRPS:         20,
		AWSRegion:         "us-east-1",
		APIPort:           "8080",
		CORSOrigins:       []string{"*"},
		TenantRequests:    600,
		TenantWindow:      time.Minute,
		TemporalHostPort:  "localhost:7233",
		TemporalNamespace: "default",
		TaskQueue:         "ingesttest",
		SuiteConcurrency:  4,
		LogLevel:          "info",
		OTelSampleRatio:   1,
	}
}

// LoadFromEnv reads configuration from environment variables with sensible
// defaults. When INGESTTEST_CONFIG_FILE names a TOML file it is applied first;
// environment variables override it.
func LoadFromEnv() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("INGESTTEST_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	var errs []error
	cfg.Mode = Mode(envOr("INGESTTEST_MODE", string(cfg.Mode)))
	cfg.FixturesDir = envOr("INGESTTEST_FIXTURES_DIR", cfg.FixturesDir)
	cfg.EngineURL = envOr("INGESTTEST_ENGINE_URL", cfg.EngineURL)
	cfg.EngineCommand = envOr("INGESTTEST_ENGINE_COMMAND", cfg.EngineCommand)
	cfg.EngineUsername = envOr("INGESTTEST_ENGINE_USERNAME", cfg.EngineUsername)
	cfg.EnginePassword = envOr("INGESTTEST_ENGINE_PASSWORD", cfg.EnginePassword)
	cfg.EngineTimeout = envDuration("INGESTTEST_ENGINE_TIMEOUT", cfg.EngineTimeout, &errs)
	cfg.EngineRPS = envFloat("INGESTTEST_ENGINE_RPS", cfg.EngineRPS, &errs)
	cfg.EngineSigV4 = envBool("INGESTTEST_ENGINE_SIGV4", cfg.EngineSigV4, &errs)
	cfg.AWSRegion = envOr("AWS_REGION", cfg.AWSRegion)
	cfg.AWSProfile = envOr("AWS_PROFILE", cfg.AWSProfile)
	cfg.AWSRoleARN = envOr("INGESTTEST_AWS_ROLE_ARN", cfg.AWSRoleARN)
	cfg.APIPort = envOr("INGESTTEST_API_PORT", cfg.APIPort)
	if raw := os.Getenv("INGESTTEST_CORS_ORIGINS"); raw != "" {
		cfg.CORSOrigins = parseCORSOrigins(raw)
	}
	cfg.TenantRequests = envInt("INGESTTEST_TENANT_REQUESTS", cfg.TenantRequests, &errs)
	cfg.TenantWindow = envDuration("INGESTTEST_TENANT_WINDOW", cfg.TenantWindow, &errs)
	cfg.OIDCIssuer = envOr("INGESTTEST_OIDC_ISSUER", cfg.OIDCIssuer)
	cfg.OIDCAudience = envOr("INGESTTEST_OIDC_AUDIENCE", cfg.OIDCAudience)
	cfg.OIDCTenantClaim = envOr("INGESTTEST_OIDC_TENANT_CLAIM", cfg.OIDCTenantClaim)
	cfg.TemporalHostPort = envOr("TEMPORAL_HOST_PORT", cfg.TemporalHostPort)
	cfg.TemporalNamespace = envOr("TEMPORAL_NAMESPACE", cfg.TemporalNamespace)
	cfg.TaskQueue = envOr("INGESTTEST_TASK_QUEUE", cfg.TaskQueue)
	cfg.SuiteConcurrency = envInt("INGESTTEST_SUITE_CONCURRENCY", cfg.SuiteConcurrency, &errs)
	cfg.LogLevel = envOr("INGESTTEST_LOG_LEVEL", cfg.LogLevel)
	cfg.OTelEnabled = envBool("INGESTTEST_OTEL_ENABLED", cfg.OTelEnabled, &errs)
	cfg.OTelSampleRatio = envFloat("INGESTTEST_OTEL_SAMPLE_RATIO", cfg.OTelSampleRatio, &errs)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Mode != ModeStub && c.Mode != ModeProduction {
		return fmt.Errorf("config: invalid INGESTTEST_MODE %q (must be stub or production)", c.Mode)
	}
	if c.Mode == ModeProduction {
		if c.EngineURL == "" && c.EngineCommand == "" {
			return fmt.Errorf("config: INGESTTEST_ENGINE_URL or INGESTTEST_ENGINE_COMMAND required in production mode")
		}
		if c.EngineURL != "" && c.EngineCommand != "" {
			return fmt.Errorf("config: INGESTTEST_ENGINE_URL and INGESTTEST_ENGINE_COMMAND are mutually exclusive")
		}
	}
	if c.EngineSigV4 && c.EngineURL == "" {
		return fmt.Errorf("config: INGESTTEST_ENGINE_SIGV4 requires INGESTTEST_ENGINE_URL")
	}
	if c.EngineSigV4 && c.EngineUsername != "" {
		return fmt.Errorf("config: INGESTTEST_ENGINE_SIGV4 and basic auth are mutually exclusive")
	}
	if c.AWSRoleARN != "" {
		if err := awsauth.ValidateRoleARN(c.AWSRoleARN); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.EngineRPS <= 0 {
		return fmt.Errorf("config: INGESTTEST_ENGINE_RPS must be positive")
	}
	if c.SuiteConcurrency < 1 {
		return fmt.Errorf("config: INGESTTEST_SUITE_CONCURRENCY must be at least 1")
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		return fmt.Errorf("config: INGESTTEST_OTEL_SAMPLE_RATIO must be between 0 and 1")
	}
	if c.TenantRequests < 0 {
		return fmt.Errorf("config: INGESTTEST_TENANT_REQUESTS must not be negative")
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	setString(&c.FixturesDir, f.FixturesDir)
	if f.Mode != "" {
		c.Mode = Mode(f.Mode)
	}
	setString(&c.LogLevel, f.LogLevel)
	c.OTelEnabled = c.OTelEnabled || f.OTelEnabled
	if f.OTelSample != 0 {
		c.OTelSampleRatio = f.OTelSample
	}

	setString(&c.EngineURL, f.Engine.URL)
	setString(&c.EngineCommand, f.Engine.Command)
	setString(&c.EngineUsername, f.Engine.Username)
	setString(&c.EnginePassword, f.Engine.Password)
	if f.Engine.Timeout != "" {
		d, err := time.ParseDuration(f.Engine.Timeout)
		if err != nil {
			return fmt.Errorf("config: %s: engine.timeout: %w", path, err)
		}
		c.EngineTimeout = d
	}
	if f.Engine.RPS != 0 {
		c.EngineRPS = f.Engine.RPS
	}
	c.EngineSigV4 = c.EngineSigV4 || f.Engine.SigV4

	setString(&c.AWSRegion, f.AWS.Region)
	setString(&c.AWSProfile, f.AWS.Profile)
	setString(&c.AWSRoleARN, f.AWS.RoleARN)

	setString(&c.APIPort, f.API.Port)
	if len(f.API.CORSOrigins) > 0 {
		c.CORSOrigins = f.API.CORSOrigins
	}
	if f.API.TenantRequests != 0 {
		c.TenantRequests = f.API.TenantRequests
	}
	if f.API.TenantWindow != "" {
		d, err := time.ParseDuration(f.API.TenantWindow)
		if err != nil {
			return fmt.Errorf("config: %s: api.tenant_window: %w", path, err)
		}
		c.TenantWindow = d
	}
	setString(&c.OIDCIssuer, f.API.OIDCIssuer)
	setString(&c.OIDCAudience, f.API.OIDCAudience)
	setString(&c.OIDCTenantClaim, f.API.TenantClaim)

	setString(&c.TemporalHostPort, f.Temporal.HostPort)
	setString(&c.TemporalNamespace, f.Temporal.Namespace)
	setString(&c.TaskQueue, f.Temporal.TaskQueue)

	if f.Suite.Concurrency != 0 {
		c.SuiteConcurrency = f.Suite.Concurrency
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: invalid %s %q: %w", key, v, err))
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: invalid %s %q: %w", key, v, err))
		return fallback
	}
	return f
}

func envBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: invalid %s %q: %w", key, v, err))
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: invalid %s %q: %w", key, v, err))
		return fallback
	}
	return d
}

func parseCORSOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(o); t != "" {
			origins = append(origins, t)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
