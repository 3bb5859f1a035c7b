// Package cli implements the ingesttest command line: local suite runs,
// ad hoc diffs and Temporal suite submission.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/ingest-test/ingesttest-go/internal/config"
	"github.com/ingest-test/ingesttest-go/internal/engine"
	"github.com/ingest-test/ingesttest-go/internal/observability"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitDiverged = 1
	ExitFailure  = 2
)

// ExitError carries the process exit code for a command outcome.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func diverged(format string, args ...any) error {
	return &ExitError{Code: ExitDiverged, Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Deps are the external resources commands reach for. Tests replace them.
type Deps struct {
	Config    func() (config.Config, error)
	Simulator func(ctx context.Context, cfg config.Config) (engine.Simulator, error)
	Temporal  func(cfg config.Config, logger *slog.Logger) (client.Client, error)
}

// DefaultDeps reads configuration from the environment and connects to the
// configured engine and Temporal frontend.
func DefaultDeps() Deps {
	return Deps{
		Config:    config.LoadFromEnv,
		Simulator: engine.NewFromConfig,
		Temporal: func(cfg config.Config, logger *slog.Logger) (client.Client, error) {
			return client.Dial(client.Options{
				HostPort:  cfg.TemporalHostPort,
				Namespace: cfg.TemporalNamespace,
				Logger:    observability.NewTemporalSlogAdapter(logger),
			})
		},
	}
}

type app struct {
	deps     Deps
	cfg      config.Config
	logger   *slog.Logger
	logLevel string
}

// NewRootCmd builds the command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	a := &app{deps: deps}
	root := &cobra.Command{
		Use:   "ingesttest",
		Short: "Test ingest pipelines against expected documents",
		Long: `ingesttest runs documents through an ingest pipeline engine and reports
the JSON Patch operations that separate the produced documents from the
expected ones.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.deps.Config()
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			a.cfg = cfg
			a.logger = observability.InitLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides INGESTTEST_LOG_LEVEL")

	root.AddCommand(
		a.newRunCmd(),
		a.newDiffCmd(),
		a.newSubmitCmd(),
		a.newStatusCmd(),
		a.newListCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCmd(DefaultDeps())
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil && ExitCode(err) == ExitFailure {
		root.PrintErrln("error:", err)
	}
	return ExitCode(err)
}
