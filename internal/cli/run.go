package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ingest-test/ingesttest-go/internal/jsondiff"
	"github.com/ingest-test/ingesttest-go/internal/suite"
	"github.com/ingest-test/ingesttest-go/internal/tester"
)

func (a *app) newRunCmd() *cobra.Command {
	var (
		concurrency   int
		jsonOut       bool
		omitFromValue bool
	)
	cmd := &cobra.Command{
		Use:   "run <suite.json>",
		Short: "Run a test suite against the configured engine",
		Long: `Runs every case of a suite file locally against the engine selected by
INGESTTEST_MODE. Exits 1 when any case diverges and 2 when a case could not
be run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := suite.Load(args[0])
			if err != nil {
				return err
			}
			sim, err := a.deps.Simulator(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			t := tester.New(sim,
				tester.WithLogger(a.logger),
				tester.WithDiffOptions(jsondiff.Options{OmitFromValue: omitFromValue}),
			)

			if concurrency <= 0 {
				concurrency = a.cfg.SuiteConcurrency
			}
			res, err := suite.Run(cmd.Context(), t, s, suite.Options{Concurrency: concurrency, Logger: a.logger})
			if err != nil {
				return fmt.Errorf("run suite: %w", err)
			}

			if jsonOut {
				err = writeJSON(cmd.OutOrStdout(), res)
			} else {
				err = writeSuiteResult(cmd.OutOrStdout(), res)
			}
			if err != nil {
				return err
			}
			return suiteOutcome(res)
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "cases run in parallel (default INGESTTEST_SUITE_CONCURRENCY)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&omitFromValue, "omit-from-value", false, "leave fromValue out of replace operations")
	return cmd
}

// suiteOutcome turns a suite result into the command's exit status. Errors
// outrank divergence.
func suiteOutcome(res *suite.Result) error {
	switch {
	case res.Errored > 0:
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d of %d cases could not be run", res.Errored, res.Total)}
	case res.Failed > 0:
		return diverged("%d of %d cases diverged", res.Failed, res.Total)
	}
	return nil
}
