package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/ingest-test/ingesttest-go/internal/suite"
	"github.com/ingest-test/ingesttest-go/internal/temporal/querier"
	"github.com/ingest-test/ingesttest-go/internal/temporal/workflows"
)

func (a *app) dial() (client.Client, error) {
	c, err := a.deps.Temporal(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	return c, nil
}

func (a *app) newSubmitCmd() *cobra.Command {
	var (
		tenant      string
		concurrency int
		wait        bool
	)
	cmd := &cobra.Command{
		Use:   "submit <suite.json>",
		Short: "Run a test suite as a Temporal workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := suite.Load(args[0])
			if err != nil {
				return err
			}
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			if concurrency <= 0 {
				concurrency = a.cfg.SuiteConcurrency
			}
			opts := client.StartWorkflowOptions{
				ID:        fmt.Sprintf("suite-%s-%s", s.Name, uuid.NewString()[:8]),
				TaskQueue: a.cfg.TaskQueue,
			}
			run, err := c.ExecuteWorkflow(cmd.Context(), opts, workflows.SuiteWorkflow, workflows.SuiteInput{
				TenantID:    tenant,
				Suite:       *s,
				Concurrency: concurrency,
			})
			if err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started suite workflow %s (run %s)\n", run.GetID(), run.GetRunID())
			if !wait {
				return nil
			}

			var res suite.Result
			if err := run.Get(cmd.Context(), &res); err != nil {
				return fmt.Errorf("workflow failed: %w", err)
			}
			if err := writeSuiteResult(cmd.OutOrStdout(), &res); err != nil {
				return err
			}
			return suiteOutcome(&res)
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant charged for the run's engine budget")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "cases in flight (default INGESTTEST_SUITE_CONCURRENCY)")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the workflow and print its result")
	return cmd
}

func (a *app) newStatusCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status <workflow-id>",
		Short: "Show the status of a submitted suite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			st, err := querier.New(c).SuiteStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), st)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workflow: %s\n", st.WorkflowID)
			fmt.Fprintf(out, "Run:      %s\n", st.RunID)
			fmt.Fprintf(out, "Status:   %s\n", st.Status)
			fmt.Fprintf(out, "Started:  %s\n", st.StartTime.Format(time.RFC3339))
			if !st.CloseTime.IsZero() {
				fmt.Fprintf(out, "Closed:   %s\n", st.CloseTime.Format(time.RFC3339))
			}
			if p := st.Progress; p != nil {
				fmt.Fprintf(out, "Progress: %d/%d (%d passed, %d failed, %d errored)\n",
					p.Completed, p.Total, p.Passed, p.Failed, p.Errored)
			}
			if st.Result != nil {
				fmt.Fprintln(out)
				return writeSuiteResult(cmd.OutOrStdout(), st.Result)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the status as JSON")
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent suite workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			suites, err := querier.New(c).ListSuites(cmd.Context(), querier.ListOptions{
				TaskQueue:    a.cfg.TaskQueue,
				StatusFilter: status,
			})
			if err != nil {
				return err
			}
			if len(suites) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No suite workflows found.")
				return nil
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(dimStyle).
				Headers("WORKFLOW ID", "STATUS", "STARTED")
			for _, s := range suites {
				t.Row(s.WorkflowID, s.Status, s.StartTime.Format(time.RFC3339))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (Running, Completed, Failed, ...)")
	return cmd
}
