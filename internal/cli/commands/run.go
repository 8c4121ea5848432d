package commands

import (
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Clean the source table and persist model-ready features",
		Long: `Read raw loan records from the source table, apply the cleaning and
feature pipeline, and write the result to the sink table and/or CSV file.

The run is recorded in the state database with per-step row counts and
data-quality anomaly counts, and is reported even when it fails.`,
		Example: `  # Run with the configured source and sinks
  loanprep run

  # Also export the cleaned table as CSV
  loanprep run --output-csv out/clean_loans.csv

  # Run against the prod environment with JSON output
  loanprep run --env prod -o json`,
		RunE: runRun,
	}

	cmd.Flags().String("source-table", "", "Table holding raw loan records")
	cmd.Flags().String("sink-table", "", "Table receiving the cleaned records")
	cmd.Flags().String("output-csv", "", "CSV file receiving the cleaned records")

	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	res, runErr := cc.Engine.Run(ctx)
	if res == nil || res.Run == nil {
		return runErr
	}

	out := newRunOutput(res.Run)
	if err := loadRunDetail(ctx, cc.Engine.Store(), &out); err != nil {
		cc.Logger.Warn("failed to load run history", "run_id", out.ID, "error", err)
	}
	out.Sinks = sinkOutputs(res.Sinks)

	if err := renderRunDetail(cc.Output, out); err != nil {
		return err
	}
	return runErr
}
