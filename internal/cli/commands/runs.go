package commands

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/loanprep/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs",
		Long:  `List recorded pipeline runs, most recent first.`,
		Example: `  # Show the last 5 runs
  loanprep runs --limit 5

  # Show one run with its steps and quality counts
  loanprep runs show 5f0c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its steps and data-quality counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	})

	return cmd
}

// openStore opens the run history without connecting to the warehouse.
func openStore(cmd *cobra.Command) (*CommandContext, *state.SQLiteStore, error) {
	cc, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return nil, nil, err
	}
	store := state.NewSQLiteStore(cc.Logger)
	if err := store.Open(cc.Cfg.StatePath); err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return cc, store, nil
}

func runRuns(cmd *cobra.Command, limit int) error {
	cc, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	r := cc.Output
	if r.JSONMode() {
		out := make([]RunOutput, len(runs))
		for i, run := range runs {
			out[i] = newRunOutput(run)
		}
		return r.JSON(out)
	}

	rows := make([]table.Row, len(runs))
	for i, run := range runs {
		rows[i] = table.Row{
			run.ID, run.Environment, run.Status,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Duration().Round(time.Millisecond), run.RowsOut, run.Error,
		}
	}
	r.Table(table.Row{"ID", "Env", "Status", "Started", "Duration", "Rows", "Error"}, rows)
	return nil
}

func runShow(cmd *cobra.Command, id string) error {
	cc, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}

	out := newRunOutput(run)
	if err := loadRunDetail(ctx, store, &out); err != nil {
		return err
	}
	return renderRunDetail(cc.Output, out)
}
