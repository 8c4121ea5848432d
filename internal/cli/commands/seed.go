package commands

import (
	"errors"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// SeedOutput is the JSON form of a completed seed.
type SeedOutput struct {
	Table   string            `json:"table"`
	File    string            `json:"file"`
	Rows    int64             `json:"rows"`
	Headers map[string]string `json:"headers"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [csv]",
		Short: "Load a raw loan CSV into the source table",
		Long: `Load a raw loan CSV into the source table, replacing its contents.

CSV headers are matched to the raw loan columns ignoring case, spacing, and
punctuation, so the public dataset's "Years in current job" loads into
years_in_job. Extra columns are discarded; a missing column is an error.

Without an argument, source.csv_path from the configuration is loaded.`,
		Example: `  # Load the configured source CSV
  loanprep seed

  # Load a specific file into a different table
  loanprep seed data/credit_train.csv --source-table raw_loans_2024`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSeed,
	}

	cmd.Flags().String("source-table", "", "Table receiving the raw loan records")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	path := cc.Cfg.Source.CSVPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return errors.New("no CSV file given and source.csv_path is not configured")
	}

	res, err := cc.Engine.Seed(cmd.Context(), path)
	if err != nil {
		return err
	}

	r := cc.Output
	if r.JSONMode() {
		return r.JSON(SeedOutput{Table: res.Table, File: path, Rows: res.Rows, Headers: res.Headers})
	}

	r.Printf("Loaded %d rows from %s into %s\n\n", res.Rows, path, res.Table)
	cols := make([]string, 0, len(res.Headers))
	for col := range res.Headers {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	rows := make([]table.Row, len(cols))
	for i, col := range cols {
		rows[i] = table.Row{col, res.Headers[col]}
	}
	r.Table(table.Row{"Column", "CSV header"}, rows)
	return nil
}
