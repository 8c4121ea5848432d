package commands

import (
	"github.com/spf13/cobra"
)

// ExportOutput is the JSON form of a completed export.
type ExportOutput struct {
	File string `json:"file"`
	Rows int64  `json:"rows"`
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <csv>",
		Short: "Export the cleaned sink table to CSV",
		Long: `Export the cleaned sink table to a CSV file with a header row, using the
warehouse's native export. DuckDB targets also accept s3:// and other
remote URLs when the matching extension and secret are configured.`,
		Example: `  # Export the configured sink table
  loanprep export out/clean_loans.csv

  # Export a different table
  loanprep export out/clean_2024.csv --sink-table clean_loans_2024`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().String("sink-table", "", "Cleaned table to export")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := cc.Engine.Export(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if cc.Output.JSONMode() {
		return cc.Output.JSON(ExportOutput{File: args[0], Rows: n})
	}
	cc.Output.Printf("Exported %d rows to %s\n", n, args[0])
	return nil
}
