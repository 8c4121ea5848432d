package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Renderer writes command results as text tables or JSON.
type Renderer struct {
	w      io.Writer
	format string
}

// NewRenderer creates a renderer for the --output format of cmd.
func NewRenderer(cmd *cobra.Command) *Renderer {
	format, err := cmd.Flags().GetString("output")
	if err != nil || format == "" {
		format = OutputText
	}
	return &Renderer{w: cmd.OutOrStdout(), format: format}
}

// JSONMode reports whether output is JSON.
func (r *Renderer) JSONMode() bool {
	return r.format == OutputJSON
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes rows under header.
func (r *Renderer) Table(header table.Row, rows []table.Row) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(r.w, "(0 rows)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

// Printf writes formatted text.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

// Println writes a line.
func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.w, args...)
}

func validateOutput(r *Renderer) error {
	switch r.format {
	case OutputText, OutputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", r.format)
	}
}
