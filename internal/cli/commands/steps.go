package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/loanprep/internal/engine"
)

// StepInfo describes one pipeline step and its column contract.
type StepInfo struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	Requires []string `json:"requires,omitempty"`
	Adds     []string `json:"adds,omitempty"`
	Removes  []string `json:"removes,omitempty"`
}

// NewStepsCommand creates the steps command.
func NewStepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List pipeline steps in execution order",
		Long: `List every step of the cleaning and feature pipeline in execution order,
with the columns each step requires, adds, and removes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewRenderer(cmd)
			if err := validateOutput(r); err != nil {
				return err
			}

			p := engine.NewPipeline()
			steps := p.Steps()
			infos := make([]StepInfo, len(steps))
			for i, s := range steps {
				infos[i] = StepInfo{Position: i, Name: s.Name, Requires: s.Requires, Adds: s.Adds, Removes: s.Removes}
			}

			if r.JSONMode() {
				return r.JSON(infos)
			}
			rows := make([]table.Row, len(infos))
			for i, s := range infos {
				rows[i] = table.Row{s.Position, s.Name,
					strings.Join(s.Requires, ", "), strings.Join(s.Adds, ", "), strings.Join(s.Removes, ", ")}
			}
			r.Table(table.Row{"#", "Step", "Requires", "Adds", "Removes"}, rows)
			return nil
		},
	}
}
