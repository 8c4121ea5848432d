package commands

import (
	"context"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/loanprep/internal/engine"
	"github.com/leapstack-labs/loanprep/internal/state"
)

// RunOutput is the JSON form of a recorded run.
type RunOutput struct {
	ID          string       `json:"id"`
	Environment string       `json:"environment"`
	Status      string       `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	DurationMS  int64        `json:"duration_ms"`
	Error       string       `json:"error,omitempty"`
	RowsIn      int          `json:"rows_in"`
	RowsOut     int          `json:"rows_out"`
	ColumnsOut  int          `json:"columns_out"`
	Steps       []StepOutput `json:"steps,omitempty"`
	Quality     []QualityOut `json:"quality,omitempty"`
	Sinks       []SinkOutput `json:"sinks,omitempty"`
}

// StepOutput is one step's row and column count.
type StepOutput struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
}

// QualityOut is one anomaly count.
type QualityOut struct {
	Position int    `json:"position"`
	Step     string `json:"step"`
	Kind     string `json:"kind"`
	Count    int    `json:"count"`
}

// SinkOutput is what one sink persisted.
type SinkOutput struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
	Rows   int64  `json:"rows"`
}

func newRunOutput(run *state.Run) RunOutput {
	return RunOutput{
		ID:          run.ID,
		Environment: run.Environment,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		DurationMS:  run.Duration().Milliseconds(),
		Error:       run.Error,
		RowsIn:      run.RowsIn,
		RowsOut:     run.RowsOut,
		ColumnsOut:  run.ColumnsOut,
	}
}

// loadRunDetail fills the step and quality history of out from store.
func loadRunDetail(ctx context.Context, store *state.SQLiteStore, out *RunOutput) error {
	steps, err := store.GetSteps(ctx, out.ID)
	if err != nil {
		return err
	}
	for _, s := range steps {
		out.Steps = append(out.Steps, StepOutput(s))
	}
	quality, err := store.GetQuality(ctx, out.ID)
	if err != nil {
		return err
	}
	for _, q := range quality {
		out.Quality = append(out.Quality, QualityOut(q))
	}
	return nil
}

func sinkOutputs(sinks []engine.SinkResult) []SinkOutput {
	out := make([]SinkOutput, len(sinks))
	for i, s := range sinks {
		out[i] = SinkOutput(s)
	}
	return out
}

// renderRunDetail writes a run summary followed by its steps, quality counts, and sinks.
func renderRunDetail(r *Renderer, out RunOutput) error {
	if r.JSONMode() {
		return r.JSON(out)
	}

	r.Printf("Run %s (%s): %s in %s\n", out.ID, out.Environment, out.Status,
		(time.Duration(out.DurationMS) * time.Millisecond).String())
	if out.Error != "" {
		r.Printf("Error: %s\n", out.Error)
	}
	r.Printf("Rows in: %d  Rows out: %d  Columns out: %d\n", out.RowsIn, out.RowsOut, out.ColumnsOut)

	if len(out.Steps) > 0 {
		r.Println()
		rows := make([]table.Row, len(out.Steps))
		for i, s := range out.Steps {
			rows[i] = table.Row{s.Position, s.Name, s.Rows, s.Columns}
		}
		r.Table(table.Row{"#", "Step", "Rows", "Columns"}, rows)
	}
	if len(out.Quality) > 0 {
		r.Println()
		rows := make([]table.Row, len(out.Quality))
		for i, q := range out.Quality {
			rows[i] = table.Row{q.Position, q.Step, q.Kind, q.Count}
		}
		r.Table(table.Row{"#", "Step", "Anomaly", "Count"}, rows)
	}
	if len(out.Sinks) > 0 {
		r.Println()
		rows := make([]table.Row, len(out.Sinks))
		for i, s := range out.Sinks {
			rows[i] = table.Row{s.Kind, s.Target, s.Rows}
		}
		r.Table(table.Row{"Sink", "Target", "Rows"}, rows)
	}
	return nil
}
