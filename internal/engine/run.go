package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/internal/state"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Sink kinds.
const (
	SinkTable = "table"
	SinkCSV   = "csv"
)

// SinkResult reports what one sink persisted.
type SinkResult struct {
	Kind   string
	Target string
	Rows   int64
}

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	Run    *state.Run
	Report *pipeline.Report
	Sinks  []SinkResult
}

// Run reads the source table, applies the pipeline, persists the result to
// every configured sink concurrently, and records the run in the state store.
// The recorded run is returned even when the run fails.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	e.logger.Info("starting run", "environment", e.environment, "source", e.sourceTable)

	run, err := e.store.CreateRun(ctx, e.environment)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	e.logger.Debug("created run", "run_id", run.ID)

	res := &RunResult{}
	totals, runErr := e.execute(ctx, run.ID, res)

	if runErr != nil {
		e.logger.Error("run failed", "run_id", run.ID, "error", runErr)
		if err := e.store.FailRun(ctx, run.ID, runErr); err != nil {
			runErr = errors.Join(runErr, err)
		}
	} else {
		e.logger.Info("run completed", "run_id", run.ID, "rows", totals.RowsOut, "columns", totals.ColumnsOut)
		if err := e.store.CompleteRun(ctx, run.ID, totals); err != nil {
			runErr = err
		}
	}

	if err := e.metrics.WriteTextfile(e.metricsPath); err != nil {
		e.logger.Warn("metrics not written", "path", e.metricsPath, "error", err)
	}

	if got, err := e.store.GetRun(ctx, run.ID); err == nil {
		run = got
	}
	res.Run = run
	return res, runErr
}

func (e *Engine) execute(ctx context.Context, runID string, res *RunResult) (state.Totals, error) {
	var totals state.Totals

	if err := e.ensureDBConnected(ctx); err != nil {
		return totals, err
	}

	raw, err := e.db.ReadDataset(ctx, e.sourceTable, core.RawLoanSchema)
	if err != nil {
		return totals, fmt.Errorf("failed to read source %s: %w", e.sourceTable, err)
	}
	totals.RowsIn = raw.Len()

	out, rep, pipeErr := e.pipeline.RunWithReport(raw)
	res.Report = rep
	if err := e.recordReport(ctx, runID, rep); err != nil {
		return totals, errors.Join(pipeErr, err)
	}
	if pipeErr != nil {
		return totals, pipeErr
	}

	sinks, err := e.persist(ctx, out)
	res.Sinks = sinks
	if err != nil {
		return totals, err
	}

	totals.RowsOut = out.Len()
	totals.ColumnsOut = out.Width()
	return totals, nil
}

// persist writes ds to every configured sink concurrently. Sinks do not
// cancel each other; all failures are reported together.
func (e *Engine) persist(ctx context.Context, ds *core.Dataset) ([]SinkResult, error) {
	type sink struct {
		kind, target string
		write        func() (int64, error)
	}
	var sinks []sink
	if e.sinkTable != "" {
		sinks = append(sinks, sink{SinkTable, e.sinkTable, func() (int64, error) {
			return e.db.WriteDataset(ctx, e.sinkTable, ds)
		}})
	}
	if e.sinkCSVPath != "" {
		sinks = append(sinks, sink{SinkCSV, e.sinkCSVPath, func() (int64, error) {
			return WriteCSV(e.sinkCSVPath, ds)
		}})
	}
	if len(sinks) == 0 {
		return nil, errors.New("no sink configured")
	}

	results := make([]SinkResult, len(sinks))
	errs := make([]error, len(sinks))
	var g errgroup.Group
	for i, s := range sinks {
		g.Go(func() error {
			n, err := s.write()
			if err != nil {
				errs[i] = fmt.Errorf("%s sink %s: %w", s.kind, s.target, err)
				return errs[i]
			}
			results[i] = SinkResult{Kind: s.kind, Target: s.target, Rows: n}
			e.logger.Debug("sink written", "kind", s.kind, "target", s.target, "rows", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Join(errs...)
	}
	return results, nil
}

func (e *Engine) recordReport(ctx context.Context, runID string, rep *pipeline.Report) error {
	if rep == nil {
		return nil
	}
	steps := make([]state.StepRun, len(rep.Steps))
	for i, s := range rep.Steps {
		steps[i] = state.StepRun{Position: s.Position, Name: s.Name, Rows: s.Rows, Columns: s.Columns}
	}
	if err := e.store.RecordSteps(ctx, runID, steps); err != nil {
		return err
	}

	anomalies := rep.Anomalies()
	counts := make([]state.QualityCount, len(anomalies))
	for i, a := range anomalies {
		counts[i] = state.QualityCount{Position: a.Position, Step: a.Step, Kind: a.Kind, Count: a.Count}
	}
	return e.store.RecordQuality(ctx, runID, counts)
}
