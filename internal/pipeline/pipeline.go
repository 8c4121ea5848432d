// Package pipeline provides the ordered step registry that turns a raw loan
// Dataset into a model-ready feature table.
//
// A Pipeline is an immutable sequence of Steps. Run applies every step in
// registration order, feeding each step's output to the next. Datasets are
// persistent values, so the caller's input is never modified and a failed run
// leaves nothing half-transformed behind.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Func transforms a Dataset. Implementations must be deterministic and must
// not read the clock, random sources, or perform I/O. Anomalies are recorded
// on rep, which may be nil.
type Func func(ds *core.Dataset, rep *Report) (*core.Dataset, error)

// Step is a named transformation with a declared column contract.
type Step struct {
	Name string
	// Requires lists columns that must be present before the step runs.
	Requires []string
	// Adds lists columns that must be present after the step runs.
	Adds []string
	// Removes lists columns that must be absent after the step runs.
	Removes []string
	Apply   Func
}

// Registry collects steps in declaration order.
type Registry struct {
	steps []Step
}

// Register appends s and returns it unchanged.
func (r *Registry) Register(s Step) Step {
	r.steps = append(r.steps, s)
	return s
}

// Len returns the number of registered steps.
func (r *Registry) Len() int { return len(r.steps) }

// Build freezes the registered steps into a Pipeline.
func (r *Registry) Build(name string, opts ...Option) *Pipeline {
	return New(name, r.steps, opts...)
}

// Pipeline is an immutable, reusable sequence of steps.
type Pipeline struct {
	name    string
	steps   []Step
	entry   []string
	exit    []func(*core.Dataset) error
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger used for per-step debug records.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records run statistics into m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithEntryCheck requires the input to be non-empty and to carry the named columns.
func WithEntryCheck(required ...string) Option {
	return func(p *Pipeline) { p.entry = append(p.entry, required...) }
}

// WithExitCheck adds a postcondition evaluated on the final Dataset.
func WithExitCheck(check func(*core.Dataset) error) Option {
	return func(p *Pipeline) { p.exit = append(p.exit, check) }
}

// New creates a Pipeline from steps. The slice is copied.
func New(name string, steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		name:   name,
		steps:  append([]Step(nil), steps...),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Concat joins stages into one Pipeline. Entry checks of every stage are
// kept, as are exit checks, which then run on the final Dataset.
func Concat(name string, stages ...*Pipeline) *Pipeline {
	p := &Pipeline{name: name, logger: slog.New(slog.DiscardHandler)}
	for _, s := range stages {
		if len(s.entry) > 0 {
			entry := s.entry
			stage := s.name
			p.steps = append(p.steps, Step{
				Name: stage + ":entry",
				Apply: func(ds *core.Dataset, _ *Report) (*core.Dataset, error) {
					if err := checkEntry(stage, ds, entry); err != nil {
						return nil, err
					}
					return ds, nil
				},
			})
		}
		p.steps = append(p.steps, s.steps...)
		p.exit = append(p.exit, s.exit...)
	}
	return p
}

// With returns a copy of p with additional options applied.
func (p *Pipeline) With(opts ...Option) *Pipeline {
	cp := *p
	cp.steps = append([]Step(nil), p.steps...)
	cp.entry = append([]string(nil), p.entry...)
	cp.exit = append([]func(*core.Dataset) error(nil), p.exit...)
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Steps returns a copy of the ordered steps.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Run applies every step in order and returns the final Dataset.
func (p *Pipeline) Run(ds *core.Dataset) (*core.Dataset, error) {
	out, _, err := p.RunWithReport(ds)
	return out, err
}

// RunWithReport is like Run but also returns the data-quality report and
// per-step statistics of the run.
func (p *Pipeline) RunWithReport(ds *core.Dataset) (*core.Dataset, *Report, error) {
	rep := newReport()
	start := time.Now()

	p.logger.Info("pipeline started", "pipeline", p.name, "rows", ds.Len(), "columns", ds.Width(), "steps", len(p.steps))

	if len(p.entry) > 0 {
		if err := checkEntry(p.name, ds, p.entry); err != nil {
			p.fail(err)
			return nil, rep, err
		}
	}

	cur := ds
	for i, s := range p.steps {
		if err := cur.Require(s.Name, s.Requires...); err != nil {
			err = &core.StepError{Step: s.Name, Position: i, Err: err}
			p.fail(err)
			return nil, rep, err
		}

		rep.enter(i, s.Name)
		stepStart := time.Now()
		next, err := s.Apply(cur, rep)
		if err != nil {
			err = &core.StepError{Step: s.Name, Position: i, Err: err}
			p.fail(err)
			return nil, rep, err
		}
		if err := checkContract(s, next); err != nil {
			err = &core.StepError{Step: s.Name, Position: i, Err: err}
			p.fail(err)
			return nil, rep, err
		}
		elapsed := time.Since(stepStart)

		rep.Steps = append(rep.Steps, StepStat{Position: i, Name: s.Name, Rows: next.Len(), Columns: next.Width()})
		p.metrics.observeStep(s.Name, elapsed)
		p.logger.Debug("step completed", "step", s.Name, "rows", next.Len(), "columns", next.Width(), "duration", elapsed)
		cur = next
	}

	for _, check := range p.exit {
		if err := check(cur); err != nil {
			err = fmt.Errorf("%s: postcondition failed: %w", p.name, err)
			p.fail(err)
			return nil, rep, err
		}
	}

	p.metrics.observeRun(cur.Len(), rep, true)
	p.logger.Info("pipeline completed", "pipeline", p.name, "rows", cur.Len(), "columns", cur.Width(), "duration", time.Since(start))
	return cur, rep, nil
}

func (p *Pipeline) fail(err error) {
	p.metrics.observeRun(0, nil, false)
	p.logger.Error("pipeline failed", "pipeline", p.name, "error", err)
}

func checkEntry(stage string, ds *core.Dataset, required []string) error {
	if err := ds.Require(stage, required...); err != nil {
		return err
	}
	if ds.Len() == 0 {
		return fmt.Errorf("%s: %w", stage, core.ErrEmptyDataset)
	}
	return nil
}

func checkContract(s Step, ds *core.Dataset) error {
	if missing := ds.Missing(s.Adds...); len(missing) > 0 {
		return fmt.Errorf("%w: declared columns not produced: %v", core.ErrContract, missing)
	}
	for _, name := range s.Removes {
		if ds.Has(name) {
			return fmt.Errorf("%w: column %q still present", core.ErrContract, name)
		}
	}
	return nil
}
