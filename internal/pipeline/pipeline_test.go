package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loanprep/internal/testutil"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

func numbers(name string, vals ...float64) *core.Column {
	return core.NewNumericColumn(name, vals)
}

// scale returns a step that multiplies column in place by k.
func scale(name, column string, k float64) Step {
	return Step{
		Name:     name,
		Requires: []string{column},
		Apply: func(ds *core.Dataset, _ *Report) (*core.Dataset, error) {
			x, err := Floats(ds, column)
			if err != nil {
				return nil, err
			}
			for i := range x {
				x[i] *= k
			}
			return ds.With(core.NewNumericColumn(column, x))
		},
	}
}

func TestRegistry_RegisterReturnsStepUnchanged(t *testing.T) {
	var r Registry
	s := scale("double", "x", 2)

	got := r.Register(s)

	assert.Equal(t, s.Name, got.Name)
	assert.Equal(t, s.Requires, got.Requires)
	assert.Equal(t, 1, r.Len())
}

func TestPipeline_RunsInRegistrationOrder(t *testing.T) {
	var r Registry
	add := func(name string, k float64) Step {
		return Step{Name: name, Apply: func(ds *core.Dataset, _ *Report) (*core.Dataset, error) {
			x, _ := Floats(ds, "x")
			for i := range x {
				x[i] = x[i]*10 + k
			}
			return ds.With(core.NewNumericColumn("x", x))
		}}
	}
	r.Register(add("one", 1))
	r.Register(add("two", 2))
	r.Register(add("three", 3))

	out, err := r.Build("ordered").Run(core.MustDataset(numbers("x", 0)))
	require.NoError(t, err)

	c, _ := out.Column("x")
	assert.Equal(t, []float64{123}, c.Floats())
}

func TestPipeline_InputIsNeverModified(t *testing.T) {
	in := core.MustDataset(numbers("x", 1, 2, 3))
	snapshot := core.MustDataset(numbers("x", 1, 2, 3))

	boom := errors.New("boom")
	p := New("failing", []Step{
		scale("double", "x", 2),
		{Name: "explode", Apply: func(*core.Dataset, *Report) (*core.Dataset, error) { return nil, boom }},
	})

	out, err := p.Run(in)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, in.Equal(snapshot), "input changed after failed run")

	var stepErr *core.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "explode", stepErr.Step)
	assert.Equal(t, 1, stepErr.Position)
	assert.ErrorIs(t, err, boom)

	// A successful run leaves the input untouched as well.
	_, err = New("ok", []Step{scale("double", "x", 2)}).Run(in)
	require.NoError(t, err)
	assert.True(t, in.Equal(snapshot))
}

func TestPipeline_Deterministic(t *testing.T) {
	p := New("det", []Step{scale("double", "x", 2), scale("halve", "x", 0.5)})
	in := core.MustDataset(numbers("x", 1.5, -3, 7))

	a, err := p.Run(in)
	require.NoError(t, err)
	b, err := p.Run(in)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestPipeline_Preconditions(t *testing.T) {
	tests := []struct {
		name      string
		input     *core.Dataset
		wantErr   error
		wantInMsg string
	}{
		{
			name:      "missing column",
			input:     core.MustDataset(numbers("y", 1)),
			wantErr:   core.ErrPrecondition,
			wantInMsg: "x",
		},
		{
			name:      "empty dataset",
			input:     core.MustDataset(numbers("x")),
			wantErr:   core.ErrEmptyDataset,
			wantInMsg: "empty",
		},
	}

	p := New("guarded", []Step{scale("double", "x", 2)}, WithEntryCheck("x"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Run(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantInMsg)
		})
	}
}

func TestPipeline_MissingColumnNamesStage(t *testing.T) {
	p := New("cleaning", []Step{scale("double", "x", 2)}, WithEntryCheck("x", "z"))

	_, err := p.Run(core.MustDataset(numbers("y", 1)))

	var missing *core.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "cleaning", missing.Stage)
	assert.Equal(t, []string{"x", "z"}, missing.Columns)
}

func TestPipeline_StepRequires(t *testing.T) {
	p := New("p", []Step{scale("double", "absent", 2)})

	_, err := p.Run(core.MustDataset(numbers("x", 1)))

	require.ErrorIs(t, err, core.ErrPrecondition)
	var stepErr *core.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "double", stepErr.Step)
}

func TestPipeline_ContractViolations(t *testing.T) {
	identity := func(ds *core.Dataset, _ *Report) (*core.Dataset, error) { return ds, nil }
	tests := []struct {
		name string
		step Step
	}{
		{name: "declared column not added", step: Step{Name: "adds", Adds: []string{"new"}, Apply: identity}},
		{name: "declared column not removed", step: Step{Name: "removes", Removes: []string{"x"}, Apply: identity}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("p", []Step{tt.step}).Run(core.MustDataset(numbers("x", 1)))
			assert.ErrorIs(t, err, core.ErrContract)
		})
	}
}

func TestPipeline_ExitCheck(t *testing.T) {
	noX := func(ds *core.Dataset) error {
		if ds.Has("x") {
			return errors.New("x must be gone")
		}
		return nil
	}
	p := New("p", []Step{scale("double", "x", 2)}, WithExitCheck(noX))

	_, err := p.Run(core.MustDataset(numbers("x", 1)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "postcondition")
}

func TestConcat_ChecksEachStageEntry(t *testing.T) {
	first := New("first", []Step{{
		Name: "drop_x",
		Apply: func(ds *core.Dataset, _ *Report) (*core.Dataset, error) {
			return ds.Without("x"), nil
		},
	}}, WithEntryCheck("x"))
	second := New("second", []Step{scale("double", "x", 2)}, WithEntryCheck("x"))

	p := Concat("all", first, second)
	names := make([]string, 0, len(p.Steps()))
	for _, s := range p.Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"first:entry", "drop_x", "second:entry", "double"}, names)

	_, err := p.Run(core.MustDataset(numbers("x", 1)))
	var missing *core.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "second", missing.Stage)
}

func TestPipeline_WithDoesNotAffectOriginal(t *testing.T) {
	base := New("p", []Step{scale("double", "x", 2)})
	guarded := base.With(WithEntryCheck("missing"))

	_, err := base.Run(core.MustDataset(numbers("x", 1)))
	assert.NoError(t, err)
	_, err = guarded.Run(core.MustDataset(numbers("x", 1)))
	assert.ErrorIs(t, err, core.ErrPrecondition)
}

func TestRunWithReport(t *testing.T) {
	counting := Step{
		Name: "count_negatives",
		Apply: func(ds *core.Dataset, rep *Report) (*core.Dataset, error) {
			x, _ := Floats(ds, "x")
			n := 0
			for _, v := range x {
				if v < 0 {
					n++
				}
			}
			rep.Add(KindClipped, n)
			rep.Add(KindImputed, 0)
			return ds.With(core.NewNumericColumn("y", x))
		},
	}
	p := New("p", []Step{scale("double", "x", 2), counting}, WithLogger(testutil.NewTestLogger(t)))

	_, rep, err := p.RunWithReport(core.MustDataset(numbers("x", -1, 2, -3)))
	require.NoError(t, err)

	assert.Equal(t, []Anomaly{{Position: 1, Step: "count_negatives", Kind: KindClipped, Count: 2}}, rep.Anomalies())
	assert.Equal(t, 2, rep.Count(KindClipped))
	assert.Equal(t, 2, rep.StepCount("count_negatives", KindClipped))
	assert.Zero(t, rep.Count(KindImputed))
	assert.Equal(t, []StepStat{
		{Position: 0, Name: "double", Rows: 3, Columns: 1},
		{Position: 1, Name: "count_negatives", Rows: 3, Columns: 2},
	}, rep.Steps)
}

func TestReport_NilSafe(t *testing.T) {
	var rep *Report
	rep.Add(KindImputed, 3)
	assert.Nil(t, rep.Anomalies())
	assert.Zero(t, rep.Count(KindImputed))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	step := Step{
		Name: "flag",
		Apply: func(ds *core.Dataset, rep *Report) (*core.Dataset, error) {
			rep.Add(KindSentinel, 1)
			return ds, nil
		},
	}
	p := New("p", []Step{step}, WithMetrics(m))

	_, err := p.Run(core.MustDataset(numbers("x", 1, 2)))
	require.NoError(t, err)
	_, err = p.Run(core.MustDataset(numbers("x")))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "loanprep.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `loanprep_pipeline_runs_total{status="completed"} 2`)
	assert.Contains(t, text, "loanprep_pipeline_rows_total 2")
	assert.Contains(t, text, `loanprep_pipeline_anomalies_total{kind="sentinel",step="flag"} 2`)
	assert.True(t, strings.Contains(text, `loanprep_pipeline_step_duration_seconds{step="flag"}`))

	var nilMetrics *Metrics
	assert.NoError(t, nilMetrics.WriteTextfile(path))
}
