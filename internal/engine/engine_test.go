package engine

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/internal/state"
	"github.com/leapstack-labs/loanprep/internal/testutil"
	"github.com/leapstack-labs/loanprep/internal/training"
	"github.com/leapstack-labs/loanprep/pkg/adapter"
	"github.com/leapstack-labs/loanprep/pkg/core"

	_ "github.com/leapstack-labs/loanprep/pkg/adapters/duckdb"
)

func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := Config{
		StatePath:     ":memory:",
		Environment:   "test",
		AdapterConfig: adapter.Config{Type: "duckdb", Path: ":memory:"},
		SourceTable:   "raw_loans",
		SinkTable:     "clean_loans",
		Training:      training.DefaultConfig(),
		Logger:        testutil.NewTestLogger(t),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_SeedRunTrain(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	csvPath := testutil.WriteLoanCSV(t, dir, "loans_20.csv", 20)
	outCSV := filepath.Join(dir, "out", "clean_loans.csv")

	e := newTestEngine(t, func(c *Config) { c.SinkCSVPath = outCSV })

	seeded, err := e.Seed(ctx, csvPath)
	require.NoError(t, err)
	assert.Equal(t, int64(20), seeded.Rows)
	assert.Equal(t, "Years in current job", seeded.Headers[core.ColYearsInJob])
	assert.Equal(t, "Loan ID", seeded.Headers[core.ColLoanID])

	res, err := e.Run(ctx)
	require.NoError(t, err)

	run := res.Run
	assert.Equal(t, state.RunStatusCompleted, run.Status)
	assert.Equal(t, "test", run.Environment)
	assert.Equal(t, 20, run.RowsIn)
	assert.Equal(t, 20, run.RowsOut)

	require.Len(t, res.Sinks, 2)
	assert.Equal(t, SinkResult{Kind: SinkTable, Target: "clean_loans", Rows: 20}, res.Sinks[0])
	assert.Equal(t, SinkResult{Kind: SinkCSV, Target: outCSV, Rows: 20}, res.Sinks[1])

	assert.Equal(t, 1, res.Report.Count(pipeline.KindSentinel))
	assert.Equal(t, 1, res.Report.Count(pipeline.KindRescaled))
	assert.Equal(t, 1, res.Report.StepCount("normalize_monthly_debt", pipeline.KindUnparseable))

	// The warehouse table and the CSV export carry the same columns.
	fields, err := e.db.DescribeTable(ctx, "clean_loans")
	require.NoError(t, err)
	assert.Len(t, fields, run.ColumnsOut)

	f, err := os.Open(outCSV)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 21)
	assert.Len(t, records[0], run.ColumnsOut)
	assert.Contains(t, records[0], core.ColDebtToIncome)
	assert.NotContains(t, records[0], core.ColPurpose, "encoded columns are dropped")

	// Run history
	steps, err := e.Store().GetSteps(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, steps, len(e.Pipeline().Steps()))
	for _, s := range steps {
		assert.Equal(t, 20, s.Rows, s.Name)
	}
	quality, err := e.Store().GetQuality(ctx, run.ID)
	require.NoError(t, err)
	var sentinel *state.QualityCount
	for i := range quality {
		if quality[i].Kind == pipeline.KindSentinel {
			sentinel = &quality[i]
		}
	}
	require.NotNil(t, sentinel)
	assert.Equal(t, "handle_loan_amount_sentinel", sentinel.Step)
	assert.Equal(t, 1, sentinel.Count)

	// Training on the persisted table
	result, err := e.Train(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Dropped)
	assert.Equal(t, 20, result.TrainRows+result.TestRows)
	assert.NotContains(t, result.Features, core.ColLoanID)
	assert.NotContains(t, result.Features, core.ColAnnualIncome)
	assert.Contains(t, result.Features, core.ColCreditRisk)
	assert.GreaterOrEqual(t, result.Metrics.Accuracy, 0.0)
	assert.LessOrEqual(t, result.Metrics.Accuracy, 1.0)
}

func TestEngine_Export(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	e := newTestEngine(t, nil)

	_, err := e.Export(ctx, filepath.Join(dir, "x.csv"))
	assert.ErrorIs(t, err, core.ErrNotFound, "nothing has been run yet")

	_, err = e.Seed(ctx, testutil.WriteLoanCSV(t, dir, "loans.csv", 8))
	require.NoError(t, err)
	_, err = e.Run(ctx)
	require.NoError(t, err)

	path := filepath.Join(dir, "exports", "clean.csv")
	n, err := e.Export(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 9)
	assert.Contains(t, records[0], core.ColCreditRisk)
}

func TestEngine_SeedReplacesTable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	e := newTestEngine(t, nil)

	_, err := e.Seed(ctx, testutil.WriteLoanCSV(t, dir, "loans_12.csv", 12))
	require.NoError(t, err)
	res, err := e.Seed(ctx, testutil.WriteLoanCSV(t, dir, "loans_8.csv", 8))
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.Rows)

	n, err := e.db.CountRows(ctx, "raw_loans")
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
}

func TestEngine_SeedMissingColumns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "partial.csv")
	require.NoError(t, os.WriteFile(path, []byte("Loan ID,Customer ID,Loan Status\na,b,Fully Paid\n"), 0o600))

	e := newTestEngine(t, nil)
	_, err := e.Seed(ctx, path)

	var missing *core.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "seed", missing.Stage)
	assert.Contains(t, missing.Columns, core.ColCreditScore)
	assert.ErrorIs(t, err, core.ErrPrecondition)
}

func TestEngine_RunMissingSource(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	res, err := e.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NotNil(t, res.Run)
	assert.Equal(t, state.RunStatusFailed, res.Run.Status)
	assert.Contains(t, res.Run.Error, "raw_loans")

	runs, err := e.Store().ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.Run.ID, runs[0].ID)
}

func TestEngine_RunSinkFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	e := newTestEngine(t, func(c *Config) { c.SinkCSVPath = filepath.Join(blocker, "clean.csv") })
	_, err := e.Seed(ctx, testutil.WriteLoanCSV(t, dir, "loans_8.csv", 8))
	require.NoError(t, err)

	res, err := e.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv sink")
	assert.Equal(t, state.RunStatusFailed, res.Run.Status)

	// The table sink is independent of the failed CSV sink.
	n, err := e.db.CountRows(ctx, "clean_loans")
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
}

func TestEngine_Metrics(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "loanprep.prom")

	e := newTestEngine(t, func(c *Config) { c.MetricsPath = metricsPath })
	_, err := e.Seed(ctx, testutil.WriteLoanCSV(t, dir, "loans_8.csv", 8))
	require.NoError(t, err)
	_, err = e.Run(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `loanprep_pipeline_runs_total{status="completed"} 1`)
	assert.Contains(t, text, "loanprep_pipeline_rows_total 8")
	assert.Contains(t, text, `loanprep_pipeline_anomalies_total{kind="sentinel",step="handle_loan_amount_sentinel"} 1`)
}

func TestEngine_TrainWithoutSinkTable(t *testing.T) {
	e := newTestEngine(t, func(c *Config) {
		c.SinkTable = ""
		c.SinkCSVPath = filepath.Join(t.TempDir(), "x.csv")
	})
	_, err := e.Train(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink table")
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := New(context.Background(), Config{StatePath: ":memory:"})
	require.Error(t, err)
}

func TestMatchHeaders(t *testing.T) {
	mapping, err := MatchHeaders(append([]string{"Unnamed: 0"}, testutil.KaggleHeaders...))
	require.NoError(t, err)
	assert.Len(t, mapping, len(core.RawLoanSchema))
	assert.Equal(t, "Years of Credit History", mapping[core.ColYearsCreditHistory])
	assert.Equal(t, "Number of Credit Problems", mapping[core.ColNumberCreditProblems])
	assert.Equal(t, "Months since last delinquent", mapping[core.ColMonthsSinceLastDelinquent])

	// Already-normalized headers map to themselves.
	mapping, err = MatchHeaders(core.FieldNames(core.RawLoanSchema))
	require.NoError(t, err)
	assert.Equal(t, core.ColTaxLiens, mapping[core.ColTaxLiens])

	_, err = MatchHeaders([]string{"Loan ID"})
	var missing *core.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Len(t, missing.Columns, len(core.RawLoanSchema)-1)
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Loan ID":                 "loan_id",
		"Years of Credit History": "years_of_credit_history",
		"  Tax-Liens ":            "tax_liens",
		"monthly_debt":            "monthly_debt",
		"Credit Score (FICO)":     "credit_score_fico",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeHeader(in), in)
	}
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "main.loans", qualify("loans", "main"))
	assert.Equal(t, "raw.loans", qualify("raw.loans", "main"))
	assert.Equal(t, "loans", qualify("loans", ""))
	assert.Equal(t, "", qualify("", "main"))
	assert.Equal(t, `"raw"."loans"`, quoteTable("raw.loans"))
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	ds := core.MustDataset(
		core.NewStringColumn("loan_id", []string{"a", "", "c,d"}, []bool{true, false, true}),
		core.NewNumericColumn("ratio", []float64{0.25, math.NaN(), 1e6}),
		core.NewBoolColumn("flag", []bool{true, false, true}),
	)

	n, err := WriteCSV(path, ds)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"loan_id,ratio,flag",
		"a,0.25,1",
		",,0",
		`"c,d",1000000,1`,
	}, "\n")+"\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestEngine_CloseTwice(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.Close())
	assert.NoError(t, e.Close())
}
