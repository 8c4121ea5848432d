package adapter

import (
	"context"
	"math"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loanprep/pkg/core"
)

var testDialect = &Dialect{
	Name:          "test",
	DefaultSchema: "main",
	NumericType:   "DOUBLE",
	TextType:      "VARCHAR",
	Placeholder:   QuestionPlaceholder,
}

func newMockAdapter(t *testing.T) (*BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &BaseSQLAdapter{DB: db, Dialect: testDialect}, mock
}

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}
			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}
			assert.NoError(t, base.Close())
		})
	}
}

func TestBaseSQLAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	base := &BaseSQLAdapter{Dialect: testDialect}

	tests := []struct {
		name string
		op   func() error
	}{
		{"exec", func() error { return base.Exec(ctx, "SELECT 1") }},
		{"query", func() error { _, err := base.Query(ctx, "SELECT 1"); return err }},
		{"count", func() error { _, err := base.CountRows(ctx, "t"); return err }},
		{"read", func() error { _, err := base.ReadDataset(ctx, "t", nil); return err }},
		{"write", func() error {
			_, err := base.WriteDataset(ctx, "t", core.MustDataset(core.NewNumericColumn("x", []float64{1})))
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			require.ErrorIs(t, err, ErrNotConnected)
			assert.Equal(t, "database connection not established", err.Error())
		})
	}
	assert.False(t, base.IsConnected())
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	base, mock := newMockAdapter(t)
	mock.ExpectExec("CREATE TABLE loans").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)

	assert.NoError(t, base.Exec(context.Background(), "CREATE TABLE loans (id INT)"))
	err := base.Exec(context.Background(), "INVALID SQL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute SQL")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_ReadDataset(t *testing.T) {
	base, mock := newMockAdapter(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM information_schema.tables")).
		WithArgs("main", "loans").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "loan_id", "credit_score", "monthly_debt" FROM "main"."loans"`)).
		WillReturnRows(sqlmock.NewRows([]string{"loan_id", "credit_score", "monthly_debt"}).
			AddRow("a", int64(700), "$1,200.50").
			AddRow("b", nil, 35.5).
			AddRow(nil, "n/a", nil))

	ds, err := base.ReadDataset(context.Background(), "loans", []core.Field{
		{Name: "loan_id", Type: core.String},
		{Name: "credit_score", Type: core.Numeric},
		{Name: "monthly_debt", Type: core.String},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 3, ds.Len())
	ids, _ := ds.Column("loan_id")
	v, ok := ids.Str(0)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.True(t, ids.IsNull(2))

	scores, _ := ds.Column("credit_score")
	assert.Equal(t, 700.0, scores.Float(0))
	assert.True(t, math.IsNaN(scores.Float(1)), "NULL reads as NaN")
	assert.True(t, math.IsNaN(scores.Float(2)), "uncoercible value reads as NaN")

	debt, _ := ds.Column("monthly_debt")
	v, _ = debt.Str(0)
	assert.Equal(t, "$1,200.50", v)
	v, _ = debt.Str(1)
	assert.Equal(t, "35.5", v)
	assert.True(t, debt.IsNull(2))
}

func TestBaseSQLAdapter_ReadDatasetMissingTable(t *testing.T) {
	base, mock := newMockAdapter(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM information_schema.tables")).
		WithArgs("raw", "loans").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	_, err := base.ReadDataset(context.Background(), "raw.loans", core.RawLoanSchema)

	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_WriteDataset(t *testing.T) {
	base, mock := newMockAdapter(t)
	ds := core.MustDataset(
		core.NewStringColumn("loan_id", []string{"a", ""}, []bool{true, false}),
		core.NewNumericColumn("ratio", []float64{0.5, math.NaN()}),
		core.NewBoolColumn("flag", []bool{true, false}),
	)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "main"."clean"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "main"."clean" ("loan_id" VARCHAR, "ratio" DOUBLE, "flag" DOUBLE)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "main"."clean" ("loan_id", "ratio", "flag") VALUES (?, ?, ?)`))
	prep.ExpectExec().WithArgs("a", 0.5, 1.0).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(nil, nil, 0.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := base.WriteDataset(context.Background(), "clean", ds)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_WriteDatasetRollsBack(t *testing.T) {
	base, mock := newMockAdapter(t)
	ds := core.MustDataset(core.NewNumericColumn("x", []float64{1}))

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := base.WriteDataset(context.Background(), "clean", ds)
	require.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_DescribeTable(t *testing.T) {
	base, mock := newMockAdapter(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT column_name, data_type FROM information_schema.columns")).
		WithArgs("main", "clean").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("loan_id", "VARCHAR").
			AddRow("ratio", "DOUBLE").
			AddRow("note", "character varying").
			AddRow("flag", "double precision"))

	fields, err := base.DescribeTable(context.Background(), "clean")
	require.NoError(t, err)
	assert.Equal(t, []core.Field{
		{Name: "loan_id", Type: core.String},
		{Name: "ratio", Type: core.Numeric},
		{Name: "note", Type: core.String},
		{Name: "flag", Type: core.Numeric},
	}, fields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_DescribeMissingTable(t *testing.T) {
	base, mock := newMockAdapter(t)
	mock.ExpectQuery("information_schema.columns").
		WithArgs("main", "nope").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))

	_, err := base.DescribeTable(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBaseSQLAdapter_CountRows(t *testing.T) {
	base, mock := newMockAdapter(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "main"."loans"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := base.CountRows(context.Background(), "loans")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, `"main"."loans"`, QualifiedName("loans", testDialect))
	assert.Equal(t, `"raw"."loans"`, QualifiedName("raw.loans", testDialect))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
	assert.Equal(t, "$3", DollarPlaceholder(3))
}
