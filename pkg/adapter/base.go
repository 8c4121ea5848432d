package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/leapstack-labs/loanprep/pkg/core"
)

// ErrNotConnected is returned when an operation needs an open connection.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query, ReadDataset, WriteDataset and CountRows implementations.
type BaseSQLAdapter struct {
	DB      *sql.DB
	Cfg     Config
	Logger  *slog.Logger
	Dialect *Dialect
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// TableExists reports whether table is present in information_schema.
func (b *BaseSQLAdapter) TableExists(ctx context.Context, table string) (bool, error) {
	if b.DB == nil {
		return false, ErrNotConnected
	}
	schema, name := ParseQualifiedName(table, b.Dialect)
	//nolint:gosec // Placeholders come from the dialect
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = %s AND table_name = %s",
		b.Dialect.Placeholder(1), b.Dialect.Placeholder(2),
	)
	var n int64
	if err := b.DB.QueryRowContext(ctx, query, schema, name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return n > 0, nil
}

// CountRows returns the number of rows in table.
func (b *BaseSQLAdapter) CountRows(ctx context.Context, table string) (int64, error) {
	if b.DB == nil {
		return 0, ErrNotConnected
	}
	var n int64
	query := "SELECT COUNT(*) FROM " + QualifiedName(table, b.Dialect) //nolint:gosec // identifier is quoted
	if err := b.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return n, nil
}

// DescribeTable returns the columns of table in ordinal order. Character
// types map to core.String; every other type maps to core.Numeric. A missing
// table yields an error wrapping core.ErrNotFound.
func (b *BaseSQLAdapter) DescribeTable(ctx context.Context, table string) ([]core.Field, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	schema, name := ParseQualifiedName(table, b.Dialect)
	//nolint:gosec // Placeholders come from the dialect
	query := fmt.Sprintf(
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = %s AND table_name = %s ORDER BY ordinal_position",
		b.Dialect.Placeholder(1), b.Dialect.Placeholder(2),
	)
	rows, err := b.DB.QueryContext(ctx, query, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var fields []core.Field
	for rows.Next() {
		var col, typ string
		if err := rows.Scan(&col, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan columns of %s: %w", table, err)
		}
		fields = append(fields, core.Field{Name: col, Type: fieldType(typ)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", table, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s: %w", table, core.ErrNotFound)
	}
	return fields, nil
}

func fieldType(sqlType string) core.ColumnType {
	t := strings.ToUpper(sqlType)
	if strings.Contains(t, "CHAR") || strings.Contains(t, "TEXT") || strings.Contains(t, "STRING") {
		return core.String
	}
	return core.Numeric
}

// ReadDataset selects the schema's columns from table and coerces each value
// to the declared type. SQL NULL and values that cannot be coerced to a
// number both become null.
func (b *BaseSQLAdapter) ReadDataset(ctx context.Context, table string, schema []core.Field) (*core.Dataset, error) {
	exists, err := b.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("table %s: %w", table, core.ErrNotFound)
	}

	cols := make([]string, len(schema))
	for i, f := range schema {
		cols[i] = QuoteIdent(f.Name)
	}
	//nolint:gosec // identifiers are quoted
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), QualifiedName(table, b.Dialect))

	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	builders := make([]columnBuilder, len(schema))
	for i, f := range schema {
		builders[i] = columnBuilder{field: f}
	}
	raw := make([]any, len(schema))
	dest := make([]any, len(schema))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		for i := range builders {
			builders[i].append(raw[i])
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}

	out := make([]*core.Column, len(builders))
	for i := range builders {
		out[i] = builders[i].build()
	}
	ds, err := core.NewDataset(out...)
	if err != nil {
		return nil, err
	}
	b.logger().Debug("dataset read", "table", table, "rows", ds.Len(), "columns", ds.Width())
	return ds, nil
}

// WriteDataset drops and recreates table from ds inside one transaction.
// NaN and null values are written as SQL NULL.
func (b *BaseSQLAdapter) WriteDataset(ctx context.Context, table string, ds *core.Dataset) (int64, error) {
	if b.DB == nil {
		return 0, ErrNotConnected
	}
	qualified := QualifiedName(table, b.Dialect)

	defs := make([]string, ds.Width())
	names := make([]string, ds.Width())
	marks := make([]string, ds.Width())
	for i, c := range ds.Columns() {
		names[i] = QuoteIdent(c.Name())
		defs[i] = names[i] + " " + b.Dialect.columnType(c.Type())
		marks[i] = b.Dialect.Placeholder(i + 1)
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+qualified); err != nil {
		return 0, fmt.Errorf("failed to drop %s: %w", table, err)
	}
	//nolint:gosec // identifiers are quoted
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(defs, ", "))); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", table, err)
	}

	//nolint:gosec // identifiers are quoted, values are bound
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualified, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	columns := ds.Columns()
	args := make([]any, len(columns))
	for r := 0; r < ds.Len(); r++ {
		for i, c := range columns {
			args[i] = sqlValue(c, r)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d into %s: %w", r, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", table, err)
	}
	b.logger().Debug("dataset written", "table", table, "rows", ds.Len(), "columns", ds.Width())
	return int64(ds.Len()), nil
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

func sqlValue(c *core.Column, r int) any {
	if c.IsNull(r) {
		return nil
	}
	if c.Type().IsText() {
		s, _ := c.Str(r)
		return s
	}
	return c.Float(r)
}

type columnBuilder struct {
	field core.Field
	nums  []float64
	strs  []string
	valid []bool
}

func (cb *columnBuilder) append(v any) {
	if cb.field.Type.IsText() {
		s, err := cast.ToStringE(v)
		ok := v != nil && err == nil
		if !ok {
			s = ""
		}
		cb.strs = append(cb.strs, s)
		cb.valid = append(cb.valid, ok)
		return
	}
	f := math.NaN()
	if v != nil {
		if parsed, err := cast.ToFloat64E(v); err == nil {
			f = parsed
		}
	}
	cb.nums = append(cb.nums, f)
}

func (cb *columnBuilder) build() *core.Column {
	switch cb.field.Type {
	case core.String:
		return core.NewStringColumn(cb.field.Name, nonNil(cb.strs), nonNilMask(cb.valid))
	case core.Categorical:
		return core.NewCategoricalColumn(cb.field.Name, nonNil(cb.strs), nonNilMask(cb.valid))
	case core.Bool:
		vals := make([]bool, len(cb.nums))
		for i, v := range cb.nums {
			vals[i] = v != 0 && !math.IsNaN(v)
		}
		return core.NewBoolColumn(cb.field.Name, vals)
	default:
		if cb.nums == nil {
			cb.nums = []float64{}
		}
		return core.NewNumericColumn(cb.field.Name, cb.nums)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMask(m []bool) []bool {
	if m == nil {
		return []bool{}
	}
	return m
}
