// Package duckdb provides a DuckDB warehouse adapter for loanprep.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/loanprep/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

var dialect = &adapter.Dialect{
	Name:          "duckdb",
	DefaultSchema: "main",
	NumericType:   "DOUBLE",
	TextType:      "VARCHAR",
	Placeholder:   adapter.QuestionPlaceholder,
}

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, Dialect: dialect},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return dialect.Name
}

// Connect establishes a connection to DuckDB and applies the extensions,
// settings and secrets in cfg.Params.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	// An in-memory database lives only as long as its single connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	for _, stmt := range params.setupStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to configure duckdb: %w", err)
		}
	}

	a.Logger.Debug("connected to duckdb", slog.String("path", path), slog.Int("extensions", len(params.Extensions)))
	a.DB = db
	a.Cfg = cfg
	return nil
}

// LoadCSV loads data from a CSV file into a table.
// DuckDB infers column types from the file.
func (a *Adapter) LoadCSV(ctx context.Context, table string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	path, err := resolvePath(filePath)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s, header=true)",
		adapter.QualifiedName(table, dialect), quote(path),
	)
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	return nil
}

// ExportCSV writes table to a CSV file with COPY ... TO.
func (a *Adapter) ExportCSV(ctx context.Context, table string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	path, err := resolvePath(filePath)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("COPY %s TO %s (HEADER, DELIMITER ',')", adapter.QualifiedName(table, dialect), quote(path))
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to export CSV: %w", err)
	}
	return nil
}

// resolvePath makes local paths absolute and leaves URLs such as s3:// alone.
func resolvePath(p string) (string, error) {
	if hasScheme(p) {
		return p, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}

func hasScheme(p string) bool {
	for i := 0; i < len(p); i++ {
		switch c := p[i]; {
		case c == ':':
			return i > 1 && i+2 < len(p) && p[i+1] == '/' && p[i+2] == '/'
		case c == '/' || c == '\\' || c == '.':
			return false
		}
	}
	return false
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
