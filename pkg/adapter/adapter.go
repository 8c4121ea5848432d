// Package adapter provides the warehouse adapter contract used by loanprep
// as its Dataset Source and Storage Sink.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with this package from init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Config holds configuration for connecting to a warehouse.
type Config struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}

// Adapter defines the interface that all warehouse adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// LoadCSV replaces table with the contents of a CSV file with a header row.
	LoadCSV(ctx context.Context, table string, filePath string) error

	// ExportCSV writes table to a CSV file with a header row.
	ExportCSV(ctx context.Context, table string, filePath string) error

	// ReadDataset reads table into a Dataset typed by schema. Columns of the
	// table that schema does not name are ignored. A missing table yields an
	// error wrapping core.ErrNotFound.
	ReadDataset(ctx context.Context, table string, schema []core.Field) (*core.Dataset, error)

	// DescribeTable returns the column names and types of table. A missing
	// table yields an error wrapping core.ErrNotFound.
	DescribeTable(ctx context.Context, table string) ([]core.Field, error)

	// WriteDataset replaces table with ds in a single transaction and
	// returns the number of rows written.
	WriteDataset(ctx context.Context, table string, ds *core.Dataset) (int64, error)

	// CountRows returns the number of rows in table.
	CountRows(ctx context.Context, table string) (int64, error)

	// DialectName returns the SQL dialect name of this adapter.
	DialectName() string
}
