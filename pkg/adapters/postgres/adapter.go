// Package postgres provides a PostgreSQL warehouse adapter for loanprep.
package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/loanprep/pkg/adapter"
)

var dialect = &adapter.Dialect{
	Name:          "postgres",
	DefaultSchema: "public",
	NumericType:   "DOUBLE PRECISION",
	TextType:      "TEXT",
	Placeholder:   adapter.DollarPlaceholder,
}

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
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

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := openDSN(ctx, dsn)
	if err != nil {
		return err
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

func openDSN(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	if cfg.Schema != "" {
		dsn += fmt.Sprintf(" search_path=%s", cfg.Schema)
	}
	return dsn
}

// LoadCSV replaces table with a CSV file using COPY FROM STDIN.
// Columns keep the header names and are created as TEXT; ReadDataset
// coerces them to the requested types.
func (a *Adapter) LoadCSV(ctx context.Context, table string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	file, err := os.Open(absPath) //nolint:gosec // path is user-provided by design
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	headers, err := csv.NewReader(file).Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to reset file: %w", err)
	}

	qualified := adapter.QualifiedName(table, dialect)
	defs := make([]string, len(headers))
	for i, h := range headers {
		defs[i] = adapter.QuoteIdent(strings.TrimSpace(h)) + " TEXT"
	}
	if err := a.Exec(ctx, "DROP TABLE IF EXISTS "+qualified); err != nil {
		return err
	}
	if err := a.Exec(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(defs, ", "))); err != nil {
		return err
	}

	return a.withPgxConn(ctx, func(conn *stdlib.Conn) error {
		copySQL := fmt.Sprintf("COPY %s FROM STDIN WITH (FORMAT csv, HEADER true)", qualified)
		if _, err := conn.Conn().PgConn().CopyFrom(ctx, file, copySQL); err != nil {
			return fmt.Errorf("failed to copy data: %w", err)
		}
		return nil
	})
}

// ExportCSV writes table to filePath using COPY TO STDOUT.
func (a *Adapter) ExportCSV(ctx context.Context, table string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	out, err := os.Create(filePath) //nolint:gosec // path is user-provided by design
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	copySQL := fmt.Sprintf("COPY %s TO STDOUT WITH (FORMAT csv, HEADER true)", adapter.QualifiedName(table, dialect))
	err = a.withPgxConn(ctx, func(conn *stdlib.Conn) error {
		_, err := conn.Conn().PgConn().CopyTo(ctx, out, copySQL)
		return err
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to export CSV: %w", err)
	}
	return nil
}

func (a *Adapter) withPgxConn(ctx context.Context, fn func(*stdlib.Conn) error) error {
	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		pgxConn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		return fn(pgxConn)
	})
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
