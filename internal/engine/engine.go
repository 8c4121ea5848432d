// Package engine runs the loan preparation pipeline against a warehouse:
// seeding raw records, cleaning and deriving features, persisting the result
// to every configured sink, and training the baseline model on it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/loanprep/internal/cleaning"
	"github.com/leapstack-labs/loanprep/internal/features"
	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/internal/state"
	"github.com/leapstack-labs/loanprep/internal/training"
	"github.com/leapstack-labs/loanprep/pkg/adapter"
)

// PipelineName names the full cleaning and feature pipeline.
const PipelineName = "loanprep"

// NewPipeline returns the cleaning stage followed by the feature stage.
func NewPipeline(opts ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.Concat(PipelineName, cleaning.Stage(), features.Stage()).With(opts...)
}

// Engine orchestrates pipeline runs, seeding and training.
type Engine struct {
	// Warehouse adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	logger   *slog.Logger
	store    *state.SQLiteStore
	pipeline *pipeline.Pipeline
	metrics  *pipeline.Metrics

	environment string
	sourceTable string
	sinkTable   string
	sinkCSVPath string
	metricsPath string
	training    training.Config
}

// Config holds engine configuration.
type Config struct {
	// StatePath is the path to the SQLite run history database
	StatePath string
	// Environment is the current environment (dev, staging, prod)
	Environment string
	// AdapterConfig is the warehouse connection
	AdapterConfig adapter.Config
	// SourceTable holds raw loan records
	SourceTable string
	// SinkTable receives the cleaned table (optional if SinkCSVPath is set)
	SinkTable string
	// SinkCSVPath receives the cleaned table as CSV (optional)
	SinkCSVPath string
	// MetricsPath is a Prometheus textfile written after each run (optional)
	MetricsPath string
	// Training controls the baseline model
	Training training.Config
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a new engine with lazy warehouse connection. The run history
// store is opened and migrated immediately.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.SourceTable == "" {
		return nil, errors.New("source table is required")
	}
	if cfg.AdapterConfig.Type == "" {
		cfg.AdapterConfig.Type = "duckdb"
	}
	if cfg.Training == (training.Config{}) {
		cfg.Training = training.DefaultConfig()
	}
	env := cfg.Environment
	if env == "" {
		env = "dev"
	}

	logger.Debug("initializing engine", "environment", env, "adapter_type", cfg.AdapterConfig.Type)

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}

	var metrics *pipeline.Metrics
	if cfg.MetricsPath != "" {
		metrics = pipeline.NewMetrics()
	}

	return &Engine{
		dbConfig:    cfg.AdapterConfig,
		logger:      logger,
		store:       store,
		pipeline:    NewPipeline(pipeline.WithLogger(logger), pipeline.WithMetrics(metrics)),
		metrics:     metrics,
		environment: env,
		sourceTable: qualify(cfg.SourceTable, cfg.AdapterConfig.Schema),
		sinkTable:   qualify(cfg.SinkTable, cfg.AdapterConfig.Schema),
		sinkCSVPath: cfg.SinkCSVPath,
		metricsPath: cfg.MetricsPath,
		training:    cfg.Training,
	}, nil
}

// qualify prefixes an unqualified table name with schema.
func qualify(table, schema string) string {
	if table == "" || schema == "" || strings.Contains(table, ".") {
		return table
	}
	return schema + "." + table
}

// ensureDBConnected lazily connects to the warehouse.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to warehouse", "adapter_type", e.dbConfig.Type)

	db, err := adapter.NewAdapter(e.dbConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create warehouse adapter: %w", err)
	}
	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}

	e.db = db
	e.dbConnected = true
	e.logger.Debug("warehouse connected", "dialect", db.DialectName())
	return nil
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("errors closing engine: %w", err)
	}
	return nil
}

// Pipeline returns the pipeline the engine runs.
func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

// Store returns the run history store.
func (e *Engine) Store() *state.SQLiteStore {
	return e.store
}
