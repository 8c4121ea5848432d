// Package config loads loanprep configuration from defaults, a YAML file,
// LOANPREP_ environment variables, and command-line flags.
package config

import (
	"maps"

	"github.com/leapstack-labs/loanprep/pkg/adapter"
)

// TargetConfig holds warehouse target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres

	// File path for DuckDB, database name for Postgres.
	Database string `koanf:"database"`

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Schema   string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, secrets, settings)
	Params map[string]any `koanf:"params"`
}

// AdapterConfig converts the target to the adapter connection config.
func (t *TargetConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  maps.Clone(t.Options),
		Params:   maps.Clone(t.Params),
	}
}

// SourceConfig names where raw loan records are read from.
type SourceConfig struct {
	Table   string `koanf:"table"`
	CSVPath string `koanf:"csv_path"` // default file for `loanprep seed`
}

// SinkConfig names where the cleaned table is persisted. Either or both may be set.
type SinkConfig struct {
	Table   string `koanf:"table"`
	CSVPath string `koanf:"csv_path"`
}

// TrainingConfig holds baseline model settings.
type TrainingConfig struct {
	TestSize      float64 `koanf:"test_size"`
	Threshold     float64 `koanf:"threshold"`
	LearningRate  float64 `koanf:"learning_rate"`
	Epochs        int     `koanf:"epochs"`
	Seed          uint64  `koanf:"seed"`
	DropUnlabeled bool    `koanf:"drop_unlabeled"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target"`
	Source *SourceConfig `koanf:"source"`
	Sink   *SinkConfig   `koanf:"sink"`
}

// Config holds all loanprep configuration options.
type Config struct {
	StatePath    string               `koanf:"state_path"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	LogFormat    string               `koanf:"log_format"`
	MetricsPath  string               `koanf:"metrics_path"`
	Target       *TargetConfig        `koanf:"target"`
	Source       SourceConfig         `koanf:"source"`
	Sink         SinkConfig           `koanf:"sink"`
	Training     TrainingConfig       `koanf:"training"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}
