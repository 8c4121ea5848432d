package config

import "github.com/leapstack-labs/loanprep/internal/training"

// Default configuration values.
const (
	DefaultStateFile    = ".loanprep/state.db"
	DefaultEnv          = "dev"
	DefaultLogFormat    = "text"
	DefaultTargetType   = "duckdb"
	DefaultDuckDBFile   = "loanprep.duckdb"
	DefaultSourceTable  = "raw_loans"
	DefaultSinkTable    = "clean_loans"
	DefaultPostgresPort = 5432
)

// defaults returns the lowest-precedence configuration layer.
func defaults() map[string]any {
	tc := training.DefaultConfig()
	return map[string]any{
		"state_path":              DefaultStateFile,
		"environment":             DefaultEnv,
		"verbose":                 false,
		"log_format":              DefaultLogFormat,
		"target.type":             DefaultTargetType,
		"source.table":            DefaultSourceTable,
		"sink.table":              DefaultSinkTable,
		"training.test_size":      tc.TestSize,
		"training.threshold":      tc.Threshold,
		"training.learning_rate":  tc.LearningRate,
		"training.epochs":         tc.Epochs,
		"training.seed":           tc.Seed,
		"training.drop_unlabeled": tc.DropUnlabeled,
	}
}

// DefaultSchemaForType returns the default schema for a warehouse type.
func DefaultSchemaForType(dbType string) string {
	if dbType == "postgres" {
		return "public"
	}
	return "main"
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	switch t.Type {
	case "duckdb":
		if t.Database == "" {
			t.Database = DefaultDuckDBFile
		}
	case "postgres":
		if t.Port == 0 {
			t.Port = DefaultPostgresPort
		}
		if t.Host == "" {
			t.Host = "localhost"
		}
	}
}

// TrainingOptions converts the training section to model training settings.
func (c *Config) TrainingOptions() training.Config {
	return training.Config{
		TestSize:      c.Training.TestSize,
		Threshold:     c.Training.Threshold,
		LearningRate:  c.Training.LearningRate,
		Epochs:        c.Training.Epochs,
		Seed:          c.Training.Seed,
		DropUnlabeled: c.Training.DropUnlabeled,
	}
}
