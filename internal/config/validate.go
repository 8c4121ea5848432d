package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/loanprep/pkg/adapter"
)

// Validate checks the target against the adapter registry.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	if t.Type == "postgres" && t.Database == "" {
		return fmt.Errorf("target.database is required for postgres")
	}
	return nil
}

// Validate checks if the configuration is valid. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if c.Target == nil {
		errs = append(errs, fmt.Errorf("target is required"))
	} else if err := c.Target.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("invalid target configuration: %w", err))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.Source.Table == "" {
		errs = append(errs, fmt.Errorf("source.table is required"))
	}
	if c.Sink.Table == "" && c.Sink.CSVPath == "" {
		errs = append(errs, fmt.Errorf("sink needs a table or a csv_path"))
	}

	tr := c.Training
	if tr.TestSize <= 0 || tr.TestSize >= 1 {
		errs = append(errs, fmt.Errorf("training.test_size must be in (0, 1), got %v", tr.TestSize))
	}
	if tr.Threshold <= 0 || tr.Threshold >= 1 {
		errs = append(errs, fmt.Errorf("training.threshold must be in (0, 1), got %v", tr.Threshold))
	}
	if tr.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("training.learning_rate must be positive, got %v", tr.LearningRate))
	}
	if tr.Epochs <= 0 {
		errs = append(errs, fmt.Errorf("training.epochs must be positive, got %d", tr.Epochs))
	}
	return errors.Join(errs...)
}
