// Package commands implements the loanprep subcommands.
package commands

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/loanprep/internal/config"
	"github.com/leapstack-labs/loanprep/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *engine.Engine
	Output *Renderer
}

// NewCommandContext creates a CommandContext with an engine.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return nil, nil, err
	}

	eng, err := createEngine(cmd, cc.Cfg, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	cc.Engine = eng

	cleanup := func() {
		if err := eng.Close(); err != nil {
			cc.Logger.Warn("failed to close engine", "error", err)
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only read run history.
func NewCommandContextWithoutEngine(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	r := NewRenderer(cmd)
	if err := validateOutput(r); err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:    cfg,
		Logger: config.GetLogger(cmd.Context()),
		Output: r,
	}, nil
}

func createEngine(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	ec := engine.Config{
		StatePath:   cfg.StatePath,
		Environment: cfg.Environment,
		SourceTable: cfg.Source.Table,
		SinkTable:   cfg.Sink.Table,
		SinkCSVPath: cfg.Sink.CSVPath,
		MetricsPath: cfg.MetricsPath,
		Training:    cfg.TrainingOptions(),
		Logger:      logger,
	}
	if cfg.Target != nil {
		ec.AdapterConfig = cfg.Target.AdapterConfig()
	}
	return engine.New(cmd.Context(), ec)
}
