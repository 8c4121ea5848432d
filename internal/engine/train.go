package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/loanprep/internal/selection"
	"github.com/leapstack-labs/loanprep/internal/training"
)

// Train reads the cleaned sink table, selects model features, and fits the
// baseline model.
func (e *Engine) Train(ctx context.Context) (*training.Result, error) {
	if e.sinkTable == "" {
		return nil, errors.New("training reads the sink table, but none is configured")
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	e.logger.Info("training baseline model", "table", e.sinkTable)

	fields, err := e.db.DescribeTable(ctx, e.sinkTable)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", e.sinkTable, err)
	}
	ds, err := e.db.ReadDataset(ctx, e.sinkTable, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.sinkTable, err)
	}

	fm, y, err := selection.Select(ds)
	if err != nil {
		return nil, err
	}
	if bad := selection.NonFiniteColumns(fm); len(bad) > 0 {
		e.logger.Warn("features contain NaN or infinite values", "columns", bad)
	}
	return training.Train(fm, y, e.training, e.logger)
}
