package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Export copies the cleaned sink table to a CSV file using the warehouse's
// native export, and returns the number of rows exported.
func (e *Engine) Export(ctx context.Context, path string) (int64, error) {
	if e.sinkTable == "" {
		return 0, errors.New("export reads the sink table, but none is configured")
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return 0, err
	}

	if _, err := e.db.DescribeTable(ctx, e.sinkTable); err != nil {
		return 0, err
	}
	n, err := e.db.CountRows(ctx, e.sinkTable)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", e.sinkTable, err)
	}
	if dir := filepath.Dir(path); !strings.Contains(path, "://") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := e.db.ExportCSV(ctx, e.sinkTable, path); err != nil {
		return 0, fmt.Errorf("failed to export %s: %w", e.sinkTable, err)
	}

	e.logger.Info("sink table exported", "table", e.sinkTable, "path", path, "rows", n)
	return n, nil
}
