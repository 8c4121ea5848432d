package engine

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/loanprep/pkg/core"
)

// WriteCSV writes ds to path with a header row, replacing any existing file.
// Nulls and NaN are written as empty fields; booleans as 1 and 0.
func WriteCSV(path string, ds *core.Dataset) (int64, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// A failed export leaves any existing file at path untouched.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(ds.Names()); err != nil {
		_ = tmp.Close()
		return 0, err
	}

	cols := ds.Columns()
	record := make([]string, len(cols))
	for r := 0; r < ds.Len(); r++ {
		for i, c := range cols {
			record[i] = csvField(c, r)
		}
		if err := w.Write(record); err != nil {
			_ = tmp.Close()
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}
	return int64(ds.Len()), nil
}

func csvField(c *core.Column, r int) string {
	if c.IsNull(r) {
		return ""
	}
	if c.Type().IsText() {
		s, _ := c.Str(r)
		return s
	}
	return strconv.FormatFloat(c.Float(r), 'f', -1, 64)
}
