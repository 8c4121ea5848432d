// Package core defines the tabular model shared by the loan feature pipeline,
// its adapters, and its consumers.
package core

import (
	"fmt"
	"sort"
)

// Dataset is an ordered, column-oriented table.
//
// Datasets are persistent values: With and Without return new Datasets that
// share unchanged columns with their receiver and never modify it.
type Dataset struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewDataset builds a Dataset from columns of equal length with unique names.
func NewDataset(cols ...*Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name(), c.Len(), d.rows)
		}
		if _, dup := d.index[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name())
		}
		d.index[c.Name()] = i
		d.cols = append(d.cols, c)
	}
	return d, nil
}

// MustDataset is like NewDataset but panics on error. Intended for fixtures.
func MustDataset(cols ...*Column) *Dataset {
	d, err := NewDataset(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the row count.
func (d *Dataset) Len() int { return d.rows }

// Width returns the column count.
func (d *Dataset) Width() int { return len(d.cols) }

// Names returns column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name()
	}
	return names
}

// Columns returns the columns in order.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.cols))
	copy(out, d.cols)
	return out
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// Has reports whether the named column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Missing returns the names from want that are not columns of d, in the order given.
func (d *Dataset) Missing(want ...string) []string {
	var missing []string
	for _, name := range want {
		if !d.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Require returns a *MissingColumnsError naming stage if any column is absent.
func (d *Dataset) Require(stage string, names ...string) error {
	if missing := d.Missing(names...); len(missing) > 0 {
		return &MissingColumnsError{Stage: stage, Columns: missing}
	}
	return nil
}

// With returns a Dataset where each column replaces the same-named column in
// place, or is appended if no such column exists.
func (d *Dataset) With(cols ...*Column) (*Dataset, error) {
	out := d.clone()
	for _, c := range cols {
		if len(out.cols) > 0 && c.Len() != out.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name(), c.Len(), out.rows)
		}
		if len(out.cols) == 0 {
			out.rows = c.Len()
		}
		if i, ok := out.index[c.Name()]; ok {
			out.cols[i] = c
			continue
		}
		out.index[c.Name()] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out, nil
}

// Without returns a Dataset lacking the named columns. Absent names are ignored.
func (d *Dataset) Without(names ...string) *Dataset {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	out := &Dataset{index: make(map[string]int, len(d.cols)), rows: d.rows}
	for _, c := range d.cols {
		if _, ok := drop[c.Name()]; ok {
			continue
		}
		out.index[c.Name()] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out
}

// Equal reports whether both Datasets have identical columns in identical order.
func (d *Dataset) Equal(o *Dataset) bool {
	if d.rows != o.rows || len(d.cols) != len(o.cols) {
		return false
	}
	for i, c := range d.cols {
		if !c.Equal(o.cols[i]) {
			return false
		}
	}
	return true
}

// Schema returns the column names and types, in order.
func (d *Dataset) Schema() []Field {
	fields := make([]Field, len(d.cols))
	for i, c := range d.cols {
		fields[i] = Field{Name: c.Name(), Type: c.Type()}
	}
	return fields
}

// ColumnsOfType returns the names of columns with the given type, sorted.
func (d *Dataset) ColumnsOfType(t ColumnType) []string {
	var names []string
	for _, c := range d.cols {
		if c.Type() == t {
			names = append(names, c.Name())
		}
	}
	sort.Strings(names)
	return names
}

func (d *Dataset) clone() *Dataset {
	out := &Dataset{
		cols:  make([]*Column, len(d.cols), len(d.cols)+4),
		index: make(map[string]int, len(d.index)),
		rows:  d.rows,
	}
	copy(out.cols, d.cols)
	for k, v := range d.index {
		out.index[k] = v
	}
	return out
}
