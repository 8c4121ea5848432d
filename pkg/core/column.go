package core

import (
	"fmt"
	"math"
)

// ColumnType is the declared type of a Dataset column.
type ColumnType int

// Column types.
const (
	// Numeric columns hold float64 values; NaN marks a missing value.
	Numeric ColumnType = iota
	// String columns hold free text with an explicit validity mask.
	String
	// Bool columns hold 0/1 indicators stored as float64. They are never null.
	Bool
	// Categorical columns hold normalized category labels with a validity mask.
	Categorical
)

func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case String:
		return "string"
	case Bool:
		return "boolean"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// IsText reports whether values of this type are stored as strings.
func (t ColumnType) IsText() bool {
	return t == String || t == Categorical
}

// Column is an immutable, named, typed vector of values.
//
// Constructors take ownership of the slices they are given; accessors that
// return slices return copies. Steps derive new columns instead of editing
// existing ones, which lets a Dataset be cloned by copying column pointers.
type Column struct {
	name  string
	typ   ColumnType
	nums  []float64
	strs  []string
	valid []bool
}

// NewNumericColumn creates a numeric column. NaN values are nulls.
func NewNumericColumn(name string, values []float64) *Column {
	return &Column{name: name, typ: Numeric, nums: values}
}

// NewBoolColumn creates an indicator column from booleans.
func NewBoolColumn(name string, values []bool) *Column {
	nums := make([]float64, len(values))
	for i, v := range values {
		if v {
			nums[i] = 1
		}
	}
	return &Column{name: name, typ: Bool, nums: nums}
}

// NewStringColumn creates a text column. A nil valid mask means every value is present.
func NewStringColumn(name string, values []string, valid []bool) *Column {
	return newTextColumn(name, String, values, valid)
}

// NewCategoricalColumn creates a categorical column. A nil valid mask means every value is present.
func NewCategoricalColumn(name string, values []string, valid []bool) *Column {
	return newTextColumn(name, Categorical, values, valid)
}

func newTextColumn(name string, typ ColumnType, values []string, valid []bool) *Column {
	if valid == nil {
		valid = make([]bool, len(values))
		for i := range valid {
			valid[i] = true
		}
	}
	return &Column{name: name, typ: typ, strs: values, valid: valid}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the declared column type.
func (c *Column) Type() ColumnType { return c.typ }

// Len returns the number of values.
func (c *Column) Len() int {
	if c.typ.IsText() {
		return len(c.strs)
	}
	return len(c.nums)
}

// Float returns the i-th numeric value. Text columns return NaN.
func (c *Column) Float(i int) float64 {
	if c.typ.IsText() {
		return math.NaN()
	}
	return c.nums[i]
}

// Str returns the i-th text value and whether it is present.
// Numeric columns always report absent.
func (c *Column) Str(i int) (string, bool) {
	if !c.typ.IsText() {
		return "", false
	}
	return c.strs[i], c.valid[i]
}

// IsNull reports whether the i-th value is missing.
func (c *Column) IsNull(i int) bool {
	if c.typ.IsText() {
		return !c.valid[i]
	}
	return math.IsNaN(c.nums[i])
}

// NullCount returns the number of missing values.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Floats returns a copy of the numeric values.
func (c *Column) Floats() []float64 {
	if c.typ.IsText() {
		return nil
	}
	out := make([]float64, len(c.nums))
	copy(out, c.nums)
	return out
}

// Strings returns copies of the text values and the validity mask.
func (c *Column) Strings() ([]string, []bool) {
	if !c.typ.IsText() {
		return nil, nil
	}
	vals := make([]string, len(c.strs))
	copy(vals, c.strs)
	valid := make([]bool, len(c.valid))
	copy(valid, c.valid)
	return vals, valid
}

// Rename returns a copy of the column under a new name.
func (c *Column) Rename(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// Equal reports whether two columns have the same name, type, and values.
// NaN compares equal to NaN.
func (c *Column) Equal(o *Column) bool {
	if c.name != o.name || c.typ != o.typ || c.Len() != o.Len() {
		return false
	}
	if c.typ.IsText() {
		for i := range c.strs {
			if c.valid[i] != o.valid[i] {
				return false
			}
			if c.valid[i] && c.strs[i] != o.strs[i] {
				return false
			}
		}
		return true
	}
	for i, v := range c.nums {
		w := o.nums[i]
		if math.IsNaN(v) && math.IsNaN(w) {
			continue
		}
		if math.Float64bits(v) != math.Float64bits(w) {
			return false
		}
	}
	return true
}
