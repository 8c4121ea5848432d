package pipeline

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Floats returns a copy of a numeric or boolean column's values.
func Floats(ds *core.Dataset, name string) ([]float64, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, &core.MissingColumnsError{Stage: "column lookup", Columns: []string{name}}
	}
	if c.Type().IsText() {
		return nil, fmt.Errorf("%w: column %q has type %s, want numeric", core.ErrPrecondition, name, c.Type())
	}
	return c.Floats(), nil
}

// Texts returns copies of a text column's values and validity mask.
func Texts(ds *core.Dataset, name string) ([]string, []bool, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, nil, &core.MissingColumnsError{Stage: "column lookup", Columns: []string{name}}
	}
	if !c.Type().IsText() {
		return nil, nil, fmt.Errorf("%w: column %q has type %s, want text", core.ErrPrecondition, name, c.Type())
	}
	vals, valid := c.Strings()
	return vals, valid, nil
}

// Ratio divides num by den elementwise. A zero denominator or any non-finite
// quotient yields NaN; the second return value counts those rows.
func Ratio(num, den []float64) ([]float64, int) {
	out := make([]float64, len(num))
	undefined := 0
	for i := range num {
		if den[i] == 0 {
			out[i] = math.NaN()
			if !math.IsNaN(num[i]) {
				undefined++
			}
			continue
		}
		q := num[i] / den[i]
		if math.IsInf(q, 0) {
			q = math.NaN()
			undefined++
		}
		out[i] = q
	}
	return out, undefined
}

// Flag builds an indicator column where pred holds. NaN inputs reach pred
// unchanged; comparisons against NaN are false.
func Flag(name string, x []float64, pred func(float64) bool) *core.Column {
	vals := make([]bool, len(x))
	for i, v := range x {
		vals[i] = pred(v)
	}
	return core.NewBoolColumn(name, vals)
}

// Lookup returns the named column or a *core.MissingColumnsError.
func Lookup(ds *core.Dataset, name string) (*core.Column, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, &core.MissingColumnsError{Stage: "column lookup", Columns: []string{name}}
	}
	return c, nil
}
