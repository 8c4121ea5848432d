// Package stats holds the column aggregates used by imputation steps.
package stats

import (
	"math"
	"slices"
)

// Median returns the median of the non-NaN values in x, averaging the two
// middle values for an even count. It returns NaN when x has no valid values.
func Median(x []float64) float64 {
	valid := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	n := len(valid)
	if n == 0 {
		return math.NaN()
	}
	slices.Sort(valid)
	if n%2 == 1 {
		return valid[n/2]
	}
	return (valid[n/2-1] + valid[n/2]) / 2
}

// MedianWhere returns the median of the non-NaN values x[i] for which keep(x[i]) is true.
func MedianWhere(x []float64, keep func(float64) bool) float64 {
	sel := make([]float64, 0, len(x))
	for _, v := range x {
		if keep(v) {
			sel = append(sel, v)
		}
	}
	return Median(sel)
}

// FillNaN returns a copy of x with NaN values replaced by fill, and the number replaced.
func FillNaN(x []float64, fill float64) ([]float64, int) {
	out := make([]float64, len(x))
	n := 0
	for i, v := range x {
		if math.IsNaN(v) {
			out[i] = fill
			n++
			continue
		}
		out[i] = v
	}
	return out, n
}
