// Package selection splits the fully derived loan table into a model feature
// matrix and a label vector.
package selection

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Dropped lists the columns excluded from the feature matrix: identifiers,
// the label, helper flags used only during cleaning, and columns that leak
// the outcome. Absent columns are skipped.
var Dropped = []string{
	core.ColLoanID,
	core.ColCustomerID,
	core.ColLoanStatus,
	core.ColLoanAmountPlaceholder,
	core.ColMissingIncomeAndCreditScore,
	core.ColCreditScoreMissing,
	core.ColAnnualIncomeMissing,
	core.ColAnnualIncome,
	core.ColMonthsSinceLastDelinquent,
}

// ErrNoLabeledRows is returned when every label is null.
var ErrNoLabeledRows = errors.New("no labeled rows")

// FeatureMatrix is a dense row-major feature table with named columns.
type FeatureMatrix struct {
	Names []string
	X     *mat.Dense
}

// Rows returns the number of samples.
func (f *FeatureMatrix) Rows() int {
	r, _ := f.X.Dims()
	return r
}

// Cols returns the number of features.
func (f *FeatureMatrix) Cols() int { return len(f.Names) }

// Column returns a copy of the named feature.
func (f *FeatureMatrix) Column(name string) ([]float64, bool) {
	for j, n := range f.Names {
		if n == name {
			return mat.Col(nil, j, f.X), true
		}
	}
	return nil, false
}

// LabelVector holds one binary label per row. NaN marks an unmapped label.
type LabelVector []float64

// Unlabeled returns the number of null labels.
func (y LabelVector) Unlabeled() int {
	n := 0
	for _, v := range y {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Select extracts the label column and builds the feature matrix from every
// column not in Dropped. All remaining columns must be numeric or boolean.
func Select(ds *core.Dataset) (*FeatureMatrix, LabelVector, error) {
	if err := ds.Require("feature selection", core.ColLoanStatus); err != nil {
		return nil, nil, err
	}
	if ds.Len() == 0 {
		return nil, nil, fmt.Errorf("feature selection: %w", core.ErrEmptyDataset)
	}
	label, _ := ds.Column(core.ColLoanStatus)
	if label.Type().IsText() {
		return nil, nil, fmt.Errorf("%w: label %q is %s, want numeric", core.ErrPrecondition, core.ColLoanStatus, label.Type())
	}

	features := ds.Without(Dropped...)
	if features.Width() == 0 {
		return nil, nil, fmt.Errorf("%w: no feature columns remain", core.ErrPrecondition)
	}

	rows, cols := features.Len(), features.Width()
	x := mat.NewDense(rows, cols, nil)
	for j, c := range features.Columns() {
		if c.Type().IsText() {
			return nil, nil, fmt.Errorf("%w: feature %q has type %s, want numeric", core.ErrPrecondition, c.Name(), c.Type())
		}
		x.SetCol(j, c.Floats())
	}
	return &FeatureMatrix{Names: features.Names(), X: x}, LabelVector(label.Floats()), nil
}

// DropUnlabeled removes rows whose label is null and reports how many were dropped.
func DropUnlabeled(f *FeatureMatrix, y LabelVector) (*FeatureMatrix, LabelVector, int, error) {
	if f.Rows() != len(y) {
		return nil, nil, 0, fmt.Errorf("feature matrix has %d rows, labels have %d", f.Rows(), len(y))
	}
	keep := make([]int, 0, len(y))
	for i, v := range y {
		if !math.IsNaN(v) {
			keep = append(keep, i)
		}
	}
	dropped := len(y) - len(keep)
	if dropped == 0 {
		return f, y, 0, nil
	}
	if len(keep) == 0 {
		return nil, nil, dropped, ErrNoLabeledRows
	}
	return Subset(f, keep), y.Subset(keep), dropped, nil
}

// Subset returns the rows at idx, in the given order.
func Subset(f *FeatureMatrix, idx []int) *FeatureMatrix {
	x := mat.NewDense(len(idx), f.Cols(), nil)
	for i, r := range idx {
		x.SetRow(i, f.X.RawRowView(r))
	}
	return &FeatureMatrix{Names: append([]string(nil), f.Names...), X: x}
}

// Subset returns the labels at idx, in the given order.
func (y LabelVector) Subset(idx []int) LabelVector {
	out := make(LabelVector, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}

// NonFiniteColumns returns the features that contain NaN or infinite values.
func NonFiniteColumns(f *FeatureMatrix) []string {
	var names []string
	for j, name := range f.Names {
		for _, v := range mat.Col(nil, j, f.X) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				names = append(names, name)
				break
			}
		}
	}
	return names
}
