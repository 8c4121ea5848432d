package features

import (
	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/internal/stats"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// ImputedColumns may still hold NaN after derivation and are median-filled by ImputeRemaining.
var ImputedColumns = []string{
	core.ColYearsInJob,
	core.ColMaximumOpenCredit,
	core.ColTaxLiens,
	core.ColCreditUtilization,
	core.ColCreditProblemScore,
}

// ImputeRemaining replaces NaN in each of ImputedColumns with that column's
// median, computed on the column as it stands when the step runs.
var ImputeRemaining = pipeline.Step{
	Name:     "impute_remaining",
	Requires: ImputedColumns,
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		cols := make([]*core.Column, 0, len(ImputedColumns))
		for _, name := range ImputedColumns {
			vals, err := pipeline.Floats(ds, name)
			if err != nil {
				return nil, err
			}
			filled, n := stats.FillNaN(vals, stats.Median(vals))
			rep.Add(pipeline.KindImputed, n)
			cols = append(cols, core.NewNumericColumn(name, filled))
		}
		return ds.With(cols...)
	},
}
