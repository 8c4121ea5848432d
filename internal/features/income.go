package features

import (
	"math"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// LogAnnualIncome clips negative annual_income to zero and adds
// log_annual_income = log(1 + annual_income).
var LogAnnualIncome = pipeline.Step{
	Name:     "log_annual_income",
	Requires: []string{core.ColAnnualIncome},
	Adds:     []string{core.ColLogAnnualIncome},
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		income, err := pipeline.Floats(ds, core.ColAnnualIncome)
		if err != nil {
			return nil, err
		}
		logged := make([]float64, len(income))
		clipped := 0
		for i, v := range income {
			if v < 0 {
				income[i] = 0
				clipped++
			}
			logged[i] = math.Log1p(income[i])
		}
		rep.Add(pipeline.KindClipped, clipped)
		return ds.With(
			core.NewNumericColumn(core.ColAnnualIncome, income),
			core.NewNumericColumn(core.ColLogAnnualIncome, logged),
		)
	},
}
