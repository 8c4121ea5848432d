package cleaning

import (
	"math"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/internal/stats"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// MaxCreditScore is the top of the credit score scale. Larger values were
// recorded ten times too large and are divided by ten.
const MaxCreditScore = 850

// RescaleCreditScore divides credit scores above MaxCreditScore by ten.
var RescaleCreditScore = pipeline.Step{
	Name:     "rescale_credit_score",
	Requires: []string{core.ColCreditScore},
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		scores, err := pipeline.Floats(ds, core.ColCreditScore)
		if err != nil {
			return nil, err
		}
		n := 0
		for i, v := range scores {
			if v > MaxCreditScore {
				scores[i] = v / 10
				n++
			}
		}
		rep.Add(pipeline.KindRescaled, n)
		return ds.With(core.NewNumericColumn(core.ColCreditScore, scores))
	},
}

// FlagMissingValues adds indicators for null credit_score, null
// annual_income, and both being null. It must run before imputation.
var FlagMissingValues = pipeline.Step{
	Name:     "flag_missing_values",
	Requires: []string{core.ColCreditScore, core.ColAnnualIncome},
	Adds:     []string{core.ColCreditScoreMissing, core.ColAnnualIncomeMissing, core.ColMissingIncomeAndCreditScore},
	Apply: func(ds *core.Dataset, _ *pipeline.Report) (*core.Dataset, error) {
		scores, err := pipeline.Floats(ds, core.ColCreditScore)
		if err != nil {
			return nil, err
		}
		incomes, err := pipeline.Floats(ds, core.ColAnnualIncome)
		if err != nil {
			return nil, err
		}
		both := make([]bool, len(scores))
		for i := range scores {
			both[i] = math.IsNaN(scores[i]) && math.IsNaN(incomes[i])
		}
		return ds.With(
			pipeline.Flag(core.ColCreditScoreMissing, scores, math.IsNaN),
			pipeline.Flag(core.ColAnnualIncomeMissing, incomes, math.IsNaN),
			core.NewBoolColumn(core.ColMissingIncomeAndCreditScore, both),
		)
	},
}

// ImputeCreditAndIncome replaces null credit_score and annual_income values
// with each column's median over its non-null rows.
var ImputeCreditAndIncome = pipeline.Step{
	Name: "impute_credit_and_income",
	Requires: []string{
		core.ColCreditScore, core.ColAnnualIncome,
		core.ColCreditScoreMissing, core.ColAnnualIncomeMissing,
	},
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		out := ds
		for _, name := range []string{core.ColCreditScore, core.ColAnnualIncome} {
			vals, err := pipeline.Floats(out, name)
			if err != nil {
				return nil, err
			}
			filled, n := stats.FillNaN(vals, stats.Median(vals))
			rep.Add(pipeline.KindImputed, n)
			if out, err = out.With(core.NewNumericColumn(name, filled)); err != nil {
				return nil, err
			}
		}
		return out, nil
	},
}
