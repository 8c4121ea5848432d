package features

import (
	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// DebtToIncome adds debt_to_income = monthly_debt / (annual_income / 12).
// Rows with zero income get NaN.
var DebtToIncome = pipeline.Step{
	Name:     "debt_to_income",
	Requires: []string{core.ColMonthlyDebt, core.ColAnnualIncome},
	Adds:     []string{core.ColDebtToIncome},
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		debt, err := pipeline.Floats(ds, core.ColMonthlyDebt)
		if err != nil {
			return nil, err
		}
		income, err := pipeline.Floats(ds, core.ColAnnualIncome)
		if err != nil {
			return nil, err
		}
		for i := range income {
			income[i] /= 12
		}
		dti, undefined := pipeline.Ratio(debt, income)
		rep.Add(pipeline.KindDivisionByZero, undefined)
		return ds.With(core.NewNumericColumn(core.ColDebtToIncome, dti))
	},
}

// CreditUtilization adds credit_utilization = current_credit_balance /
// maximum_open_credit. A zero denominator yields NaN, which ImputeRemaining
// later fills with the column median.
var CreditUtilization = pipeline.Step{
	Name:     "credit_utilization",
	Requires: []string{core.ColCurrentCreditBalance, core.ColMaximumOpenCredit},
	Adds:     []string{core.ColCreditUtilization},
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		balance, err := pipeline.Floats(ds, core.ColCurrentCreditBalance)
		if err != nil {
			return nil, err
		}
		limit, err := pipeline.Floats(ds, core.ColMaximumOpenCredit)
		if err != nil {
			return nil, err
		}
		util, undefined := pipeline.Ratio(balance, limit)
		rep.Add(pipeline.KindDivisionByZero, undefined)
		return ds.With(core.NewNumericColumn(core.ColCreditUtilization, util))
	},
}
