package cleaning

import (
	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/internal/stats"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// LoanAmountSentinel is the upstream placeholder for an unknown loan amount.
const LoanAmountSentinel = 99999999

// HandleLoanAmountSentinel flags rows whose current_loan_amount is the
// sentinel, then replaces the sentinel with the median of the non-sentinel
// amounts. The flag is computed from the values before replacement.
var HandleLoanAmountSentinel = pipeline.Step{
	Name:     "handle_loan_amount_sentinel",
	Requires: []string{core.ColCurrentLoanAmount},
	Adds:     []string{core.ColLoanAmountPlaceholder},
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		amounts, err := pipeline.Floats(ds, core.ColCurrentLoanAmount)
		if err != nil {
			return nil, err
		}
		isSentinel := func(v float64) bool { return v == LoanAmountSentinel }
		flag := pipeline.Flag(core.ColLoanAmountPlaceholder, amounts, isSentinel)

		median := stats.MedianWhere(amounts, func(v float64) bool { return !isSentinel(v) })
		n := 0
		for i, v := range amounts {
			if isSentinel(v) {
				amounts[i] = median
				n++
			}
		}
		rep.Add(pipeline.KindSentinel, n)
		return ds.With(flag, core.NewNumericColumn(core.ColCurrentLoanAmount, amounts))
	},
}
