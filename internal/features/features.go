// Package features implements the second pipeline stage: derived ratio and
// log features, categorical grouping, risk flags, remaining median
// imputation, and one-hot encoding.
//
// One-hot encoding is the last step: it removes the categorical columns the
// grouping steps produce, so nothing after it may depend on them.
package features

import (
	"fmt"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// StageName identifies this stage in errors and logs.
const StageName = "features"

// Stage returns the feature derivation stage.
func Stage(opts ...pipeline.Option) *pipeline.Pipeline {
	var r pipeline.Registry
	r.Register(LogAnnualIncome)
	r.Register(GroupPurpose)
	r.Register(GroupHomeOwnership)
	r.Register(NormalizeTerm)
	r.Register(DebtToIncome)
	r.Register(CreditUtilization)
	r.Register(RecentDelinquencyFlag)
	r.Register(CreditProblemScore)
	r.Register(JobStability)
	r.Register(CreditRisk)
	r.Register(ImputeRemaining)
	r.Register(OneHotEncode)

	opts = append([]pipeline.Option{
		pipeline.WithEntryCheck(Inputs...),
		pipeline.WithExitCheck(checkEncoded),
	}, opts...)
	return r.Build(StageName, opts...)
}

// Inputs are the columns the stage reads.
var Inputs = []string{
	core.ColAnnualIncome,
	core.ColPurpose,
	core.ColHomeOwnership,
	core.ColTerm,
	core.ColMonthlyDebt,
	core.ColCurrentCreditBalance,
	core.ColMaximumOpenCredit,
	core.ColMonthsSinceLastDelinquent,
	core.ColNumberCreditProblems,
	core.ColBankruptcies,
	core.ColTaxLiens,
	core.ColYearsInJob,
	core.ColCreditScore,
}

func checkEncoded(ds *core.Dataset) error {
	for _, e := range Encodings {
		if ds.Has(e.Column) {
			return fmt.Errorf("categorical column %q still present after encoding", e.Column)
		}
	}
	if cats := ds.ColumnsOfType(core.Categorical); len(cats) > 0 {
		return fmt.Errorf("categorical columns remain after encoding: %v", cats)
	}
	return nil
}
