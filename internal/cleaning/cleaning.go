// Package cleaning implements the first pipeline stage: type coercion,
// missing and sentinel value handling, and label encoding.
//
// Steps are listed in execution order. Missing-value flags and the loan-amount
// placeholder flag are captured before the values they describe are imputed;
// the imputation steps declare those flags as required inputs so the order is
// enforced by the registry.
package cleaning

import (
	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// StageName identifies this stage in errors and logs.
const StageName = "cleaning"

// Stage returns the cleaning stage. It checks that every raw input column is
// present and that the Dataset has rows before the first step runs.
func Stage(opts ...pipeline.Option) *pipeline.Pipeline {
	var r pipeline.Registry
	r.Register(NormalizeMonthlyDebt)
	r.Register(RescaleCreditScore)
	r.Register(FlagMissingValues)
	r.Register(ImputeCreditAndIncome)
	r.Register(CoerceYearsInJob)
	r.Register(EncodeLoanStatus)
	r.Register(HandleLoanAmountSentinel)

	opts = append([]pipeline.Option{pipeline.WithEntryCheck(core.FieldNames(core.RawLoanSchema)...)}, opts...)
	return r.Build(StageName, opts...)
}
