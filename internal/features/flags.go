package features

import (
	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Risk thresholds and credit problem weights.
const (
	RecentDelinquencyMonths = 12
	StableJobYears          = 5
	LowCreditScore          = 600

	CreditProblemWeight = 1
	BankruptcyWeight    = 3
	TaxLienWeight       = 2
)

func flagStep(name, source, target string, pred func(float64) bool) pipeline.Step {
	return pipeline.Step{
		Name:     name,
		Requires: []string{source},
		Adds:     []string{target},
		Apply: func(ds *core.Dataset, _ *pipeline.Report) (*core.Dataset, error) {
			x, err := pipeline.Floats(ds, source)
			if err != nil {
				return nil, err
			}
			return ds.With(pipeline.Flag(target, x, pred))
		},
	}
}

// RecentDelinquencyFlag is 1 when the last delinquency was under 12 months ago.
var RecentDelinquencyFlag = flagStep("recent_delinquency_flag",
	core.ColMonthsSinceLastDelinquent, core.ColRecentDelinquencyFlag,
	func(v float64) bool { return v < RecentDelinquencyMonths })

// JobStability is 1 when years_in_job is at least 5.
var JobStability = flagStep("job_stability",
	core.ColYearsInJob, core.ColJobStability,
	func(v float64) bool { return v >= StableJobYears })

// CreditRisk is 1 when credit_score is below 600.
var CreditRisk = flagStep("credit_risk",
	core.ColCreditScore, core.ColCreditRisk,
	func(v float64) bool { return v < LowCreditScore })

// CreditProblemScore adds the hand-weighted sum
// number_credit_problems*1 + bankruptcies*3 + tax_liens*2. A null input
// leaves the score null until ImputeRemaining fills it.
var CreditProblemScore = pipeline.Step{
	Name:     "credit_problem_score",
	Requires: []string{core.ColNumberCreditProblems, core.ColBankruptcies, core.ColTaxLiens},
	Adds:     []string{core.ColCreditProblemScore},
	Apply: func(ds *core.Dataset, _ *pipeline.Report) (*core.Dataset, error) {
		problems, err := pipeline.Floats(ds, core.ColNumberCreditProblems)
		if err != nil {
			return nil, err
		}
		bankruptcies, err := pipeline.Floats(ds, core.ColBankruptcies)
		if err != nil {
			return nil, err
		}
		liens, err := pipeline.Floats(ds, core.ColTaxLiens)
		if err != nil {
			return nil, err
		}
		score := make([]float64, len(problems))
		for i := range score {
			score[i] = problems[i]*CreditProblemWeight + bankruptcies[i]*BankruptcyWeight + liens[i]*TaxLienWeight
		}
		return ds.With(core.NewNumericColumn(core.ColCreditProblemScore, score))
	},
}
