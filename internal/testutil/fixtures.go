package testutil

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/loanprep/pkg/core"
)

// NaN is shorthand for a null numeric value in fixtures.
var NaN = math.NaN()

// RawLoan is one row of the raw loan input. Empty text fields are null.
type RawLoan struct {
	LoanID                    string
	CustomerID                string
	LoanStatus                string
	CurrentLoanAmount         float64
	Term                      string
	CreditScore               float64
	YearsInJob                string
	HomeOwnership             string
	AnnualIncome              float64
	Purpose                   string
	MonthlyDebt               string
	YearsCreditHistory        float64
	MonthsSinceLastDelinquent float64
	NumberOpenAccounts        float64
	NumberCreditProblems      float64
	CurrentCreditBalance      float64
	MaximumOpenCredit         float64
	Bankruptcies              float64
	TaxLiens                  float64
}

// DefaultLoan returns an unremarkable, fully populated raw row.
func DefaultLoan(i int) RawLoan {
	return RawLoan{
		LoanID:                    fmt.Sprintf("loan-%03d", i),
		CustomerID:                fmt.Sprintf("cust-%03d", i),
		LoanStatus:                "Fully Paid",
		CurrentLoanAmount:         10000,
		Term:                      "Long Term",
		CreditScore:               700,
		YearsInJob:                "3",
		HomeOwnership:             "Rent",
		AnnualIncome:              60000,
		Purpose:                   "Home Improvements",
		MonthlyDebt:               "$500.00",
		YearsCreditHistory:        10,
		MonthsSinceLastDelinquent: 30,
		NumberOpenAccounts:        5,
		NumberCreditProblems:      0,
		CurrentCreditBalance:      2000,
		MaximumOpenCredit:         8000,
		Bankruptcies:              0,
		TaxLiens:                  0,
	}
}

// LoanDataset builds a raw Dataset in core.RawLoanSchema column order.
func LoanDataset(rows ...RawLoan) *core.Dataset {
	text := func(name string, get func(RawLoan) string) *core.Column {
		vals := make([]string, len(rows))
		valid := make([]bool, len(rows))
		for i, r := range rows {
			vals[i] = get(r)
			valid[i] = vals[i] != ""
		}
		return core.NewStringColumn(name, vals, valid)
	}
	num := func(name string, get func(RawLoan) float64) *core.Column {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = get(r)
		}
		return core.NewNumericColumn(name, vals)
	}

	return core.MustDataset(
		text(core.ColLoanID, func(r RawLoan) string { return r.LoanID }),
		text(core.ColCustomerID, func(r RawLoan) string { return r.CustomerID }),
		text(core.ColLoanStatus, func(r RawLoan) string { return r.LoanStatus }),
		num(core.ColCurrentLoanAmount, func(r RawLoan) float64 { return r.CurrentLoanAmount }),
		text(core.ColTerm, func(r RawLoan) string { return r.Term }),
		num(core.ColCreditScore, func(r RawLoan) float64 { return r.CreditScore }),
		text(core.ColYearsInJob, func(r RawLoan) string { return r.YearsInJob }),
		text(core.ColHomeOwnership, func(r RawLoan) string { return r.HomeOwnership }),
		num(core.ColAnnualIncome, func(r RawLoan) float64 { return r.AnnualIncome }),
		text(core.ColPurpose, func(r RawLoan) string { return r.Purpose }),
		text(core.ColMonthlyDebt, func(r RawLoan) string { return r.MonthlyDebt }),
		num(core.ColYearsCreditHistory, func(r RawLoan) float64 { return r.YearsCreditHistory }),
		num(core.ColMonthsSinceLastDelinquent, func(r RawLoan) float64 { return r.MonthsSinceLastDelinquent }),
		num(core.ColNumberOpenAccounts, func(r RawLoan) float64 { return r.NumberOpenAccounts }),
		num(core.ColNumberCreditProblems, func(r RawLoan) float64 { return r.NumberCreditProblems }),
		num(core.ColCurrentCreditBalance, func(r RawLoan) float64 { return r.CurrentCreditBalance }),
		num(core.ColMaximumOpenCredit, func(r RawLoan) float64 { return r.MaximumOpenCredit }),
		num(core.ColBankruptcies, func(r RawLoan) float64 { return r.Bankruptcies }),
		num(core.ColTaxLiens, func(r RawLoan) float64 { return r.TaxLiens }),
	)
}

// ScenarioLoans returns three rows around the documented end-to-end case:
// row 0 carries the loan-amount sentinel, an inflated credit score, and a
// null income; rows 1 and 2 are ordinary.
func ScenarioLoans() []RawLoan {
	r0 := DefaultLoan(0)
	r0.CurrentLoanAmount = 99999999
	r0.MonthlyDebt = "$1,200.50"
	r0.CreditScore = 9200
	r0.AnnualIncome = NaN
	r0.YearsInJob = "10+ years"
	r0.HomeOwnership = "HaveMortgage"
	r0.Term = "Short Term"
	r0.Purpose = "Debt Consolidation"
	r0.MonthsSinceLastDelinquent = 5
	r0.NumberCreditProblems = 1
	r0.LoanStatus = "Charged Off"

	r1 := DefaultLoan(1)
	r1.CurrentLoanAmount = 12000
	r1.AnnualIncome = 50000
	r1.YearsInJob = "8"

	r2 := DefaultLoan(2)
	r2.CurrentLoanAmount = 20000
	r2.AnnualIncome = 90000
	r2.CreditScore = 580
	r2.HomeOwnership = "Own Home"
	r2.Purpose = "Buy a Car"
	r2.MonthlyDebt = "n/a"

	return []RawLoan{r0, r1, r2}
}
