package core

// Field names a column and its declared type.
type Field struct {
	Name string
	Type ColumnType
}

// Raw loan-application columns.
const (
	ColLoanID                    = "loan_id"
	ColCustomerID                = "customer_id"
	ColLoanStatus                = "loan_status"
	ColCurrentLoanAmount         = "current_loan_amount"
	ColTerm                      = "term"
	ColCreditScore               = "credit_score"
	ColYearsInJob                = "years_in_job"
	ColHomeOwnership             = "home_ownership"
	ColAnnualIncome              = "annual_income"
	ColPurpose                   = "purpose"
	ColMonthlyDebt               = "monthly_debt"
	ColYearsCreditHistory        = "years_credit_history"
	ColMonthsSinceLastDelinquent = "months_since_last_delinquent"
	ColNumberOpenAccounts        = "number_open_accounts"
	ColNumberCreditProblems      = "number_credit_problems"
	ColCurrentCreditBalance      = "current_credit_balance"
	ColMaximumOpenCredit         = "maximum_open_credit"
	ColBankruptcies              = "bankruptcies"
	ColTaxLiens                  = "tax_liens"
)

// Columns added during cleaning.
const (
	ColCreditScoreMissing          = "credit_score_missing"
	ColAnnualIncomeMissing         = "annual_income_missing"
	ColMissingIncomeAndCreditScore = "missing_income_and_credit_score"
	ColLoanAmountPlaceholder       = "loan_amount_placeholder"
)

// Columns added during feature derivation.
const (
	ColLogAnnualIncome       = "log_annual_income"
	ColDebtToIncome          = "debt_to_income"
	ColCreditUtilization     = "credit_utilization"
	ColRecentDelinquencyFlag = "recent_delinquency_flag"
	ColCreditProblemScore    = "credit_problem_score"
	ColJobStability          = "job_stability"
	ColCreditRisk            = "credit_risk"
)

// RawLoanSchema is the input contract of the pipeline. Text columns arrive as
// String; everything else is Numeric.
var RawLoanSchema = []Field{
	{ColLoanID, String},
	{ColCustomerID, String},
	{ColLoanStatus, String},
	{ColCurrentLoanAmount, Numeric},
	{ColTerm, String},
	{ColCreditScore, Numeric},
	{ColYearsInJob, String},
	{ColHomeOwnership, String},
	{ColAnnualIncome, Numeric},
	{ColPurpose, String},
	{ColMonthlyDebt, String},
	{ColYearsCreditHistory, Numeric},
	{ColMonthsSinceLastDelinquent, Numeric},
	{ColNumberOpenAccounts, Numeric},
	{ColNumberCreditProblems, Numeric},
	{ColCurrentCreditBalance, Numeric},
	{ColMaximumOpenCredit, Numeric},
	{ColBankruptcies, Numeric},
	{ColTaxLiens, Numeric},
}

// FieldNames returns the names of fields, in order.
func FieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
