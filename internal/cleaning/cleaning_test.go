package cleaning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/internal/testutil"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

func floats(t *testing.T, ds *core.Dataset, name string) []float64 {
	t.Helper()
	vals, err := pipeline.Floats(ds, name)
	require.NoError(t, err)
	return vals
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{in: "$1,200.50", want: 1200.50, wantOK: true},
		{in: "  $35 ", want: 35, wantOK: true},
		{in: "1,000,000", want: 1000000, wantOK: true},
		{in: "-12.5", want: -12.5, wantOK: true},
		{in: "", wantOK: false},
		{in: "$", wantOK: false},
		{in: "n/a", wantOK: false},
		{in: "NaN", wantOK: false},
		{in: "Inf", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCurrency(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			} else {
				assert.True(t, math.IsNaN(got))
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	v, ok := ParseNumber(" 7 ")
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)

	for _, s := range []string{"10+ years", "< 1 year", "", "inf"} {
		v, ok := ParseNumber(s)
		assert.False(t, ok, s)
		assert.True(t, math.IsNaN(v), s)
	}
}

func TestStage_Scenario(t *testing.T) {
	in := testutil.LoanDataset(testutil.ScenarioLoans()...)

	out, rep, err := Stage(pipeline.WithLogger(testutil.NewTestLogger(t))).RunWithReport(in)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())

	assert.Equal(t, []float64{1, 0, 0}, floats(t, out, core.ColLoanAmountPlaceholder))
	assert.Equal(t, []float64{16000, 12000, 20000}, floats(t, out, core.ColCurrentLoanAmount))

	debt := floats(t, out, core.ColMonthlyDebt)
	assert.InDelta(t, 1200.50, debt[0], 1e-9)
	assert.InDelta(t, 500.0, debt[1], 1e-9)
	assert.InDelta(t, 850.25, debt[2], 1e-9, "unparseable debt gets the median of parsed values")

	assert.Equal(t, []float64{920, 700, 580}, floats(t, out, core.ColCreditScore))
	assert.Equal(t, []float64{0, 0, 0}, floats(t, out, core.ColCreditScoreMissing))
	assert.Equal(t, []float64{1, 0, 0}, floats(t, out, core.ColAnnualIncomeMissing))
	assert.Equal(t, []float64{0, 0, 0}, floats(t, out, core.ColMissingIncomeAndCreditScore))
	assert.Equal(t, []float64{70000, 50000, 90000}, floats(t, out, core.ColAnnualIncome))
	assert.Equal(t, []float64{1, 0, 0}, floats(t, out, core.ColLoanStatus))

	years := floats(t, out, core.ColYearsInJob)
	assert.True(t, math.IsNaN(years[0]), "free-text tenure is left for later imputation")
	assert.Equal(t, []float64{8, 3}, years[1:])

	assert.Equal(t, 1, rep.StepCount(NormalizeMonthlyDebt.Name, pipeline.KindUnparseable))
	assert.Equal(t, 1, rep.StepCount(NormalizeMonthlyDebt.Name, pipeline.KindImputed))
	assert.Equal(t, 1, rep.StepCount(RescaleCreditScore.Name, pipeline.KindRescaled))
	assert.Equal(t, 1, rep.StepCount(ImputeCreditAndIncome.Name, pipeline.KindImputed))
	assert.Equal(t, 1, rep.StepCount(CoerceYearsInJob.Name, pipeline.KindUnparseable))
	assert.Equal(t, 1, rep.StepCount(HandleLoanAmountSentinel.Name, pipeline.KindSentinel))
	assert.Zero(t, rep.Count(pipeline.KindUnmapped))

	// identifiers survive cleaning
	assert.True(t, out.Has(core.ColLoanID))
	assert.True(t, out.Has(core.ColCustomerID))
}

func TestStage_MissingFlagsPrecedeImputation(t *testing.T) {
	rows := []testutil.RawLoan{testutil.DefaultLoan(0), testutil.DefaultLoan(1), testutil.DefaultLoan(2), testutil.DefaultLoan(3)}
	rows[0].CreditScore, rows[0].AnnualIncome = testutil.NaN, testutil.NaN
	rows[1].CreditScore = 650
	rows[2].CreditScore = 7300 // rescaled to 730 before the median is taken
	rows[3].AnnualIncome = 40000
	rows[1].AnnualIncome = 80000

	out, err := Stage().Run(testutil.LoanDataset(rows...))
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 0, 0, 0}, floats(t, out, core.ColCreditScoreMissing))
	assert.Equal(t, []float64{1, 0, 0, 0}, floats(t, out, core.ColAnnualIncomeMissing))
	assert.Equal(t, []float64{1, 0, 0, 0}, floats(t, out, core.ColMissingIncomeAndCreditScore))

	// credit scores 650, 730, 700 have median 700
	assert.Equal(t, []float64{700, 650, 730, 700}, floats(t, out, core.ColCreditScore))
	// incomes 80000, 60000, 40000 have median 60000
	assert.Equal(t, []float64{60000, 80000, 60000, 40000}, floats(t, out, core.ColAnnualIncome))
}

func TestEncodeLoanStatus(t *testing.T) {
	ds := core.MustDataset(core.NewStringColumn(core.ColLoanStatus,
		[]string{"Fully Paid", "Charged Off", "Current", "", "fully paid"},
		[]bool{true, true, true, false, true},
	))

	out, rep, err := pipeline.New("labels", []pipeline.Step{EncodeLoanStatus}).RunWithReport(ds)
	require.NoError(t, err)

	labels := floats(t, out, core.ColLoanStatus)
	assert.Equal(t, []float64{0, 1}, labels[:2])
	for _, v := range labels[2:] {
		assert.True(t, math.IsNaN(v), "unknown statuses are not guessed")
	}
	assert.Equal(t, 3, rep.Count(pipeline.KindUnmapped))

	// already-encoded labels pass through unchanged
	again, err := pipeline.New("labels", []pipeline.Step{EncodeLoanStatus}).Run(out)
	require.NoError(t, err)
	assert.True(t, again.Equal(out))
}

func TestHandleLoanAmountSentinel(t *testing.T) {
	ds := core.MustDataset(core.NewNumericColumn(core.ColCurrentLoanAmount,
		[]float64{LoanAmountSentinel, 100, 300, LoanAmountSentinel, 200}))

	out, err := pipeline.New("amount", []pipeline.Step{HandleLoanAmountSentinel}).Run(ds)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 0, 0, 1, 0}, floats(t, out, core.ColLoanAmountPlaceholder))
	assert.Equal(t, []float64{200, 100, 300, 200, 200}, floats(t, out, core.ColCurrentLoanAmount))
}

func TestNormalizeMonthlyDebt_NumericInput(t *testing.T) {
	ds := core.MustDataset(core.NewNumericColumn(core.ColMonthlyDebt, []float64{10, math.NaN(), 30}))

	out, err := pipeline.New("debt", []pipeline.Step{NormalizeMonthlyDebt}).Run(ds)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, floats(t, out, core.ColMonthlyDebt))
}

func TestStage_Preconditions(t *testing.T) {
	t.Run("missing columns", func(t *testing.T) {
		in := testutil.LoanDataset(testutil.DefaultLoan(0)).Without(core.ColTaxLiens, core.ColPurpose)

		_, err := Stage().Run(in)

		var missing *core.MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, StageName, missing.Stage)
		assert.ElementsMatch(t, []string{core.ColTaxLiens, core.ColPurpose}, missing.Columns)
	})

	t.Run("empty dataset", func(t *testing.T) {
		_, err := Stage().Run(testutil.LoanDataset())
		assert.ErrorIs(t, err, core.ErrEmptyDataset)
	})
}

func TestStage_DoesNotModifyInput(t *testing.T) {
	in := testutil.LoanDataset(testutil.ScenarioLoans()...)
	snapshot := testutil.LoanDataset(testutil.ScenarioLoans()...)

	_, err := Stage().Run(in)
	require.NoError(t, err)
	assert.True(t, in.Equal(snapshot))
}
