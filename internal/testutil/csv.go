package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// KaggleHeaders is the header row of the public credit_train.csv.
var KaggleHeaders = []string{
	"Loan ID", "Customer ID", "Loan Status", "Current Loan Amount", "Term",
	"Credit Score", "Annual Income", "Years in current job", "Home Ownership",
	"Purpose", "Monthly Debt", "Years of Credit History", "Months since last delinquent",
	"Number of Open Accounts", "Number of Credit Problems", "Current Credit Balance",
	"Maximum Open Credit", "Bankruptcies", "Tax Liens",
}

// WriteLoanCSV writes n synthetic loan applications with KaggleHeaders to
// dir/name and returns the path. Every fourth loan is charged off. Row 2 has
// a non-numeric job tenure, row 3 the loan-amount sentinel, row 5 no credit
// score or income, row 6 an unparseable monthly debt, and row 7 a credit
// score scaled by ten.
func WriteLoanCSV(t *testing.T, dir, name string, n int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	homes := []string{"Rent", "Home Mortgage", "Own Home", "HaveMortgage"}
	purposes := []string{"Debt Consolidation", "Home Improvements", "Buy a Car", "other"}

	w := csv.NewWriter(f)
	_ = w.Write(KaggleHeaders)
	for i := range n {
		status := "Fully Paid"
		if i%4 == 0 {
			status = "Charged Off"
		}
		amount := fmt.Sprint(10000 + i*500)
		if i == 3 {
			amount = "99999999"
		}
		term := "Long Term"
		if i%2 == 0 {
			term = "Short Term"
		}
		credit := fmt.Sprint(650 + i*5)
		income := fmt.Sprint(40000 + i*2000)
		if i == 5 {
			credit, income = "", ""
		}
		if i == 7 {
			credit = "7100"
		}
		years := fmt.Sprint(i % 11)
		if i == 2 {
			years = "10+ years"
		}
		debt := fmt.Sprintf("$1,%03d.50", i*10)
		if i == 6 {
			debt = "n/a"
		}
		delinquent := ""
		if i%2 == 1 {
			delinquent = fmt.Sprint(6 + i)
		}
		problems := "0"
		if i%3 == 0 {
			problems = "1"
		}
		_ = w.Write([]string{
			fmt.Sprintf("loan-%03d", i), fmt.Sprintf("cust-%03d", i), status, amount, term,
			credit, income, years, homes[i%len(homes)], purposes[i%len(purposes)], debt,
			fmt.Sprint(10 + i), delinquent, "5", problems,
			fmt.Sprint(1000 + i*100), fmt.Sprint(5000 + i*200), "0", "0",
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
