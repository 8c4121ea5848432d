package cleaning

import (
	"math"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Loan status labels.
const (
	StatusFullyPaid  = "Fully Paid"
	StatusChargedOff = "Charged Off"
)

var statusLabels = map[string]float64{
	StatusFullyPaid:  0,
	StatusChargedOff: 1,
}

// EncodeLoanStatus maps loan_status to a binary label: "Fully Paid" is 0 and
// "Charged Off" is 1. Any other value, including null, yields a null label
// and is counted as unmapped; no class is guessed.
var EncodeLoanStatus = pipeline.Step{
	Name:     "encode_loan_status",
	Requires: []string{core.ColLoanStatus},
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		c, err := pipeline.Lookup(ds, core.ColLoanStatus)
		if err != nil {
			return nil, err
		}
		labels := make([]float64, c.Len())
		unmapped := 0
		for i := range labels {
			labels[i] = math.NaN()
			if c.Type().IsText() {
				if s, ok := c.Str(i); ok {
					if v, known := statusLabels[s]; known {
						labels[i] = v
						continue
					}
				}
			} else if v := c.Float(i); v == 0 || v == 1 {
				labels[i] = v
				continue
			}
			unmapped++
		}
		rep.Add(pipeline.KindUnmapped, unmapped)
		return ds.With(core.NewNumericColumn(core.ColLoanStatus, labels))
	},
}
