package cleaning

import (
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/internal/stats"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

var currencySymbols = strings.NewReplacer("$", "", ",", "")

// ParseCurrency parses text such as "$1,200.50". It reports false for empty
// or unparseable input and for non-finite results.
func ParseCurrency(s string) (float64, bool) {
	s = strings.TrimSpace(currencySymbols.Replace(s))
	if s == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// NormalizeMonthlyDebt parses monthly_debt as currency and fills values that
// are missing or unparseable with the median of the parsed values.
var NormalizeMonthlyDebt = pipeline.Step{
	Name:     "normalize_monthly_debt",
	Requires: []string{core.ColMonthlyDebt},
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		c, err := pipeline.Lookup(ds, core.ColMonthlyDebt)
		if err != nil {
			return nil, err
		}

		var parsed []float64
		if c.Type().IsText() {
			vals, valid := c.Strings()
			parsed = make([]float64, len(vals))
			bad := 0
			for i, s := range vals {
				if !valid[i] {
					parsed[i] = math.NaN()
					continue
				}
				v, ok := ParseCurrency(s)
				if !ok {
					bad++
				}
				parsed[i] = v
			}
			rep.Add(pipeline.KindUnparseable, bad)
		} else {
			parsed = c.Floats()
		}

		filled, n := stats.FillNaN(parsed, stats.Median(parsed))
		rep.Add(pipeline.KindImputed, n)
		return ds.With(core.NewNumericColumn(core.ColMonthlyDebt, filled))
	},
}
