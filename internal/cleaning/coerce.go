package cleaning

import (
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// ParseNumber parses a plain decimal number. Free text such as "10+ years"
// is not a number and reports false.
func ParseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// CoerceYearsInJob converts years_in_job to numeric. Values that do not
// parse become NaN and are imputed later in the feature stage.
var CoerceYearsInJob = pipeline.Step{
	Name:     "coerce_years_in_job",
	Requires: []string{core.ColYearsInJob},
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		c, err := pipeline.Lookup(ds, core.ColYearsInJob)
		if err != nil {
			return nil, err
		}
		if !c.Type().IsText() {
			return ds, nil
		}
		vals, valid := c.Strings()
		out := make([]float64, len(vals))
		bad := 0
		for i, s := range vals {
			if !valid[i] {
				out[i] = math.NaN()
				continue
			}
			v, ok := ParseNumber(s)
			if !ok {
				bad++
			}
			out[i] = v
		}
		rep.Add(pipeline.KindUnparseable, bad)
		return ds.With(core.NewNumericColumn(core.ColYearsInJob, out))
	},
}
