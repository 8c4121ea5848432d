package features

import (
	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Encoding is the fixed one-hot vocabulary of a categorical column. The
// Reference category gets no indicator column, so every row of a complete
// encoding has at most one 1.
type Encoding struct {
	Column     string
	Categories []string
	Reference  string
}

// Indicators returns the names of the indicator columns, in vocabulary order.
func (e Encoding) Indicators() []string {
	names := make([]string, 0, len(e.Categories)-1)
	for _, cat := range e.Categories {
		if cat != e.Reference {
			names = append(names, e.Column+"_"+cat)
		}
	}
	return names
}

// Encodings lists the one-hot encoded columns in output order.
var Encodings = []Encoding{
	{
		Column:     core.ColHomeOwnership,
		Categories: []string{HomeMortgage, HomeOther, HomeOwn, HomeRent},
		Reference:  HomeOther,
	},
	{
		Column:     core.ColTerm,
		Categories: []string{TermLong, TermShort},
		Reference:  TermLong,
	},
	{
		Column: core.ColPurpose,
		Categories: []string{
			PurposeBusiness, PurposeDebtConsolidation, PurposeEducation, PurposeHousing,
			PurposeMajorPurchase, PurposeMedical, PurposeOther, PurposeRenewableEnergy,
			PurposeVacation, PurposeVehicle, PurposeWedding,
		},
		Reference: PurposeOther,
	},
}

func encodedColumns() (removed, added []string) {
	for _, e := range Encodings {
		removed = append(removed, e.Column)
		added = append(added, e.Indicators()...)
	}
	return removed, added
}

var encodeRemoves, encodeAdds = encodedColumns()

// OneHotEncode replaces home_ownership, term, and purpose with indicator
// columns. Null values, the reference category, and values outside the
// vocabulary all encode as zeros; out-of-vocabulary values are counted.
var OneHotEncode = pipeline.Step{
	Name:     "one_hot_encode",
	Requires: encodeRemoves,
	Adds:     encodeAdds,
	Removes:  encodeRemoves,
	Apply: func(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
		var indicators []*core.Column
		for _, e := range Encodings {
			vals, valid, err := pipeline.Texts(ds, e.Column)
			if err != nil {
				return nil, err
			}
			known := make(map[string]bool, len(e.Categories))
			for _, cat := range e.Categories {
				known[cat] = true
			}
			unknown := 0
			for i, v := range vals {
				if valid[i] && !known[v] {
					unknown++
				}
			}
			rep.Add(pipeline.KindUnmapped, unknown)

			for _, cat := range e.Categories {
				if cat == e.Reference {
					continue
				}
				hot := make([]bool, len(vals))
				for i, v := range vals {
					hot[i] = valid[i] && v == cat
				}
				indicators = append(indicators, core.NewBoolColumn(e.Column+"_"+cat, hot))
			}
		}
		return ds.Without(encodeRemoves...).With(indicators...)
	},
}
