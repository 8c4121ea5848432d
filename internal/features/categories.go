package features

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/loanprep/internal/pipeline"
	"github.com/leapstack-labs/loanprep/pkg/core"
)

// Purpose categories.
const (
	PurposeDebtConsolidation = "debt_consolidation"
	PurposeHousing           = "housing"
	PurposeBusiness          = "business"
	PurposeVehicle           = "vehicle"
	PurposeMedical           = "medical"
	PurposeVacation          = "vacation"
	PurposeMajorPurchase     = "major_purchase"
	PurposeEducation         = "education"
	PurposeWedding           = "wedding"
	PurposeRenewableEnergy   = "renewable_energy"
	PurposeOther             = "other"
)

// Home ownership categories.
const (
	HomeMortgage = "mortgage"
	HomeRent     = "rent"
	HomeOwn      = "own"
	HomeOther    = "other"
)

// Term categories.
const (
	TermShort = "short"
	TermLong  = "long"
)

// purposeGroups maps normalized (lower-case, single-spaced) purpose text to a
// category. Every category maps to itself so grouping is idempotent.
var purposeGroups = map[string]string{
	"debt consolidation":   PurposeDebtConsolidation,
	"home improvements":    PurposeHousing,
	"buy house":            PurposeHousing,
	"moving":               PurposeHousing,
	"business loan":        PurposeBusiness,
	"small_business":       PurposeBusiness,
	"buy a car":            PurposeVehicle,
	"medical bills":        PurposeMedical,
	"take a trip":          PurposeVacation,
	"educational expenses": PurposeEducation,

	PurposeDebtConsolidation: PurposeDebtConsolidation,
	PurposeHousing:           PurposeHousing,
	PurposeBusiness:          PurposeBusiness,
	PurposeVehicle:           PurposeVehicle,
	PurposeMedical:           PurposeMedical,
	PurposeVacation:          PurposeVacation,
	PurposeMajorPurchase:     PurposeMajorPurchase,
	PurposeEducation:         PurposeEducation,
	PurposeWedding:           PurposeWedding,
	PurposeRenewableEnergy:   PurposeRenewableEnergy,
	PurposeOther:             PurposeOther,
}

// homeOwnershipGroups maps whitespace-normalized home ownership text. Keys are
// case-sensitive, matching the source vocabulary.
var homeOwnershipGroups = map[string]string{
	"HaveMortgage":  HomeMortgage,
	"Home Mortgage": HomeMortgage,
	"Rent":          HomeRent,
	"Own Home":      HomeOwn,

	HomeMortgage: HomeMortgage,
	HomeRent:     HomeRent,
	HomeOwn:      HomeOwn,
	HomeOther:    HomeOther,
}

var termGroups = map[string]string{
	"short term": TermShort,
	"long term":  TermLong,
	TermShort:    TermShort,
	TermLong:     TermLong,
}

// squash trims s and collapses internal runs of whitespace to single spaces.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// grouping describes how one text column is normalized and mapped.
// An empty fallback leaves unmapped values null.
type grouping struct {
	column   string
	groups   map[string]string
	lower    bool
	fallback string
}

func (g grouping) apply(ds *core.Dataset, rep *pipeline.Report) (*core.Dataset, error) {
	vals, valid, err := pipeline.Texts(ds, g.column)
	if err != nil {
		return nil, err
	}
	var caser cases.Caser
	if g.lower {
		caser = cases.Lower(language.Und)
	}

	unmapped := 0
	for i, v := range vals {
		key := ""
		if valid[i] {
			key = squash(v)
			if g.lower {
				key = caser.String(key)
			}
		}
		if cat, ok := g.groups[key]; ok && valid[i] {
			vals[i] = cat
			continue
		}
		unmapped++
		if g.fallback != "" {
			vals[i], valid[i] = g.fallback, true
		} else {
			vals[i], valid[i] = "", false
		}
	}
	rep.Add(pipeline.KindUnmapped, unmapped)
	return ds.With(core.NewCategoricalColumn(g.column, vals, valid))
}

// GroupPurpose lower-cases and trims purpose, then maps it to one of a fixed
// set of categories. Unknown and null values become "other".
var GroupPurpose = pipeline.Step{
	Name:     "group_purpose",
	Requires: []string{core.ColPurpose},
	Apply: grouping{
		column:   core.ColPurpose,
		groups:   purposeGroups,
		lower:    true,
		fallback: PurposeOther,
	}.apply,
}

// GroupHomeOwnership trims home_ownership and maps known variants to
// mortgage, rent, or own. Unknown and null values become "other".
var GroupHomeOwnership = pipeline.Step{
	Name:     "group_home_ownership",
	Requires: []string{core.ColHomeOwnership},
	Apply: grouping{
		column:   core.ColHomeOwnership,
		groups:   homeOwnershipGroups,
		fallback: HomeOther,
	}.apply,
}

// NormalizeTerm lower-cases and trims term and maps it to short or long.
// Values that do not match stay null rather than being guessed.
var NormalizeTerm = pipeline.Step{
	Name:     "normalize_term",
	Requires: []string{core.ColTerm},
	Apply:    grouping{column: core.ColTerm, groups: termGroups, lower: true}.apply,
}
