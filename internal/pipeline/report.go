package pipeline

import "sort"

// Anomaly kinds recorded by steps. Anomalies are recovered locally and never
// fail a step; the report makes them visible to the caller.
const (
	KindUnparseable    = "unparseable"
	KindImputed        = "imputed"
	KindDivisionByZero = "division_by_zero"
	KindUnmapped       = "unmapped"
	KindSentinel       = "sentinel"
	KindRescaled       = "rescaled"
	KindClipped        = "clipped"
)

// Anomaly is the number of values of one kind handled by one step.
type Anomaly struct {
	Position int
	Step     string
	Kind     string
	Count    int
}

// StepStat describes the Dataset shape after a step.
type StepStat struct {
	Position int
	Name     string
	Rows     int
	Columns  int
}

// Report collects per-run anomaly counts and step statistics. A Report
// belongs to exactly one run.
type Report struct {
	Steps []StepStat

	position int
	step     string
	counts   map[anomalyKey]int
}

type anomalyKey struct {
	position int
	step     string
	kind     string
}

func newReport() *Report {
	return &Report{position: -1, counts: make(map[anomalyKey]int)}
}

func (r *Report) enter(position int, step string) {
	r.position = position
	r.step = step
}

// Add records n anomalies of kind against the current step. It is a no-op on
// a nil Report or when n is zero.
func (r *Report) Add(kind string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.counts[anomalyKey{r.position, r.step, kind}] += n
}

// Anomalies returns the recorded counts ordered by step position, then kind.
func (r *Report) Anomalies() []Anomaly {
	if r == nil {
		return nil
	}
	out := make([]Anomaly, 0, len(r.counts))
	for k, n := range r.counts {
		out = append(out, Anomaly{Position: k.position, Step: k.step, Kind: k.kind, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Count returns the total anomalies of kind across all steps.
func (r *Report) Count(kind string) int {
	if r == nil {
		return 0
	}
	total := 0
	for k, n := range r.counts {
		if k.kind == kind {
			total += n
		}
	}
	return total
}

// StepCount returns the anomalies of kind recorded by the named step.
func (r *Report) StepCount(step, kind string) int {
	if r == nil {
		return 0
	}
	total := 0
	for k, n := range r.counts {
		if k.step == step && k.kind == kind {
			total += n
		}
	}
	return total
}
