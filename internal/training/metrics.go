package training

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/leapstack-labs/loanprep/internal/selection"
)

// Metrics summarizes binary classification quality at one threshold.
type Metrics struct {
	Threshold float64
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	ROCAUC    float64

	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Evaluate scores predicted probabilities against labels. A row is
// predicted positive when its probability is at least threshold. Undefined
// ratios, such as precision with no positive predictions, are zero; ROC AUC
// is NaN when y holds a single class.
func Evaluate(y selection.LabelVector, proba []float64, threshold float64) Metrics {
	m := Metrics{Threshold: threshold}
	for i, v := range y {
		predicted := proba[i] >= threshold
		switch {
		case predicted && v == 1:
			m.TruePositives++
		case predicted:
			m.FalsePositives++
		case v == 1:
			m.FalseNegatives++
		default:
			m.TrueNegatives++
		}
	}

	m.Accuracy = ratio(m.TruePositives+m.TrueNegatives, len(y))
	m.Precision = ratio(m.TruePositives, m.TruePositives+m.FalsePositives)
	m.Recall = ratio(m.TruePositives, m.TruePositives+m.FalseNegatives)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	m.ROCAUC = rocAUC(y, proba)
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func rocAUC(y selection.LabelVector, proba []float64) float64 {
	scores := append([]float64(nil), proba...)
	classes := make([]bool, len(y))
	pos := 0
	for i, v := range y {
		classes[i] = v == 1
		if classes[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(y) {
		return math.NaN()
	}
	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}
