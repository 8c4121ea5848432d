package training

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/leapstack-labs/loanprep/internal/selection"
)

// Logistic is a binary logistic regression model.
type Logistic struct {
	Weights []float64
	Bias    float64
}

// FitLogistic trains a logistic regression by full-batch gradient descent.
// Each sample is weighted inversely to its class frequency, so both classes
// contribute equally to the loss.
func FitLogistic(x *mat.Dense, y selection.LabelVector, learningRate float64, epochs int) (*Logistic, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("feature matrix has %d rows, labels have %d", rows, len(y))
	}
	weights, err := balancedWeights(y)
	if err != nil {
		return nil, err
	}

	m := &Logistic{Weights: make([]float64, cols)}
	w := mat.NewVecDense(cols, m.Weights)
	z := mat.NewVecDense(rows, nil)
	residual := mat.NewVecDense(rows, nil)
	grad := mat.NewVecDense(cols, nil)
	n := float64(rows)

	for epoch := 0; epoch < epochs; epoch++ {
		z.MulVec(x, w)
		for i := 0; i < rows; i++ {
			residual.SetVec(i, weights[i]*(sigmoid(z.AtVec(i)+m.Bias)-y[i]))
		}
		grad.MulVec(x.T(), residual)
		floats.AddScaled(m.Weights, -learningRate/n, grad.RawVector().Data)
		m.Bias -= learningRate * floats.Sum(residual.RawVector().Data) / n
	}
	return m, nil
}

// PredictProba returns the probability of the positive class for each row of x.
func (m *Logistic) PredictProba(x *mat.Dense) []float64 {
	rows, _ := x.Dims()
	z := mat.NewVecDense(rows, nil)
	z.MulVec(x, mat.NewVecDense(len(m.Weights), m.Weights))
	proba := make([]float64, rows)
	for i := range proba {
		proba[i] = sigmoid(z.AtVec(i) + m.Bias)
	}
	return proba
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func balancedWeights(y selection.LabelVector) ([]float64, error) {
	var pos int
	for _, v := range y {
		switch v {
		case 1:
			pos++
		case 0:
		default:
			return nil, fmt.Errorf("label %v is not binary", v)
		}
	}
	neg := len(y) - pos
	if pos == 0 || neg == 0 {
		return nil, fmt.Errorf("training labels contain a single class (%d positive, %d negative)", pos, neg)
	}
	n := float64(len(y))
	wPos, wNeg := n/(2*float64(pos)), n/(2*float64(neg))
	out := make([]float64, len(y))
	for i, v := range y {
		if v == 1 {
			out[i] = wPos
		} else {
			out[i] = wNeg
		}
	}
	return out, nil
}
