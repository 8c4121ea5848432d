// Package training fits the baseline default-prediction model on a feature
// matrix and label vector and reports hold-out metrics.
package training

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/loanprep/internal/selection"
)

// Config controls the baseline model run.
type Config struct {
	TestSize      float64
	Threshold     float64
	LearningRate  float64
	Epochs        int
	Seed          uint64
	DropUnlabeled bool
}

// DefaultConfig returns the baseline settings.
func DefaultConfig() Config {
	return Config{
		TestSize:      0.2,
		Threshold:     0.35,
		LearningRate:  0.1,
		Epochs:        500,
		Seed:          42,
		DropUnlabeled: true,
	}
}

// Result is the outcome of a training run.
type Result struct {
	Features  []string
	Dropped   int
	TrainRows int
	TestRows  int
	Scaler    *Scaler
	Model     *Logistic
	Metrics   Metrics
}

// Train splits the data, standardizes it on the training rows, fits a
// class-balanced logistic regression, and evaluates it on the test rows.
// Rows with a null label are dropped when cfg.DropUnlabeled is set and
// rejected otherwise.
func Train(fm *selection.FeatureMatrix, y selection.LabelVector, cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	res := &Result{Features: fm.Names}
	if n := y.Unlabeled(); n > 0 {
		if !cfg.DropUnlabeled {
			return nil, fmt.Errorf("%d rows have a null label", n)
		}
		var err error
		fm, y, res.Dropped, err = selection.DropUnlabeled(fm, y)
		if err != nil {
			return nil, err
		}
		logger.Warn("dropped unlabeled rows", "count", res.Dropped)
	}
	if bad := selection.NonFiniteColumns(fm); len(bad) > 0 {
		return nil, fmt.Errorf("features contain NaN or infinite values: %v", bad)
	}

	trainIdx, testIdx, err := StratifiedSplit(y, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, err
	}
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, fmt.Errorf("split produced %d train and %d test rows", len(trainIdx), len(testIdx))
	}
	res.TrainRows, res.TestRows = len(trainIdx), len(testIdx)

	train, test := selection.Subset(fm, trainIdx), selection.Subset(fm, testIdx)
	res.Scaler = FitScaler(train.X)
	xTrain, err := res.Scaler.Transform(train.X)
	if err != nil {
		return nil, err
	}
	xTest, err := res.Scaler.Transform(test.X)
	if err != nil {
		return nil, err
	}

	res.Model, err = FitLogistic(xTrain, y.Subset(trainIdx), cfg.LearningRate, cfg.Epochs)
	if err != nil {
		return nil, err
	}
	res.Metrics = Evaluate(y.Subset(testIdx), res.Model.PredictProba(xTest), cfg.Threshold)

	logger.Info("baseline model trained",
		"train_rows", res.TrainRows,
		"test_rows", res.TestRows,
		"features", len(res.Features),
		"roc_auc", res.Metrics.ROCAUC,
	)
	return res, nil
}
