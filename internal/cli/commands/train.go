package commands

import (
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// TrainOutput is the JSON form of a training result.
type TrainOutput struct {
	Features  []string           `json:"features"`
	Dropped   int                `json:"dropped_unlabeled"`
	TrainRows int                `json:"train_rows"`
	TestRows  int                `json:"test_rows"`
	Metrics   map[string]float64 `json:"metrics"`
	Confusion map[string]int     `json:"confusion"`
	Weights   map[string]float64 `json:"weights"`
	Intercept float64            `json:"intercept"`
}

// NewTrainCommand creates the train command.
func NewTrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the baseline default model on the cleaned table",
		Long: `Read the cleaned sink table, select model features, and fit a
class-balanced logistic regression on a stratified train/test split.

Reports accuracy, precision, recall, F1, and ROC AUC on the test rows.`,
		Example: `  # Train with configured settings
  loanprep train

  # Hold out 30% of rows and use a stricter threshold
  loanprep train --test-size 0.3 --threshold 0.6`,
		RunE: runTrain,
	}

	cmd.Flags().String("sink-table", "", "Cleaned table to train on")
	cmd.Flags().Float64("test-size", 0, "Fraction of rows held out for evaluation")
	cmd.Flags().Float64("threshold", 0, "Probability at or above which a loan is predicted to default")
	cmd.Flags().Float64("learning-rate", 0, "Gradient descent learning rate")
	cmd.Flags().Int("epochs", 0, "Gradient descent epochs")
	cmd.Flags().Uint64("seed", 0, "Random seed for the train/test split")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cc.Engine.Train(cmd.Context())
	if err != nil {
		return err
	}

	m := res.Metrics
	metrics := map[string]float64{
		"threshold": m.Threshold,
		"accuracy":  m.Accuracy,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1":        m.F1,
	}
	// ROC AUC is NaN for a single-class test split, which JSON cannot encode.
	if !math.IsNaN(m.ROCAUC) {
		metrics["roc_auc"] = m.ROCAUC
	}

	r := cc.Output
	if r.JSONMode() {
		weights := make(map[string]float64, len(res.Features))
		for i, name := range res.Features {
			weights[name] = res.Model.Weights[i]
		}
		return r.JSON(TrainOutput{
			Features:  res.Features,
			Dropped:   res.Dropped,
			TrainRows: res.TrainRows,
			TestRows:  res.TestRows,
			Metrics:   metrics,
			Confusion: map[string]int{
				"true_positives":  m.TruePositives,
				"false_positives": m.FalsePositives,
				"true_negatives":  m.TrueNegatives,
				"false_negatives": m.FalseNegatives,
			},
			Weights:   weights,
			Intercept: res.Model.Bias,
		})
	}

	r.Printf("Trained on %d rows, evaluated on %d rows, %d features", res.TrainRows, res.TestRows, len(res.Features))
	if res.Dropped > 0 {
		r.Printf(" (%d unlabeled rows dropped)", res.Dropped)
	}
	r.Println()
	r.Println()
	r.Table(table.Row{"Metric", "Value"}, []table.Row{
		{"threshold", m.Threshold},
		{"accuracy", m.Accuracy},
		{"precision", m.Precision},
		{"recall", m.Recall},
		{"f1", m.F1},
		{"roc_auc", m.ROCAUC},
	})
	r.Println()
	r.Table(table.Row{"", "Predicted default", "Predicted paid"}, []table.Row{
		{"Actual default", m.TruePositives, m.FalseNegatives},
		{"Actual paid", m.FalsePositives, m.TrueNegatives},
	})
	return nil
}
