package core_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/ahad1361/proteoimic-validation/pkg/core"

	"github.com/stretchr/testify/require"
)

// oobClassifier mimics a bagged ensemble: its models expose out-of-bag
// probabilities (the first feature of each training row) and fixed
// per-feature importances.
type oobClassifier struct {
	mu     sync.Mutex
	trains int
}

func (c *oobClassifier) Name() string { return "oob-forest" }

func (c *oobClassifier) Train(_ context.Context, x [][]float64, y []int, seed int64) (core.Model, error) {
	c.mu.Lock()
	c.trains++
	c.mu.Unlock()
	return oobModel{oob: firstColumn(x), importances: []float64{0.25, 0.75}}, nil
}

func (c *oobClassifier) trained() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trains
}

type oobModel struct {
	oob         []float64
	importances []float64
}

func (m oobModel) PredictProba(x [][]float64) []float64 { return firstColumn(x) }
func (m oobModel) Predict(x [][]float64) []int          { return core.ApplyThreshold(firstColumn(x), 0.5) }
func (m oobModel) OOBProba() []float64                  { return m.oob }
func (m oobModel) FeatureImportances() []float64        { return m.importances }

func firstColumn(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = row[0]
	}
	return out
}

func trainCohort() *core.Dataset {
	return &core.Dataset{
		Name:     "discovery",
		Features: []string{"crp", "il6"},
		IDs:      []string{"T01", "T02", "T03", "T04"},
		X:        [][]float64{{0.1, 0.5}, {0.2, 0.3}, {0.6, 1.4}, {0.9, 1.8}},
		Labels:   []string{"control", "control", "sepsis", "sepsis"},
		Positive: "sepsis",
	}
}

func holdoutCohort() *core.Dataset {
	return &core.Dataset{
		Name:     "external",
		Features: []string{"crp", "il6"},
		IDs:      []string{"V01", "V02", "V03"},
		X:        [][]float64{{0.7, 1.1}, {0.5, 0.6}, {0.65, 0.9}},
		Labels:   []string{"sepsis", "control", "control"},
		Positive: "sepsis",
	}
}

func TestValidatorDerivesThresholdFromOOB(t *testing.T) {
	c := &oobClassifier{}
	v := core.Validator{
		Train:      trainCohort(),
		Holdout:    holdoutCohort(),
		Classifier: c,
		Runs:       2,
		Study:      "external-validation",
	}

	report, err := v.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "discovery", report.TrainSet)
	require.Equal(t, "external", report.HoldoutSet)
	require.Len(t, report.Runs, 2)
	require.Equal(t, 2, c.trained(), "out-of-bag evidence makes the inner leave-one-out pass unnecessary")

	for _, run := range report.Runs {
		// OOB probabilities 0.1/0.2 (control) and 0.6/0.9 (sepsis) put the
		// Youden optimum at threshold 0.6.
		require.Equal(t, 0.6, run.Threshold)
		require.Equal(t, core.DefaultSeedPolicy(run.Run, 0), run.Seed)

		require.Len(t, run.Predictions, 3)
		require.Equal(t, []string{"V01", "V02", "V03"}, []string{run.Predictions[0].ID, run.Predictions[1].ID, run.Predictions[2].ID})
		require.Equal(t, []int{1, 0, 1}, []int{run.Predictions[0].Predicted, run.Predictions[1].Predicted, run.Predictions[2].Predicted})
		require.InDelta(t, 2.0/3, run.Metrics.Accuracy, 1e-12)
		require.NotNil(t, run.Metrics.AUC)
		require.Equal(t, 1.0, *run.Metrics.AUC)
	}

	require.InDelta(t, 2.0/3, report.Summary.Accuracy.Mean, 1e-12)
	require.Equal(t, 2, report.Summary.Accuracy.N)

	require.Len(t, report.Importances, 2)
	require.Equal(t, core.FeatureImportance{Feature: "il6", Importance: 0.75}, report.Importances[0])
	require.Equal(t, core.FeatureImportance{Feature: "crp", Importance: 0.25}, report.Importances[1])
}

func TestValidatorFallsBackToInnerLOOCV(t *testing.T) {
	c := &markerClassifier{}
	v := core.Validator{
		Train:      trainCohort(),
		Holdout:    holdoutCohort(),
		Classifier: c,
		Runs:       1,
	}

	report, err := v.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)
	require.Equal(t, 0.6, report.Runs[0].Threshold)
	require.Empty(t, report.Importances)

	// One final model plus one inner fold per training sample, each on its
	// own seed slot.
	want := []int64{
		core.DefaultSeedPolicy(0, 0),
		core.DefaultSeedPolicy(0, 1),
		core.DefaultSeedPolicy(0, 2),
		core.DefaultSeedPolicy(0, 3),
		core.DefaultSeedPolicy(0, 4),
	}
	require.Equal(t, want, c.trainSeeds())
}

type weightedStub struct {
	*markerClassifier

	mu  sync.Mutex
	got []map[int]float64
}

func (c *weightedStub) TrainWeighted(ctx context.Context, x [][]float64, y []int, weights map[int]float64, seed int64) (core.Model, error) {
	c.mu.Lock()
	c.got = append(c.got, weights)
	c.mu.Unlock()
	return c.Train(ctx, x, y, seed)
}

func TestValidatorWeightedTraining(t *testing.T) {
	train := trainCohort()
	train.IDs = append(train.IDs, "T05")
	train.X = append(train.X, []float64{0.15, 0.2})
	train.Labels = append(train.Labels, "control")

	c := &weightedStub{markerClassifier: &markerClassifier{}}
	v := core.Validator{
		Train:      train,
		Holdout:    holdoutCohort(),
		Classifier: c,
		Runs:       1,
		Weighted:   true,
	}

	report, err := v.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Weighted)

	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.got, "weighted training must flow through TrainWeighted")
	for _, weights := range c.got {
		require.InDelta(t, 5.0/2, weights[1], 1e-12, "positive weight is the inverse prevalence")
		require.InDelta(t, 5.0/3, weights[0], 1e-12)
	}
	// Final model and every inner fold train weighted.
	require.Len(t, c.got, 1+train.Len())
}

func TestValidatorWeightedNeedsWeightedTrainer(t *testing.T) {
	v := core.Validator{
		Train:      trainCohort(),
		Holdout:    holdoutCohort(),
		Classifier: &markerClassifier{},
		Runs:       1,
		Weighted:   true,
	}

	_, err := v.Run(context.Background())
	var confErr *core.ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestClassWeights(t *testing.T) {
	weights, err := core.ClassWeights([]int{1, 1, 1, 0})
	require.NoError(t, err)
	require.InDelta(t, 4.0/3, weights[1], 1e-12)
	require.InDelta(t, 4.0, weights[0], 1e-12)

	_, err = core.ClassWeights([]int{1, 1})
	var confErr *core.ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestValidatorRejectsMismatchedHoldout(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Dataset)
		column string
	}{
		{name: "different features", mutate: func(d *core.Dataset) { d.Features = []string{"crp", "pct"} }},
		{name: "different positive", mutate: func(d *core.Dataset) { d.Positive = "control" }},
		{name: "unknown level", mutate: func(d *core.Dataset) { d.Labels[1] = "unknown" }},
		{name: "no samples", mutate: func(d *core.Dataset) { d.X = nil; d.Labels = nil; d.IDs = nil }},
		{name: "nan value", mutate: func(d *core.Dataset) { d.X[0][1] = math.NaN() }, column: "il6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holdout := holdoutCohort()
			tt.mutate(holdout)
			v := core.Validator{
				Train:      trainCohort(),
				Holdout:    holdout,
				Classifier: &oobClassifier{},
				Runs:       1,
			}

			_, err := v.Run(context.Background())
			var confErr *core.ConfigurationError
			require.ErrorAs(t, err, &confErr)
			if tt.column != "" {
				require.Contains(t, confErr.Columns, tt.column)
			}
		})
	}
}

func TestValidatorSingleClassHoldoutHasNoAUC(t *testing.T) {
	holdout := &core.Dataset{
		Name:     "external",
		Features: []string{"crp", "il6"},
		X:        [][]float64{{0.7, 1.1}, {0.8, 1.5}},
		Labels:   []string{"sepsis", "sepsis"},
		Positive: "sepsis",
	}
	v := core.Validator{
		Train:      trainCohort(),
		Holdout:    holdout,
		Classifier: &oobClassifier{},
		Runs:       1,
	}

	report, err := v.Run(context.Background())
	require.NoError(t, err)
	require.Nil(t, report.Runs[0].Metrics.AUC)
	require.Equal(t, 0, report.Summary.AUC.N)
	require.Equal(t, 1.0, report.Runs[0].Metrics.Accuracy)
}

func TestValidatorReportsProgress(t *testing.T) {
	var calls [][2]int
	v := core.Validator{
		Train:      trainCohort(),
		Holdout:    holdoutCohort(),
		Classifier: &oobClassifier{},
		Runs:       3,
		Progress:   func(completed, total int) { calls = append(calls, [2]int{completed, total}) },
	}

	_, err := v.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestValidatorRequiresConfiguration(t *testing.T) {
	v := core.Validator{Train: trainCohort(), Holdout: holdoutCohort(), Classifier: &oobClassifier{}, Runs: 0}
	_, err := v.Run(context.Background())
	var confErr *core.ConfigurationError
	require.ErrorAs(t, err, &confErr)

	v = core.Validator{Runs: 1}
	_, err = v.Run(context.Background())
	require.Error(t, err)
}
