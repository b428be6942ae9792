package classifier_test

import (
	"context"
	"math"
	"testing"

	"github.com/ahad1361/proteoimic-validation/pkg/classifier"

	"github.com/stretchr/testify/require"
)

func cohort() ([][]float64, []int) {
	// Feature 0 separates the classes; feature 1 is constant noise.
	x := [][]float64{
		{0.1, 5}, {0.15, 5}, {0.2, 5}, {0.3, 5},
		{0.7, 5}, {0.8, 5}, {0.85, 5}, {0.9, 5},
	}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}
	return x, y
}

func TestForestSeparatesClasses(t *testing.T) {
	x, y := cohort()
	model, err := classifier.NewForest(classifier.WithTrees(50)).Train(context.Background(), x, y, 7)
	require.NoError(t, err)

	require.Equal(t, y, model.Predict(x))
	for i, p := range model.PredictProba(x) {
		require.GreaterOrEqual(t, p, 0.0)
		require.LessOrEqual(t, p, 1.0)
		if y[i] == 1 {
			require.Greater(t, p, 0.5, "row %d", i)
		} else {
			require.Less(t, p, 0.5, "row %d", i)
		}
	}
}

func TestForestReproducibleFromSeed(t *testing.T) {
	x, y := cohort()
	forest := classifier.NewForest(classifier.WithTrees(20))

	first, err := forest.Train(context.Background(), x, y, 42)
	require.NoError(t, err)
	second, err := forest.Train(context.Background(), x, y, 42)
	require.NoError(t, err)

	require.Equal(t, first.PredictProba(x), second.PredictProba(x))
	fm, sm := first.(*classifier.ForestModel), second.(*classifier.ForestModel)
	require.Equal(t, fm.Importances, sm.Importances)
	require.Equal(t, fm.OOB, sm.OOB)
}

func TestForestOOBProbabilities(t *testing.T) {
	x, y := cohort()
	model, err := classifier.NewForest(classifier.WithTrees(50)).Train(context.Background(), x, y, 7)
	require.NoError(t, err)

	oob := model.(*classifier.ForestModel).OOBProba()
	require.Len(t, oob, len(x))
	for i, p := range oob {
		require.False(t, math.IsNaN(p), "row %d never fell out of bag across 50 trees", i)
		require.GreaterOrEqual(t, p, 0.0)
		require.LessOrEqual(t, p, 1.0)
	}

	var posMean, negMean float64
	for i, p := range oob {
		if y[i] == 1 {
			posMean += p / 4
		} else {
			negMean += p / 4
		}
	}
	require.Greater(t, posMean, negMean, "out-of-bag probabilities should still separate the classes")
}

func TestForestImportancesFavorInformativeFeature(t *testing.T) {
	x, y := cohort()
	model, err := classifier.NewForest(classifier.WithTrees(50)).Train(context.Background(), x, y, 7)
	require.NoError(t, err)

	imp := model.(*classifier.ForestModel).FeatureImportances()
	require.Len(t, imp, 2)
	require.Greater(t, imp[0], imp[1])
	require.Equal(t, 0.0, imp[1], "a constant feature never splits")
}

func TestForestWeightedTraining(t *testing.T) {
	x := [][]float64{{1, 0}, {1, 0}, {1, 0}, {1, 0}}
	y := []int{1, 0, 0, 0}
	forest := classifier.NewForest(classifier.WithTrees(10), classifier.WithBootstrap(false))

	model, err := forest.TrainWeighted(context.Background(), x, y, map[int]float64{1: 4, 0: 4.0 / 3}, 3)
	require.NoError(t, err)
	require.InDelta(t, 0.5, model.PredictProba(x[:1])[0], 1e-12, "inverse-prevalence weights balance the leaf")
}

func TestForestGobRoundTrip(t *testing.T) {
	x, y := cohort()
	forest := classifier.NewForest(classifier.WithTrees(10))
	model, err := forest.Train(context.Background(), x, y, 11)
	require.NoError(t, err)

	data, err := forest.EncodeModel(model)
	require.NoError(t, err)
	restored, err := forest.DecodeModel(data)
	require.NoError(t, err)

	require.Equal(t, model.PredictProba(x), restored.PredictProba(x))
	require.Equal(t,
		model.(*classifier.ForestModel).Importances,
		restored.(*classifier.ForestModel).Importances,
	)
}

func TestForestRespectsContext(t *testing.T) {
	x, y := cohort()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := classifier.NewForest().Train(ctx, x, y, 1)
	require.ErrorIs(t, err, context.Canceled)
}
