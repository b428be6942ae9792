package classifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahad1361/proteoimic-validation/pkg/cache"
	"github.com/ahad1361/proteoimic-validation/pkg/classifier"
	"github.com/ahad1361/proteoimic-validation/pkg/core"

	"github.com/stretchr/testify/require"
)

// countingForest counts training calls so tests can tell a cache hit from
// a retrain. Encoding and decoding stay with the embedded forest.
type countingForest struct {
	*classifier.Forest
	trains int
}

func (c *countingForest) Train(ctx context.Context, x [][]float64, y []int, seed int64) (core.Model, error) {
	c.trains++
	return c.Forest.Train(ctx, x, y, seed)
}

func (c *countingForest) TrainWeighted(ctx context.Context, x [][]float64, y []int, weights map[int]float64, seed int64) (core.Model, error) {
	c.trains++
	return c.Forest.TrainWeighted(ctx, x, y, weights, seed)
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)
	return c
}

func TestCachedSkipsRetraining(t *testing.T) {
	x, y := separable()
	forest := &countingForest{Forest: classifier.NewForest(classifier.WithTrees(5))}
	cached := classifier.Cached{Classifier: forest, Cache: newTestCache(t)}

	first, err := cached.Train(context.Background(), x, y, 3)
	require.NoError(t, err)
	require.Equal(t, 1, forest.trains)

	second, err := cached.Train(context.Background(), x, y, 3)
	require.NoError(t, err)
	require.Equal(t, 1, forest.trains, "identical call must come from the cache")
	require.Equal(t, first.PredictProba(x), second.PredictProba(x))

	_, err = cached.Train(context.Background(), x, y, 4)
	require.NoError(t, err)
	require.Equal(t, 2, forest.trains, "a new seed is a new model")
}

func TestCachedWeightedFingerprintIncludesWeights(t *testing.T) {
	x, y := separable()
	forest := &countingForest{Forest: classifier.NewForest(classifier.WithTrees(5))}
	cached := classifier.Cached{Classifier: forest, Cache: newTestCache(t)}

	_, err := cached.TrainWeighted(context.Background(), x, y, map[int]float64{1: 2, 0: 1}, 3)
	require.NoError(t, err)
	_, err = cached.TrainWeighted(context.Background(), x, y, map[int]float64{1: 2, 0: 1}, 3)
	require.NoError(t, err)
	require.Equal(t, 1, forest.trains)

	_, err = cached.TrainWeighted(context.Background(), x, y, map[int]float64{1: 3, 0: 1}, 3)
	require.NoError(t, err)
	require.Equal(t, 2, forest.trains, "different weights must not share a cache entry")
}

func TestCachedWithoutCacheAlwaysTrains(t *testing.T) {
	x, y := separable()
	forest := &countingForest{Forest: classifier.NewForest(classifier.WithTrees(5))}
	cached := classifier.Cached{Classifier: forest}

	for i := 0; i < 2; i++ {
		_, err := cached.Train(context.Background(), x, y, 3)
		require.NoError(t, err)
	}
	require.Equal(t, 2, forest.trains)
}

// countingLogit has no model codec, so the cache cannot serve it and every
// call must train.
type countingLogit struct {
	*classifier.Logistic
	trains int
}

func (c *countingLogit) Train(ctx context.Context, x [][]float64, y []int, seed int64) (core.Model, error) {
	c.trains++
	return c.Logistic.Train(ctx, x, y, seed)
}

func TestCachedPassesThroughNonSerializableClassifier(t *testing.T) {
	x, y := separable()
	logit := &countingLogit{Logistic: classifier.NewLogistic(classifier.WithEpochs(50))}
	cached := classifier.Cached{Classifier: logit, Cache: newTestCache(t)}

	for i := 0; i < 2; i++ {
		_, err := cached.Train(context.Background(), x, y, 3)
		require.NoError(t, err)
	}
	require.Equal(t, 2, logit.trains)
}

type plainClassifier struct{}

func (plainClassifier) Name() string { return "plain" }

func (plainClassifier) Train(context.Context, [][]float64, []int, int64) (core.Model, error) {
	return nil, errors.New("not implemented")
}

func TestCachedWeightedRequiresWeightedTrainer(t *testing.T) {
	cached := classifier.Cached{Classifier: plainClassifier{}, Cache: newTestCache(t)}
	x, y := separable()

	_, err := cached.TrainWeighted(context.Background(), x, y, map[int]float64{1: 2, 0: 1}, 3)
	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
