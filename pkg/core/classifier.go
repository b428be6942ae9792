package core

import "context"

// Classifier trains models for a binary target. Training must be
// deterministic given the seed: the same inputs and seed produce the same
// model.
type Classifier interface {
	Name() string
	Train(ctx context.Context, x [][]float64, y []int, seed int64) (Model, error)
}

// Model scores feature rows. PredictProba returns the positive-class
// probability per row, in [0,1].
type Model interface {
	Predict(x [][]float64) []int
	PredictProba(x [][]float64) []float64
}

// WeightedTrainer is implemented by classifiers that accept per-class
// weights during training.
type WeightedTrainer interface {
	TrainWeighted(ctx context.Context, x [][]float64, y []int, weights map[int]float64, seed int64) (Model, error)
}

// OOBProber is implemented by models that expose out-of-bag probabilities
// for their training rows. Rows that were never out of bag are math.NaN.
type OOBProber interface {
	OOBProba() []float64
}

// FeatureRanker is implemented by models that expose per-feature importance
// scores, aligned with the training feature order.
type FeatureRanker interface {
	FeatureImportances() []float64
}
