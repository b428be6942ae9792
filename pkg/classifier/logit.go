package classifier

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

// Logistic is an L2-regularized logistic regression trained by full-batch
// gradient descent on standardized features. Optimization starts from zero
// weights, so training is deterministic and the seed is unused.
type Logistic struct {
	epochs int
	rate   float64
	l2     float64
}

// LogisticOption configures a Logistic.
type LogisticOption func(*Logistic)

func WithEpochs(n int) LogisticOption { return func(l *Logistic) { l.epochs = n } }

func WithLearningRate(a float64) LogisticOption { return func(l *Logistic) { l.rate = a } }

func WithL2(lambda float64) LogisticOption { return func(l *Logistic) { l.l2 = lambda } }

func NewLogistic(opts ...LogisticOption) *Logistic {
	l := &Logistic{epochs: 500, rate: 0.1, l2: 1e-4}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Logistic) Name() string { return "logit" }

func (l *Logistic) Train(ctx context.Context, x [][]float64, y []int, seed int64) (core.Model, error) {
	return l.TrainWeighted(ctx, x, y, nil, seed)
}

func (l *Logistic) TrainWeighted(ctx context.Context, x [][]float64, y []int, weights map[int]float64, _ int64) (core.Model, error) {
	if err := checkTrainingData(x, y); err != nil {
		return nil, err
	}
	wPos, wNeg := classWeightPair(weights)

	n, p := len(x), len(x[0])
	mean := make([]float64, p)
	scale := make([]float64, p)
	column := make([]float64, n)
	for j := 0; j < p; j++ {
		for i, row := range x {
			column[i] = row[j]
		}
		mean[j] = stat.Mean(column, nil)
		scale[j] = stat.StdDev(column, nil)
		if scale[j] == 0 || math.IsNaN(scale[j]) {
			scale[j] = 1
		}
	}

	z := make([][]float64, n)
	for i, row := range x {
		z[i] = make([]float64, p)
		for j, v := range row {
			z[i][j] = (v - mean[j]) / scale[j]
		}
	}

	w := make([]float64, p)
	var bias float64
	grad := make([]float64, p)
	for epoch := 0; epoch < l.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := range grad {
			grad[j] = 0
		}
		var gradBias float64
		for i, row := range z {
			sw := wNeg
			if y[i] == 1 {
				sw = wPos
			}
			d := sw * (sigmoid(floats.Dot(w, row)+bias) - float64(y[i]))
			floats.AddScaled(grad, d, row)
			gradBias += d
		}
		for j := range w {
			w[j] -= l.rate * (grad[j]/float64(n) + l.l2*w[j])
		}
		bias -= l.rate * gradBias / float64(n)
	}

	return &LogisticModel{Weights: w, Bias: bias, Mean: mean, Scale: scale}, nil
}

// LogisticModel is a trained logistic regression over standardized inputs.
type LogisticModel struct {
	Weights []float64
	Bias    float64
	Mean    []float64
	Scale   []float64
}

func (m *LogisticModel) PredictProba(x [][]float64) []float64 {
	probs := make([]float64, len(x))
	row := make([]float64, len(m.Weights))
	for i, raw := range x {
		for j, v := range raw {
			row[j] = (v - m.Mean[j]) / m.Scale[j]
		}
		probs[i] = sigmoid(floats.Dot(m.Weights, row) + m.Bias)
	}
	return probs
}

func (m *LogisticModel) Predict(x [][]float64) []int {
	return core.ApplyThreshold(m.PredictProba(x), 0.5)
}

// FeatureImportances ranks features by the magnitude of their standardized
// coefficients.
func (m *LogisticModel) FeatureImportances() []float64 {
	abs := make([]float64, len(m.Weights))
	for j, w := range m.Weights {
		abs[j] = math.Abs(w)
	}
	return normalized(abs)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
