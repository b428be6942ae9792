package classifier

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

// Forest is a bagged ensemble of decision trees. Tree t of a model trained
// with seed s draws its bootstrap sample and feature subsets from stream
// s+t, so a forest is reproducible from its seed alone. Out-of-bag
// probabilities are tracked during training for threshold selection.
type Forest struct {
	trees     int
	bootstrap bool
	treeOpts  []TreeOption
}

// ForestOption configures a Forest.
type ForestOption func(*Forest)

func WithTrees(n int) ForestOption { return func(f *Forest) { f.trees = n } }

func WithBootstrap(b bool) ForestOption { return func(f *Forest) { f.bootstrap = b } }

func WithTreeOptions(opts ...TreeOption) ForestOption {
	return func(f *Forest) { f.treeOpts = append(f.treeOpts, opts...) }
}

// NewForest returns a forest of 500 bootstrap-sampled trees, each drawing
// sqrt(p) candidate features per split unless overridden.
func NewForest(opts ...ForestOption) *Forest {
	f := &Forest{trees: 500, bootstrap: true}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Forest) Name() string { return "forest" }

func (f *Forest) Train(ctx context.Context, x [][]float64, y []int, seed int64) (core.Model, error) {
	return f.TrainWeighted(ctx, x, y, nil, seed)
}

func (f *Forest) TrainWeighted(ctx context.Context, x [][]float64, y []int, weights map[int]float64, seed int64) (core.Model, error) {
	if err := checkTrainingData(x, y); err != nil {
		return nil, err
	}
	if f.trees <= 0 {
		return nil, fmt.Errorf("forest: tree count must be positive, got %d", f.trees)
	}

	proto := NewDecisionTree(f.treeOpts...)
	if proto.maxFeatures == 0 {
		proto.maxFeatures = int(math.Sqrt(float64(len(x[0])))) // randomForest's mtry default
		if proto.maxFeatures < 1 {
			proto.maxFeatures = 1
		}
	}

	n := len(x)
	model := &ForestModel{
		Trees:       make([]*TreeModel, 0, f.trees),
		Importances: make([]float64, len(x[0])),
	}
	oobSum := make([]float64, n)
	oobCount := make([]int, n)
	inBag := make([]bool, n)

	for t := 0; t < f.trees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng := rand.New(rand.NewSource(seed + int64(t)))

		idx := make([]int, n)
		for i := range inBag {
			inBag[i] = false
		}
		for j := 0; j < n; j++ {
			if f.bootstrap {
				idx[j] = rng.Intn(n)
			} else {
				idx[j] = j
			}
			inBag[idx[j]] = true
		}

		tree := proto.fit(x, y, weights, idx, rng)
		model.Trees = append(model.Trees, tree)
		for j, imp := range tree.Importances {
			model.Importances[j] += imp
		}

		for i := 0; i < n; i++ {
			if inBag[i] {
				continue
			}
			oobSum[i] += tree.proba(x[i])
			oobCount[i]++
		}
	}

	for j := range model.Importances {
		model.Importances[j] /= float64(f.trees)
	}

	model.OOB = make([]float64, n)
	for i := 0; i < n; i++ {
		if oobCount[i] == 0 {
			model.OOB[i] = math.NaN()
			continue
		}
		model.OOB[i] = oobSum[i] / float64(oobCount[i])
	}
	return model, nil
}

// EncodeModel serializes a trained forest for the model cache.
func (f *Forest) EncodeModel(model core.Model) ([]byte, error) {
	fm, ok := model.(*ForestModel)
	if !ok {
		return nil, fmt.Errorf("forest: cannot encode model of type %T", model)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(fm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeModel restores a forest serialized by EncodeModel.
func (f *Forest) DecodeModel(data []byte) (core.Model, error) {
	var fm ForestModel
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&fm); err != nil {
		return nil, err
	}
	return &fm, nil
}

// ForestModel is a trained forest. Its probability for a row is the mean of
// the per-tree leaf probabilities.
type ForestModel struct {
	Trees       []*TreeModel
	OOB         []float64
	Importances []float64
}

func (m *ForestModel) PredictProba(x [][]float64) []float64 {
	probs := make([]float64, len(x))
	for i, row := range x {
		var sum float64
		for _, tree := range m.Trees {
			sum += tree.proba(row)
		}
		probs[i] = sum / float64(len(m.Trees))
	}
	return probs
}

func (m *ForestModel) Predict(x [][]float64) []int {
	return core.ApplyThreshold(m.PredictProba(x), 0.5)
}

// OOBProba returns the mean probability each training row received from
// the trees whose bootstrap sample excluded it. Rows that every tree saw
// are NaN.
func (m *ForestModel) OOBProba() []float64 {
	return append([]float64(nil), m.OOB...)
}

func (m *ForestModel) FeatureImportances() []float64 {
	return append([]float64(nil), m.Importances...)
}
