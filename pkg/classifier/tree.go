package classifier

import (
	"context"
	"math/rand"
	"sort"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

// DecisionTree is a CART-style binary classifier. Splits are numeric
// thresholds chosen by weighted Gini gain; leaves carry the weighted
// positive-class fraction as their probability.
type DecisionTree struct {
	maxDepth        int // 0 means unbounded
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means all features
}

// TreeOption configures a DecisionTree.
type TreeOption func(*DecisionTree)

func WithMaxDepth(d int) TreeOption { return func(t *DecisionTree) { t.maxDepth = d } }

func WithMinSamplesSplit(n int) TreeOption { return func(t *DecisionTree) { t.minSamplesSplit = n } }

func WithMinSamplesLeaf(n int) TreeOption { return func(t *DecisionTree) { t.minSamplesLeaf = n } }

func WithMaxFeatures(k int) TreeOption { return func(t *DecisionTree) { t.maxFeatures = k } }

// NewDecisionTree returns a tree classifier with defaults that grow the
// tree until leaves are pure.
func NewDecisionTree(opts ...TreeOption) *DecisionTree {
	t := &DecisionTree{minSamplesSplit: 2, minSamplesLeaf: 1}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *DecisionTree) Name() string { return "tree" }

func (t *DecisionTree) Train(ctx context.Context, x [][]float64, y []int, seed int64) (core.Model, error) {
	return t.TrainWeighted(ctx, x, y, nil, seed)
}

func (t *DecisionTree) TrainWeighted(ctx context.Context, x [][]float64, y []int, weights map[int]float64, seed int64) (core.Model, error) {
	if err := checkTrainingData(x, y); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.fit(x, y, weights, allIndices(len(x)), rand.New(rand.NewSource(seed))), nil
}

// fit grows one tree over the given sample indices. The forest calls this
// directly with bootstrap index sets and a per-tree random stream.
func (t *DecisionTree) fit(x [][]float64, y []int, weights map[int]float64, idx []int, rng *rand.Rand) *TreeModel {
	wPos, wNeg := classWeightPair(weights)
	b := &treeBuilder{
		x:           x,
		y:           y,
		wPos:        wPos,
		wNeg:        wNeg,
		cfg:         *t,
		rng:         rng,
		importances: make([]float64, len(x[0])),
	}
	pos, neg := b.weightedCounts(idx)
	b.totalWeight = pos + neg

	root := b.build(idx, 0, pos, neg)
	return &TreeModel{Root: root, Importances: normalized(b.importances)}
}

// TreeModel is a trained decision tree.
type TreeModel struct {
	Root        *treeNode
	Importances []float64
}

func (m *TreeModel) PredictProba(x [][]float64) []float64 {
	probs := make([]float64, len(x))
	for i, row := range x {
		probs[i] = m.proba(row)
	}
	return probs
}

func (m *TreeModel) Predict(x [][]float64) []int {
	return core.ApplyThreshold(m.PredictProba(x), 0.5)
}

func (m *TreeModel) FeatureImportances() []float64 {
	return append([]float64(nil), m.Importances...)
}

func (m *TreeModel) proba(row []float64) float64 {
	node := m.Root
	for node.Feature >= 0 {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Proba
}

// treeNode fields are exported so trained trees survive a gob round trip
// through the model cache. Feature is -1 at leaves.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      *treeNode
	Right     *treeNode
	Proba     float64
	Samples   int
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	wPos        float64
	wNeg        float64
	cfg         DecisionTree
	rng         *rand.Rand
	importances []float64
	totalWeight float64
}

func (b *treeBuilder) build(idx []int, depth int, pos, neg float64) *treeNode {
	node := &treeNode{Feature: -1, Samples: len(idx), Proba: pos / (pos + neg)}
	if pos == 0 || neg == 0 || len(idx) < b.cfg.minSamplesSplit {
		return node
	}
	if b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth {
		return node
	}

	feature, threshold, gain := b.bestSplit(idx, pos, neg)
	if feature < 0 {
		return node
	}
	b.importances[feature] += (pos + neg) / b.totalWeight * gain

	left, right := b.partition(idx, feature, threshold)
	leftPos, leftNeg := b.weightedCounts(left)
	node.Feature = feature
	node.Threshold = threshold
	node.Left = b.build(left, depth+1, leftPos, leftNeg)
	node.Right = b.build(right, depth+1, pos-leftPos, neg-leftNeg)
	return node
}

// bestSplit scans midpoint thresholds between adjacent distinct values of
// each candidate feature and keeps the first split with the highest
// weighted Gini gain. Returns feature -1 when no split improves impurity.
func (b *treeBuilder) bestSplit(idx []int, pos, neg float64) (int, float64, float64) {
	parent := gini(pos, neg)
	total := pos + neg
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	type pair struct {
		v float64
		i int
	}
	pairs := make([]pair, len(idx))

	for _, f := range b.candidateFeatures() {
		for k, i := range idx {
			pairs[k] = pair{v: b.x[i][f], i: i}
		}
		sort.Slice(pairs, func(a, c int) bool { return pairs[a].v < pairs[c].v })

		var leftPos, leftNeg float64
		for s := 1; s < len(pairs); s++ {
			if b.y[pairs[s-1].i] == 1 {
				leftPos += b.wPos
			} else {
				leftNeg += b.wNeg
			}
			if pairs[s].v == pairs[s-1].v {
				continue
			}
			if s < b.cfg.minSamplesLeaf || len(pairs)-s < b.cfg.minSamplesLeaf {
				continue
			}

			leftTotal := leftPos + leftNeg
			rightTotal := total - leftTotal
			weighted := leftTotal/total*gini(leftPos, leftNeg) + rightTotal/total*gini(pos-leftPos, neg-leftNeg)
			if gain := parent - weighted; gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (pairs[s-1].v + pairs[s].v) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

// candidateFeatures returns all feature indices, or a random subset of
// maxFeatures of them drawn from the tree's stream.
func (b *treeBuilder) candidateFeatures() []int {
	p := len(b.x[0])
	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	if b.cfg.maxFeatures <= 0 || b.cfg.maxFeatures >= p {
		return features
	}
	for i := 0; i < b.cfg.maxFeatures; i++ {
		j := i + b.rng.Intn(p-i)
		features[i], features[j] = features[j], features[i]
	}
	return features[:b.cfg.maxFeatures]
}

func (b *treeBuilder) partition(idx []int, feature int, threshold float64) (left, right []int) {
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func (b *treeBuilder) weightedCounts(idx []int) (pos, neg float64) {
	for _, i := range idx {
		if b.y[i] == 1 {
			pos += b.wPos
		} else {
			neg += b.wNeg
		}
	}
	return pos, neg
}

func gini(pos, neg float64) float64 {
	total := pos + neg
	if total == 0 {
		return 0
	}
	pp := pos / total
	pn := neg / total
	return 1 - pp*pp - pn*pn
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func normalized(values []float64) []float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	out := make([]float64, len(values))
	if sum == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / sum
	}
	return out
}
