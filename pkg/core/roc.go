package core

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// DefaultGridPoints is the size of the shared FPR grid that per-repeat
// curves are averaged on.
const DefaultGridPoints = 100

// ApplyThreshold maps probabilities to predicted labels: positive when the
// probability is at or above the threshold.
func ApplyThreshold(probs []float64, threshold float64) []int {
	labels := make([]int, len(probs))
	for i, p := range probs {
		if p >= threshold {
			labels[i] = 1
		}
	}
	return labels
}

// ComputeROC sweeps the decision threshold over every distinct predicted
// probability in descending order and records the (FPR, TPR) operating
// point each threshold produces, anchored at (0,0) with a threshold just
// above the highest probability. Returns nil when the records lack one of
// the two classes, leaving the curve undefined.
func ComputeROC(records []PredictionRecord) ROCCurve {
	pos, neg := ClassCounts(records)
	if pos == 0 || neg == 0 {
		return nil
	}

	sorted := make([]PredictionRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].Probability > sorted[b].Probability })

	nPos, nNeg := float64(pos), float64(neg)
	curve := ROCCurve{{FPR: 0, TPR: 0, Threshold: sorted[0].Probability + 1}}

	tp, fp := 0, 0
	for i := 0; i < len(sorted); {
		t := sorted[i].Probability
		for i < len(sorted) && sorted[i].Probability == t {
			if sorted[i].TrueLabel == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		curve = append(curve, ROCPoint{
			FPR:       float64(fp) / nNeg,
			TPR:       float64(tp) / nPos,
			Threshold: t,
		})
	}
	return curve
}

// DefaultFPRGrid spans [0,1] with n evenly spaced points.
func DefaultFPRGrid(n int) []float64 {
	if n < 2 {
		n = 2
	}
	return floats.Span(make([]float64, n), 0, 1)
}

// Resample linearly interpolates the curve's TPR onto the given FPR grid.
// Points sharing an FPR are averaged before interpolating, and grid values
// outside the curve's FPR range clamp to the nearest defined endpoint.
func (c ROCCurve) Resample(grid []float64) []float64 {
	if len(c) == 0 || len(grid) == 0 {
		return nil
	}
	xs, ys := dedupeByFPR(c)
	out := make([]float64, len(grid))
	for i, g := range grid {
		out[i] = interpolate(xs, ys, g)
	}
	return out
}

// AverageROC resamples every defined curve onto the grid and averages the
// TPR pointwise, ignoring repeats whose curve is undefined. GridAUC is the
// trapezoidal area under the averaged curve.
func AverageROC(curves []ROCCurve, grid []float64) AveragedROC {
	avg := AveragedROC{FPR: append([]float64(nil), grid...)}
	sum := make([]float64, len(grid))
	for _, c := range curves {
		if c == nil {
			continue
		}
		floats.Add(sum, c.Resample(grid))
		avg.Curves++
	}
	if avg.Curves == 0 {
		return avg
	}
	floats.Scale(1/float64(avg.Curves), sum)
	avg.TPR = sum
	avg.GridAUC = integrate.Trapezoidal(grid, sum)
	return avg
}

// YoudenThreshold picks the threshold maximizing J = TPR - FPR, which is
// sensitivity + specificity - 1. Ties break deterministically to the first
// maximizer in ascending-FPR order.
func YoudenThreshold(curve ROCCurve) (float64, error) {
	if len(curve) == 0 {
		return 0, errors.New("youden: roc curve is empty")
	}
	best := 0
	bestJ := curve[0].TPR - curve[0].FPR
	for i, p := range curve[1:] {
		if j := p.TPR - p.FPR; j > bestJ {
			bestJ = j
			best = i + 1
		}
	}
	return curve[best].Threshold, nil
}

func dedupeByFPR(c ROCCurve) (xs, ys []float64) {
	pts := make(ROCCurve, len(c))
	copy(pts, c)
	sort.SliceStable(pts, func(a, b int) bool { return pts[a].FPR < pts[b].FPR })

	for i := 0; i < len(pts); {
		j := i
		sum := 0.0
		for j < len(pts) && pts[j].FPR == pts[i].FPR {
			sum += pts[j].TPR
			j++
		}
		xs = append(xs, pts[i].FPR)
		ys = append(ys, sum/float64(j-i))
		i = j
	}
	return xs, ys
}

func interpolate(xs, ys []float64, x float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	last := len(xs) - 1
	if x >= xs[last] {
		return ys[last]
	}
	hi := sort.SearchFloat64s(xs, x)
	if xs[hi] == x {
		return ys[hi]
	}
	lo := hi - 1
	w := (x - xs[lo]) / (xs[hi] - xs[lo])
	return ys[lo]*(1-w) + ys[hi]*w
}
