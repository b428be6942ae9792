package core

import "sort"

// ComputeMetrics derives the metric set from a complete per-repeat
// prediction table. Metrics with a zero denominator are 0 rather than a
// division error; AUC is nil when either class is absent. The computation
// is pure, so repeated calls on the same table yield identical results.
func ComputeMetrics(records []PredictionRecord) MetricSet {
	var m MetricSet
	if len(records) == 0 {
		return m
	}

	correct := 0
	for _, r := range records {
		if r.Predicted == r.TrueLabel {
			correct++
		}
	}
	m.Accuracy = float64(correct) / float64(len(records))

	tp, fp, fn, tn := Confusion(records)
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if tn+fp > 0 {
		m.Specificity = float64(tn) / float64(tn+fp)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if auc, ok := rankSumAUC(records); ok {
		m.AUC = &auc
	}
	return m
}

// Confusion counts true/false positives and negatives relative to the
// positive class.
func Confusion(records []PredictionRecord) (tp, fp, fn, tn int) {
	for _, r := range records {
		switch {
		case r.TrueLabel == 1 && r.Predicted == 1:
			tp++
		case r.TrueLabel == 0 && r.Predicted == 1:
			fp++
		case r.TrueLabel == 1 && r.Predicted == 0:
			fn++
		default:
			tn++
		}
	}
	return tp, fp, fn, tn
}

// ClassCounts tallies the true labels by class.
func ClassCounts(records []PredictionRecord) (pos, neg int) {
	for _, r := range records {
		if r.TrueLabel == 1 {
			pos++
		} else {
			neg++
		}
	}
	return pos, neg
}

// rankSumAUC is the Mann-Whitney rank-sum estimator: all probabilities are
// ranked with average ranks on ties, and
//
//	AUC = (sum of positive ranks - nPos*(nPos+1)/2) / (nPos*nNeg)
//
// It is undefined when either class is absent.
func rankSumAUC(records []PredictionRecord) (float64, bool) {
	pos, neg := ClassCounts(records)
	if pos == 0 || neg == 0 {
		return 0, false
	}

	probs := make([]float64, len(records))
	for i, r := range records {
		probs[i] = r.Probability
	}
	ranks := averageRanks(probs)

	var rankSum float64
	for i, r := range records {
		if r.TrueLabel == 1 {
			rankSum += ranks[i]
		}
	}
	nPos, nNeg := float64(pos), float64(neg)
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg), true
}

// averageRanks assigns 1-based ranks in ascending value order, giving every
// member of a run of equal values the run's average rank.
func averageRanks(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && values[order[j+1]] == values[order[i]] {
			j++
		}
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
