package core

import "gonum.org/v1/gonum/stat"

// Summarize reduces per-repeat metric sets to mean and sample standard
// deviation per metric. Repeats with an undefined AUC are left out of the
// AUC aggregate, so its N can be smaller than the number of repeats.
func Summarize(sets []MetricSet) Summary {
	var acc, prec, rec, spec, f1, auc []float64
	for _, m := range sets {
		acc = append(acc, m.Accuracy)
		prec = append(prec, m.Precision)
		rec = append(rec, m.Recall)
		spec = append(spec, m.Specificity)
		f1 = append(f1, m.F1)
		if m.AUC != nil {
			auc = append(auc, *m.AUC)
		}
	}
	return Summary{
		Accuracy:    meanSD(acc),
		Precision:   meanSD(prec),
		Recall:      meanSD(rec),
		Specificity: meanSD(spec),
		F1:          meanSD(f1),
		AUC:         meanSD(auc),
	}
}

// meanSD computes the mean and sample (N-1) standard deviation. A single
// observation has zero spread rather than the NaN gonum would report.
func meanSD(xs []float64) MeanSD {
	if len(xs) == 0 {
		return MeanSD{}
	}
	m := MeanSD{Mean: stat.Mean(xs, nil), N: len(xs)}
	if len(xs) > 1 {
		m.SD = stat.StdDev(xs, nil)
	}
	return m
}
