// Package reporter renders evaluation and validation reports.
package reporter

import (
	"strconv"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

// Reporter writes a repeated-LOOCV report.
type Reporter interface {
	Report(report *core.Report) error
}

// ValidationReporter writes a holdout validation report.
type ValidationReporter interface {
	ReportValidation(report *core.ValidationReport) error
}

const (
	FormatJSON     = "json"
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatHTML     = "html"
)

// metricColumns is the canonical column order for metric tables.
var metricColumns = []string{"accuracy", "precision", "recall", "specificity", "f1", "auc"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// formatAUC renders a missing AUC as an empty cell.
func formatAUC(auc *float64) string {
	if auc == nil {
		return ""
	}
	return formatFloat(*auc)
}

func metricValues(m core.MetricSet) []string {
	return []string{
		formatFloat(m.Accuracy),
		formatFloat(m.Precision),
		formatFloat(m.Recall),
		formatFloat(m.Specificity),
		formatFloat(m.F1),
		formatAUC(m.AUC),
	}
}

// summaryRows renders the mean and sd rows of a summary. The AUC cells stay
// empty when no repeat produced a defined AUC.
func summaryRows(s core.Summary) [][]string {
	auc := func(v float64) string {
		if s.AUC.N == 0 {
			return ""
		}
		return formatFloat(v)
	}
	return [][]string{
		{
			"mean",
			formatFloat(s.Accuracy.Mean),
			formatFloat(s.Precision.Mean),
			formatFloat(s.Recall.Mean),
			formatFloat(s.Specificity.Mean),
			formatFloat(s.F1.Mean),
			auc(s.AUC.Mean),
		},
		{
			"sd",
			formatFloat(s.Accuracy.SD),
			formatFloat(s.Precision.SD),
			formatFloat(s.Recall.SD),
			formatFloat(s.Specificity.SD),
			formatFloat(s.F1.SD),
			auc(s.AUC.SD),
		},
	}
}

// labelName maps a binary label back to its level name.
func labelName(positive, negative string, label int) string {
	if label == 1 {
		return positive
	}
	return negative
}
