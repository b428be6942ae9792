package reporter

import (
	"fmt"
	"io"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

type MarkdownReporter struct {
	Writer io.Writer
}

func (r MarkdownReporter) Report(report *core.Report) error {
	if _, err := fmt.Fprintf(r.Writer, "# %s - Repeated LOOCV\n\n", report.Study); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.Writer, "- Dataset: %s (%d samples)\n- Classifier: %s\n- Positive level: %s (vs %s)\n- Repeats: %d\n\n",
		report.Dataset, report.Samples, report.Classifier, report.Positive, report.Negative, len(report.Repeats)); err != nil {
		return err
	}

	if err := r.summary(report.Summary); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(r.Writer, "\n## Repeats\n\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.Writer, "| Repeat | Accuracy | Precision | Recall | Specificity | F1 | AUC |\n|---|---|---|---|---|---|---|\n"); err != nil {
		return err
	}
	for _, repeat := range report.Repeats {
		cells := metricValues(repeat.Metrics)
		if _, err := fmt.Fprintf(r.Writer, "| %d | %s | %s | %s | %s | %s | %s |\n",
			repeat.Repeat, cells[0], cells[1], cells[2], cells[3], cells[4], cells[5]); err != nil {
			return err
		}
	}

	if report.MeanROC.Curves > 0 {
		if _, err := fmt.Fprintf(r.Writer, "\nMean ROC over %d repeats, grid AUC %.4f\n",
			report.MeanROC.Curves, report.MeanROC.GridAUC); err != nil {
			return err
		}
	}
	return nil
}

func (r MarkdownReporter) ReportValidation(report *core.ValidationReport) error {
	if _, err := fmt.Fprintf(r.Writer, "# %s - Holdout Validation\n\n", report.Study); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.Writer, "- Train set: %s\n- Holdout set: %s\n- Classifier: %s\n- Positive level: %s (vs %s)\n- Runs: %d\n- Class weighting: %t\n\n",
		report.TrainSet, report.HoldoutSet, report.Classifier, report.Positive, report.Negative, len(report.Runs), report.Weighted); err != nil {
		return err
	}

	if err := r.summary(report.Summary); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(r.Writer, "\n## Runs\n\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(r.Writer, "| Run | Seed | Threshold | Accuracy | Precision | Recall | Specificity | F1 | AUC |\n|---|---|---|---|---|---|---|---|---|\n"); err != nil {
		return err
	}
	for _, run := range report.Runs {
		cells := metricValues(run.Metrics)
		if _, err := fmt.Fprintf(r.Writer, "| %d | %d | %s | %s | %s | %s | %s | %s | %s |\n",
			run.Run, run.Seed, formatFloat(run.Threshold),
			cells[0], cells[1], cells[2], cells[3], cells[4], cells[5]); err != nil {
			return err
		}
	}

	if len(report.Importances) > 0 {
		if _, err := fmt.Fprintf(r.Writer, "\n## Feature Importances\n\n| Feature | Importance |\n|---|---|\n"); err != nil {
			return err
		}
		for _, fi := range report.Importances {
			if _, err := fmt.Fprintf(r.Writer, "| %s | %s |\n", fi.Feature, formatFloat(fi.Importance)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r MarkdownReporter) summary(s core.Summary) error {
	if _, err := fmt.Fprintf(r.Writer, "## Summary\n\n| Metric | Mean | SD |\n|---|---|---|\n"); err != nil {
		return err
	}
	rows := []struct {
		name string
		m    core.MeanSD
	}{
		{"Accuracy", s.Accuracy},
		{"Precision", s.Precision},
		{"Recall", s.Recall},
		{"Specificity", s.Specificity},
		{"F1", s.F1},
		{"AUC", s.AUC},
	}
	for _, row := range rows {
		mean, sd := formatFloat(row.m.Mean), formatFloat(row.m.SD)
		if row.m.N == 0 {
			mean, sd = "n/a", "n/a"
		}
		if _, err := fmt.Fprintf(r.Writer, "| %s | %s | %s |\n", row.name, mean, sd); err != nil {
			return err
		}
	}
	return nil
}
