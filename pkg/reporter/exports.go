package reporter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

// WritePredictions exports one row per held-out prediction across repeats.
func WritePredictions(w io.Writer, report *core.Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"repeat", "id", "true", "predicted", "probability"}); err != nil {
		return err
	}
	for _, repeat := range report.Repeats {
		for _, p := range repeat.Predictions {
			record := []string{
				strconv.Itoa(repeat.Repeat),
				p.ID,
				labelName(report.Positive, report.Negative, p.TrueLabel),
				labelName(report.Positive, report.Negative, p.Predicted),
				strconv.FormatFloat(p.Probability, 'f', 6, 64),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteValidationPredictions exports one row per holdout prediction across runs.
func WriteValidationPredictions(w io.Writer, report *core.ValidationReport) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"run", "id", "true", "predicted", "probability"}); err != nil {
		return err
	}
	for _, run := range report.Runs {
		for _, p := range run.Predictions {
			record := []string{
				strconv.Itoa(run.Run),
				p.ID,
				labelName(report.Positive, report.Negative, p.TrueLabel),
				labelName(report.Positive, report.Negative, p.Predicted),
				strconv.FormatFloat(p.Probability, 'f', 6, 64),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteImportances exports mean feature importances, highest first.
func WriteImportances(w io.Writer, importances []core.FeatureImportance) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"feature", "importance"}); err != nil {
		return err
	}
	for _, fi := range importances {
		record := []string{fi.Feature, strconv.FormatFloat(fi.Importance, 'f', 6, 64)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteROC exports the averaged ROC curve as (grid FPR, mean TPR) rows.
func WriteROC(w io.Writer, roc core.AveragedROC) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"fpr", "mean_tpr"}); err != nil {
		return err
	}
	for i := range roc.TPR {
		record := []string{
			strconv.FormatFloat(roc.FPR[i], 'f', 6, 64),
			strconv.FormatFloat(roc.TPR[i], 'f', 6, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
