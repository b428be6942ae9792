package reporter

import (
	"fmt"
	"io"

	"github.com/ahad1361/proteoimic-validation/pkg/core"

	"github.com/olekukonko/tablewriter"
)

type TableReporter struct {
	Writer io.Writer
}

func (r TableReporter) Report(report *core.Report) error {
	fmt.Fprintf(r.Writer, "%s: %s, %d samples, classifier %s\n",
		report.Study, report.Dataset, report.Samples, report.Classifier)

	table := tablewriter.NewWriter(r.Writer)
	table.Header(append([]string{"Repeat"}, metricColumns...))
	for _, repeat := range report.Repeats {
		table.Append(append([]string{fmt.Sprintf("%d", repeat.Repeat)}, metricValues(repeat.Metrics)...))
	}
	for _, row := range summaryRows(report.Summary) {
		table.Append(row)
	}
	table.Render()

	if report.MeanROC.Curves > 0 {
		fmt.Fprintf(r.Writer, "Mean ROC over %d repeats, grid AUC %.4f\n",
			report.MeanROC.Curves, report.MeanROC.GridAUC)
	}
	return nil
}

func (r TableReporter) ReportValidation(report *core.ValidationReport) error {
	fmt.Fprintf(r.Writer, "%s: train %s, holdout %s, classifier %s\n",
		report.Study, report.TrainSet, report.HoldoutSet, report.Classifier)

	table := tablewriter.NewWriter(r.Writer)
	table.Header(append([]string{"Run", "Seed", "Threshold"}, metricColumns...))
	for _, run := range report.Runs {
		table.Append(append([]string{
			fmt.Sprintf("%d", run.Run),
			fmt.Sprintf("%d", run.Seed),
			formatFloat(run.Threshold),
		}, metricValues(run.Metrics)...))
	}
	for _, row := range summaryRows(report.Summary) {
		table.Append(append([]string{row[0], "", ""}, row[1:]...))
	}
	table.Render()

	if len(report.Importances) > 0 {
		imp := tablewriter.NewWriter(r.Writer)
		imp.Header([]string{"Feature", "Importance"})
		for _, fi := range report.Importances {
			imp.Append([]string{fi.Feature, formatFloat(fi.Importance)})
		}
		imp.Render()
	}
	return nil
}
