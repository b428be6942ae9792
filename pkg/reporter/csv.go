package reporter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

type CSVReporter struct {
	Writer io.Writer
}

func (r CSVReporter) Report(report *core.Report) error {
	writer := csv.NewWriter(r.Writer)
	header := append([]string{"repeat"}, metricColumns...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, repeat := range report.Repeats {
		record := append([]string{strconv.Itoa(repeat.Repeat)}, metricValues(repeat.Metrics)...)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	for _, row := range summaryRows(report.Summary) {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (r CSVReporter) ReportValidation(report *core.ValidationReport) error {
	writer := csv.NewWriter(r.Writer)
	header := append([]string{"run", "seed", "threshold"}, metricColumns...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, run := range report.Runs {
		record := append([]string{
			strconv.Itoa(run.Run),
			strconv.FormatInt(run.Seed, 10),
			formatFloat(run.Threshold),
		}, metricValues(run.Metrics)...)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	for _, row := range summaryRows(report.Summary) {
		// Pad the seed and threshold columns; they have no aggregate.
		record := append([]string{row[0], "", ""}, row[1:]...)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
