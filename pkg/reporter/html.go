package reporter

import (
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

type HTMLReporter struct {
	Writer io.Writer
	Title  string
}

type htmlMeta struct {
	Label string
	Value string
}

type htmlTable struct {
	Caption string
	Header  []string
	Rows    [][]string
}

type htmlPage struct {
	Title  string
	Meta   []htmlMeta
	Tables []htmlTable
	Note   string
}

func (r HTMLReporter) Report(report *core.Report) error {
	title := r.Title
	if title == "" {
		title = fmt.Sprintf("%s - Repeated LOOCV", report.Study)
	}

	repeatRows := make([][]string, 0, len(report.Repeats))
	for _, repeat := range report.Repeats {
		row := append([]string{strconv.Itoa(repeat.Repeat)}, metricValues(repeat.Metrics)...)
		repeatRows = append(repeatRows, row)
	}

	page := htmlPage{
		Title: title,
		Meta: []htmlMeta{
			{Label: "Dataset", Value: fmt.Sprintf("%s (%d samples)", report.Dataset, report.Samples)},
			{Label: "Classifier", Value: report.Classifier},
			{Label: "Positive level", Value: fmt.Sprintf("%s (vs %s)", report.Positive, report.Negative)},
			{Label: "Repeats", Value: strconv.Itoa(len(report.Repeats))},
		},
		Tables: []htmlTable{
			{Caption: "Summary", Header: append([]string{""}, metricColumns...), Rows: summaryRows(report.Summary)},
			{Caption: "Repeats", Header: append([]string{"repeat"}, metricColumns...), Rows: repeatRows},
		},
	}
	if report.MeanROC.Curves > 0 {
		page.Note = fmt.Sprintf("Mean ROC over %d repeats, grid AUC %.4f", report.MeanROC.Curves, report.MeanROC.GridAUC)
	}
	return renderHTML(r.Writer, page)
}

func (r HTMLReporter) ReportValidation(report *core.ValidationReport) error {
	title := r.Title
	if title == "" {
		title = fmt.Sprintf("%s - Holdout Validation", report.Study)
	}

	runRows := make([][]string, 0, len(report.Runs))
	for _, run := range report.Runs {
		row := []string{strconv.Itoa(run.Run), strconv.FormatInt(run.Seed, 10), formatFloat(run.Threshold)}
		runRows = append(runRows, append(row, metricValues(run.Metrics)...))
	}

	page := htmlPage{
		Title: title,
		Meta: []htmlMeta{
			{Label: "Train set", Value: report.TrainSet},
			{Label: "Holdout set", Value: report.HoldoutSet},
			{Label: "Classifier", Value: report.Classifier},
			{Label: "Positive level", Value: fmt.Sprintf("%s (vs %s)", report.Positive, report.Negative)},
			{Label: "Class weighting", Value: strconv.FormatBool(report.Weighted)},
		},
		Tables: []htmlTable{
			{Caption: "Summary", Header: append([]string{""}, metricColumns...), Rows: summaryRows(report.Summary)},
			{Caption: "Runs", Header: append([]string{"run", "seed", "threshold"}, metricColumns...), Rows: runRows},
		},
	}
	if len(report.Importances) > 0 {
		rows := make([][]string, 0, len(report.Importances))
		for _, imp := range report.Importances {
			rows = append(rows, []string{imp.Feature, formatFloat(imp.Importance)})
		}
		page.Tables = append(page.Tables, htmlTable{
			Caption: "Feature Importances",
			Header:  []string{"feature", "importance"},
			Rows:    rows,
		})
	}
	return renderHTML(r.Writer, page)
}

func renderHTML(w io.Writer, page htmlPage) error {
	tpl := template.Must(template.New("report").Parse(htmlTemplate))
	return tpl.Execute(w, page)
}

const htmlTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{ .Title }}</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 24px; }
    table { border-collapse: collapse; width: 100%; margin-top: 16px; }
    th, td { border: 1px solid #ddd; padding: 8px; }
    th { background: #f5f5f5; text-align: left; }
    .meta { margin-bottom: 12px; }
  </style>
</head>
<body>
  <h1>{{ .Title }}</h1>
  <div class="meta">
    {{ range .Meta }}<div><strong>{{ .Label }}:</strong> {{ .Value }}</div>
    {{ end }}
  </div>
  {{ range .Tables }}
  <h2>{{ .Caption }}</h2>
  <table>
    <tr>{{ range .Header }}<th>{{ . }}</th>{{ end }}</tr>
    {{ range .Rows }}
    <tr>{{ range . }}<td>{{ . }}</td>{{ end }}</tr>
    {{ end }}
  </table>
  {{ end }}
  {{ if .Note }}<p>{{ .Note }}</p>{{ end }}
</body>
</html>
`
