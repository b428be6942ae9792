package reporter

import (
	"encoding/json"
	"io"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

type JSONReporter struct {
	Writer  io.Writer
	Pretty  bool
	Compact bool
}

func (r JSONReporter) Report(report *core.Report) error {
	return r.encode(report)
}

func (r JSONReporter) ReportValidation(report *core.ValidationReport) error {
	return r.encode(report)
}

func (r JSONReporter) encode(v any) error {
	encoder := json.NewEncoder(r.Writer)
	if r.Pretty && !r.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
