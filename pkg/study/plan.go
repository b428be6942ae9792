// Package study parses declarative study plans. Biomarker panels run to
// dozens of feature columns, which is more than belongs on a command line,
// so full studies are described in a YAML file instead.
package study

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ahad1361/proteoimic-validation/pkg/classifier"
	"github.com/ahad1361/proteoimic-validation/pkg/core"

	"gopkg.in/yaml.v3"
)

// Plan describes one study: the cohort, the columns, the classifier, and
// how many repeats to run. Zero values defer to command-line flags and
// engine defaults.
type Plan struct {
	Study      string            `yaml:"study"`
	Dataset    string            `yaml:"dataset"`
	Target     string            `yaml:"target"`
	Positive   string            `yaml:"positive"`
	ID         string            `yaml:"id,omitempty"`
	Features   []string          `yaml:"features,omitempty"`
	Repeats    int               `yaml:"repeats,omitempty"`
	Workers    int               `yaml:"workers,omitempty"`
	Classifier classifier.Config `yaml:"classifier,omitempty"`
	Validation *ValidationPlan   `yaml:"validation,omitempty"`
	Metadata   map[string]string `yaml:"metadata,omitempty"`
}

// ValidationPlan points the validation flow at a holdout cohort.
type ValidationPlan struct {
	Dataset  string `yaml:"dataset"`
	Runs     int    `yaml:"runs,omitempty"`
	Weighted bool   `yaml:"weighted,omitempty"`
}

// Load reads and validates a study plan. Unknown keys are rejected, so a
// typo in a plan fails here instead of silently running with defaults.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	plan := &Plan{}
	if err := decoder.Decode(plan); err != nil {
		return nil, fmt.Errorf("study: parsing %s: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// Validate checks the fields no study can run without.
func (p *Plan) Validate() error {
	if p.Dataset == "" {
		return &core.ConfigurationError{Reason: "study plan: dataset path not set"}
	}
	if p.Target == "" {
		return &core.ConfigurationError{Reason: "study plan: target column not set"}
	}
	if p.Positive == "" {
		return &core.ConfigurationError{Reason: "study plan: positive label level not set"}
	}
	if p.Repeats < 0 {
		return &core.ConfigurationError{Reason: fmt.Sprintf("study plan: repeats must not be negative, got %d", p.Repeats)}
	}
	if p.Validation != nil && p.Validation.Dataset == "" {
		return &core.ConfigurationError{Reason: "study plan: validation dataset path not set"}
	}
	return nil
}
