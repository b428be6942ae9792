package core

import (
	"fmt"
	"math"
	"strconv"
)

// Dataset is an immutable tabular dataset: rows of named numeric features,
// a two-level categorical label per row, and an optional row identifier.
type Dataset struct {
	Name     string      `json:"name" yaml:"name"`
	Features []string    `json:"features" yaml:"features"`
	IDs      []string    `json:"ids,omitempty" yaml:"ids,omitempty"`
	X        [][]float64 `json:"-" yaml:"-"`
	Labels   []string    `json:"-" yaml:"-"`
	Positive string      `json:"positive" yaml:"positive"`
}

// NewDataset builds a validated dataset.
func NewDataset(name string, features []string, x [][]float64, labels []string, positive string) (*Dataset, error) {
	d := &Dataset{
		Name:     name,
		Features: features,
		X:        x,
		Labels:   labels,
		Positive: positive,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.X)
}

// ID returns the identifier of row i, falling back to the row index.
func (d *Dataset) ID(i int) string {
	if i >= 0 && i < len(d.IDs) && d.IDs[i] != "" {
		return d.IDs[i]
	}
	return strconv.Itoa(i)
}

// Levels returns the distinct label levels in order of first appearance.
func (d *Dataset) Levels() []string {
	var levels []string
	seen := make(map[string]bool)
	for _, label := range d.Labels {
		if !seen[label] {
			seen[label] = true
			levels = append(levels, label)
		}
	}
	return levels
}

// Negative returns the label level that is not the positive level.
func (d *Dataset) Negative() string {
	for _, level := range d.Levels() {
		if level != d.Positive {
			return level
		}
	}
	return ""
}

// Binary maps labels to 1 for the positive level and 0 otherwise.
func (d *Dataset) Binary() []int {
	y := make([]int, len(d.Labels))
	for i, label := range d.Labels {
		if label == d.Positive {
			y[i] = 1
		}
	}
	return y
}

// ClassBalance counts positive and negative samples.
func (d *Dataset) ClassBalance() (pos, neg int) {
	for _, label := range d.Labels {
		if label == d.Positive {
			pos++
		} else {
			neg++
		}
	}
	return pos, neg
}

// Validate checks the dataset against the evaluation contract: at least two
// samples, consistent row widths, finite feature values, exactly two label
// levels, and a positive level that occurs in the data.
func (d *Dataset) Validate() error {
	if len(d.Features) == 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("dataset %q has no feature columns", d.Name)}
	}
	if len(d.X) < 2 {
		return &ConfigurationError{Reason: fmt.Sprintf("dataset %q needs at least 2 samples, got %d", d.Name, len(d.X))}
	}
	if len(d.Labels) != len(d.X) {
		return &ConfigurationError{Reason: fmt.Sprintf("dataset %q has %d rows but %d labels", d.Name, len(d.X), len(d.Labels))}
	}
	if len(d.IDs) > 0 && len(d.IDs) != len(d.X) {
		return &ConfigurationError{Reason: fmt.Sprintf("dataset %q has %d rows but %d identifiers", d.Name, len(d.X), len(d.IDs))}
	}
	for i, row := range d.X {
		if len(row) != len(d.Features) {
			return &ConfigurationError{Reason: fmt.Sprintf("dataset %q row %d has %d values, want %d", d.Name, i, len(row), len(d.Features))}
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ConfigurationError{
					Columns: []string{d.Features[j]},
					Reason:  fmt.Sprintf("dataset %q row %d has a missing or non-finite value", d.Name, i),
				}
			}
		}
	}
	levels := d.Levels()
	if len(levels) != 2 {
		return &ConfigurationError{Reason: fmt.Sprintf("dataset %q target must have exactly 2 levels, got %d", d.Name, len(levels))}
	}
	if d.Positive != levels[0] && d.Positive != levels[1] {
		return &ConfigurationError{Reason: fmt.Sprintf("positive level %q does not occur in dataset %q (levels: %s, %s)", d.Positive, d.Name, levels[0], levels[1])}
	}
	return nil
}
