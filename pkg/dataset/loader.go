// Package dataset loads tabular cohort files into the core dataset model.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

// Options name the columns of interest in a cohort table.
type Options struct {
	Target   string   // label column, required
	Positive string   // label level treated as positive, required
	ID       string   // identifier column, optional
	Features []string // feature columns; empty selects every remaining column
}

// Load reads a CSV (or TSV) cohort table into a dataset. Column resolution
// is fail-fast: a missing target, identifier, or feature column and any
// missing or non-numeric feature cell surface as a ConfigurationError
// naming the column, before anything trains.
//
// Load does not enforce the two-level target rule; that depends on the
// dataset's role. Training sets are validated by the engine, while a
// holdout set may legitimately contain a single class.
func Load(path string, opts Options) (*core.Dataset, error) {
	if opts.Target == "" {
		return nil, &core.ConfigurationError{Reason: "target column not set"}
	}
	if opts.Positive == "" {
		return nil, &core.ConfigurationError{Reason: "positive label level not set"}
	}

	records, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("%s: need a header row and at least one sample", path)}
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	targetIdx, ok := col[opts.Target]
	if !ok {
		return nil, &core.ConfigurationError{
			Columns: []string{opts.Target},
			Reason:  fmt.Sprintf("target column not found in %s", path),
		}
	}
	idIdx := -1
	if opts.ID != "" {
		if idIdx, ok = col[opts.ID]; !ok {
			return nil, &core.ConfigurationError{
				Columns: []string{opts.ID},
				Reason:  fmt.Sprintf("identifier column not found in %s", path),
			}
		}
	}

	features := opts.Features
	if len(features) == 0 {
		for _, name := range header {
			name = strings.TrimSpace(name)
			if name != opts.Target && name != opts.ID {
				features = append(features, name)
			}
		}
	}
	featureIdx := make([]int, len(features))
	var missing []string
	for i, name := range features {
		idx, ok := col[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		featureIdx[i] = idx
	}
	if len(missing) > 0 {
		return nil, &core.ConfigurationError{
			Columns: missing,
			Reason:  fmt.Sprintf("feature columns not found in %s", path),
		}
	}

	n := len(records) - 1
	x := make([][]float64, n)
	labels := make([]string, n)
	var ids []string
	if idIdx >= 0 {
		ids = make([]string, n)
	}

	for r, record := range records[1:] {
		row := make([]float64, len(featureIdx))
		for i, idx := range featureIdx {
			cell := strings.TrimSpace(record[idx])
			if cell == "" {
				return nil, &core.ConfigurationError{
					Columns: []string{features[i]},
					Reason:  fmt.Sprintf("%s row %d: missing value", path, r+2),
				}
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, &core.ConfigurationError{
					Columns: []string{features[i]},
					Reason:  fmt.Sprintf("%s row %d: value %q is not numeric", path, r+2, cell),
				}
			}
			row[i] = v
		}
		x[r] = row
		labels[r] = strings.TrimSpace(record[targetIdx])
		if idIdx >= 0 {
			ids[r] = strings.TrimSpace(record[idIdx])
		}
	}

	return &core.Dataset{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Features: features,
		IDs:      ids,
		X:        x,
		Labels:   labels,
		Positive: opts.Positive,
	}, nil
}

func readTable(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		r.Comma = '\t'
	}
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", path, err)
	}
	return records, nil
}
