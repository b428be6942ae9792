package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Validator scores a trained classifier against a held-out dataset over
// several independently seeded runs. Each run trains on the full training
// set, fixes a decision threshold from training-internal evidence, and
// applies that threshold exactly once to the holdout predictions.
type Validator struct {
	Train      *Dataset
	Holdout    *Dataset
	Classifier Classifier
	Runs       int
	Workers    int
	Seeds      SeedPolicy
	Weighted   bool
	Logger     *zap.Logger
	Progress   func(completed, total int)

	Study    string
	Metadata map[string]string
}

// Run executes every validation run and assembles the report.
func (v *Validator) Run(ctx context.Context) (*ValidationReport, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}

	seeds := v.Seeds
	if seeds == nil {
		seeds = DefaultSeedPolicy
	}
	logger := v.logger()

	trainY := v.Train.Binary()
	holdoutY := v.Holdout.Binary()

	classifier := v.Classifier
	if v.Weighted {
		weights, err := ClassWeights(trainY)
		if err != nil {
			return nil, err
		}
		if _, ok := v.Classifier.(WeightedTrainer); !ok {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("classifier %s does not support class weights", v.Classifier.Name())}
		}
		classifier = &weightedClassifier{inner: v.Classifier, weights: weights}
		logger.Info("using inverse-prevalence class weights",
			zap.Float64("positive", weights[1]),
			zap.Float64("negative", weights[0]),
		)
	}

	report := &ValidationReport{
		Study:      v.Study,
		TrainSet:   v.Train.Name,
		HoldoutSet: v.Holdout.Name,
		Classifier: v.Classifier.Name(),
		Positive:   v.Train.Positive,
		Negative:   v.Train.Negative(),
		Features:   append([]string(nil), v.Train.Features...),
		Weighted:   v.Weighted,
		Metadata:   v.Metadata,
		StartedAt:  time.Now().UTC(),
	}

	logger.Info("starting holdout validation",
		zap.String("train_set", v.Train.Name),
		zap.String("holdout_set", v.Holdout.Name),
		zap.String("classifier", v.Classifier.Name()),
		zap.Int("train_samples", v.Train.Len()),
		zap.Int("holdout_samples", v.Holdout.Len()),
		zap.Int("runs", v.Runs),
		zap.Bool("weighted", v.Weighted),
	)

	var importanceSum []float64
	importanceRuns := 0

	for run := 0; run < v.Runs; run++ {
		seed := seeds(run, 0)
		model, err := classifier.Train(ctx, v.Train.X, trainY, seed)
		if err != nil {
			return nil, fmt.Errorf("run %d: training on %s: %w", run, v.Train.Name, err)
		}

		threshold, err := v.deriveThreshold(ctx, classifier, model, trainY, run, seeds)
		if err != nil {
			return nil, err
		}

		records, err := v.scoreHoldout(model, holdoutY, threshold, run)
		if err != nil {
			return nil, err
		}
		metrics := ComputeMetrics(records)
		if metrics.AUC == nil {
			p, ng := ClassCounts(records)
			logger.Warn("holdout auc undefined", zap.Error(&DegenerateFoldError{Repeat: run, Positives: p, Negatives: ng}))
		}
		report.Runs = append(report.Runs, RunResult{
			Run:         run,
			Seed:        seed,
			Threshold:   threshold,
			Predictions: records,
			Metrics:     metrics,
		})

		if ranker, ok := model.(FeatureRanker); ok {
			imp := ranker.FeatureImportances()
			if len(imp) != len(v.Train.Features) {
				return nil, fmt.Errorf("run %d: classifier %s reported %d importances for %d features",
					run, v.Classifier.Name(), len(imp), len(v.Train.Features))
			}
			if importanceSum == nil {
				importanceSum = make([]float64, len(imp))
			}
			floats.Add(importanceSum, imp)
			importanceRuns++
		}

		if v.Progress != nil {
			v.Progress(run+1, v.Runs)
		}
		fields := []zap.Field{
			zap.Int("run", run),
			zap.Int64("seed", seed),
			zap.Float64("threshold", threshold),
			zap.Float64("accuracy", metrics.Accuracy),
		}
		if metrics.AUC != nil {
			fields = append(fields, zap.Float64("auc", *metrics.AUC))
		}
		logger.Info("run finished", fields...)
	}

	sets := make([]MetricSet, len(report.Runs))
	for i, r := range report.Runs {
		sets[i] = r.Metrics
	}
	report.Summary = Summarize(sets)

	if importanceRuns > 0 {
		floats.Scale(1/float64(importanceRuns), importanceSum)
		for i, feature := range v.Train.Features {
			report.Importances = append(report.Importances, FeatureImportance{Feature: feature, Importance: importanceSum[i]})
		}
		sort.SliceStable(report.Importances, func(a, b int) bool {
			return report.Importances[a].Importance > report.Importances[b].Importance
		})
	}
	report.FinishedAt = time.Now().UTC()

	logger.Info("validation finished",
		zap.Float64("mean_accuracy", report.Summary.Accuracy.Mean),
		zap.Float64("mean_auc", report.Summary.AUC.Mean),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// deriveThreshold picks the Youden-optimal threshold from training-internal
// evidence only: the model's out-of-bag probabilities when it exposes
// usable ones, otherwise a leave-one-out pass over the training set. The
// holdout set is never consulted.
func (v *Validator) deriveThreshold(ctx context.Context, classifier Classifier, model Model, trainY []int, run int, seeds SeedPolicy) (float64, error) {
	records := oobRecords(model, trainY)
	if records == nil {
		var err error
		records, err = foldLoop(ctx, v.Train.Len(), v.workers(), func(ctx context.Context, fold int) (PredictionRecord, error) {
			return looFold(ctx, v.Train, classifier, trainY, run, fold, seeds(run, fold+1))
		}, nil)
		if err != nil {
			return 0, err
		}
	}
	curve := ComputeROC(records)
	if curve == nil {
		pos, neg := ClassCounts(records)
		return 0, &DegenerateFoldError{Repeat: run, Positives: pos, Negatives: neg}
	}
	return YoudenThreshold(curve)
}

// scoreHoldout applies the run's threshold to the holdout probabilities.
func (v *Validator) scoreHoldout(model Model, holdoutY []int, threshold float64, run int) ([]PredictionRecord, error) {
	probs := model.PredictProba(v.Holdout.X)
	if len(probs) != len(holdoutY) {
		return nil, fmt.Errorf("run %d: PredictProba returned %d probabilities for %d rows", run, len(probs), len(holdoutY))
	}
	records := make([]PredictionRecord, len(holdoutY))
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("run %d: positive-class probability %v outside [0,1]", run, p)
		}
		records[i] = PredictionRecord{
			Index:       i,
			ID:          v.Holdout.ID(i),
			TrueLabel:   holdoutY[i],
			Probability: p,
		}
	}
	for i, label := range ApplyThreshold(probs, threshold) {
		records[i].Predicted = label
	}
	return records, nil
}

func (v *Validator) validate() error {
	if v.Train == nil || v.Holdout == nil || v.Classifier == nil {
		return errors.New("validator: train set, holdout set, and classifier are required")
	}
	if v.Runs <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("runs must be positive, got %d", v.Runs)}
	}
	if err := v.Train.Validate(); err != nil {
		return err
	}
	h := v.Holdout
	if h.Len() == 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("holdout set %q has no samples", h.Name)}
	}
	if len(h.Labels) != h.Len() {
		return &ConfigurationError{Reason: fmt.Sprintf("holdout set %q has %d rows but %d labels", h.Name, h.Len(), len(h.Labels))}
	}
	if !slices.Equal(v.Train.Features, h.Features) {
		return &ConfigurationError{Reason: fmt.Sprintf("holdout set %q features do not match train set %q", h.Name, v.Train.Name)}
	}
	if h.Positive != v.Train.Positive {
		return &ConfigurationError{Reason: fmt.Sprintf("holdout set %q positive level %q does not match train set's %q", h.Name, h.Positive, v.Train.Positive)}
	}
	known := map[string]bool{v.Train.Positive: true, v.Train.Negative(): true}
	for i, label := range h.Labels {
		if !known[label] {
			return &ConfigurationError{Reason: fmt.Sprintf("holdout set %q row %d has unknown level %q", h.Name, i, label)}
		}
	}
	for i, row := range h.X {
		if len(row) != len(h.Features) {
			return &ConfigurationError{Reason: fmt.Sprintf("holdout set %q row %d has %d values, want %d", h.Name, i, len(row), len(h.Features))}
		}
		for j, val := range row {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return &ConfigurationError{
					Columns: []string{h.Features[j]},
					Reason:  fmt.Sprintf("holdout set %q row %d has a missing or non-finite value", h.Name, i),
				}
			}
		}
	}
	return nil
}

func (v *Validator) workers() int {
	if v.Workers > 0 {
		return v.Workers
	}
	return 1
}

func (v *Validator) logger() *zap.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return zap.NewNop()
}

// ClassWeights computes inverse-prevalence weights for the binary labels: a
// class covering count of n rows weighs n/count, so rarer classes weigh
// more. Both classes must occur.
func ClassWeights(y []int) (map[int]float64, error) {
	var pos, neg int
	for _, label := range y {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("class weights need both classes, got %d positives and %d negatives", pos, neg)}
	}
	n := float64(len(y))
	return map[int]float64{1: n / float64(pos), 0: n / float64(neg)}, nil
}

// oobRecords assembles pseudo-predictions from a model's out-of-bag
// probabilities. Returns nil when the model exposes none or the usable rows
// lack one of the two classes, in which case the caller falls back to a
// leave-one-out pass.
func oobRecords(model Model, trainY []int) []PredictionRecord {
	prober, ok := model.(OOBProber)
	if !ok {
		return nil
	}
	probs := prober.OOBProba()
	if len(probs) != len(trainY) {
		return nil
	}
	var records []PredictionRecord
	for i, p := range probs {
		if math.IsNaN(p) {
			continue
		}
		records = append(records, PredictionRecord{Index: i, TrueLabel: trainY[i], Probability: p})
	}
	if pos, neg := ClassCounts(records); pos == 0 || neg == 0 {
		return nil
	}
	return records
}

// weightedClassifier redirects Train to the wrapped classifier's weighted
// variant with a fixed class-weight map.
type weightedClassifier struct {
	inner   Classifier
	weights map[int]float64
}

func (w *weightedClassifier) Name() string { return w.inner.Name() }

func (w *weightedClassifier) Train(ctx context.Context, x [][]float64, y []int, seed int64) (Model, error) {
	trainer, ok := w.inner.(WeightedTrainer)
	if !ok {
		return nil, fmt.Errorf("classifier %s does not support class weights", w.inner.Name())
	}
	return trainer.TrainWeighted(ctx, x, y, w.weights, seed)
}
