package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Evaluator runs a dataset through repeated leave-one-out cross-validation:
// every repeat trains one model per sample with that sample held out, then
// scores the assembled out-of-fold prediction table.
type Evaluator struct {
	Dataset    *Dataset
	Classifier Classifier
	Repeats    int
	Workers    int
	Seeds      SeedPolicy
	Grid       []float64
	Logger     *zap.Logger
	Progress   func(completed, total int)

	Study    string
	Metadata map[string]string
}

// Run executes every repeat and assembles the study report. Folds within a
// repeat run concurrently; repeats complete in order so their prediction
// tables stay whole. The first classifier failure aborts the evaluation.
func (e *Evaluator) Run(ctx context.Context) (*Report, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	seeds := e.Seeds
	if seeds == nil {
		seeds = DefaultSeedPolicy
	}
	grid := e.Grid
	if len(grid) == 0 {
		grid = DefaultFPRGrid(DefaultGridPoints)
	}
	logger := e.logger()

	n := e.Dataset.Len()
	y := e.Dataset.Binary()
	pos, neg := e.Dataset.ClassBalance()

	report := &Report{
		Study:      e.Study,
		Dataset:    e.Dataset.Name,
		Classifier: e.Classifier.Name(),
		Positive:   e.Dataset.Positive,
		Negative:   e.Dataset.Negative(),
		Samples:    n,
		Features:   append([]string(nil), e.Dataset.Features...),
		Metadata:   e.Metadata,
		StartedAt:  time.Now().UTC(),
	}

	logger.Info("starting repeated leave-one-out evaluation",
		zap.String("dataset", e.Dataset.Name),
		zap.String("classifier", e.Classifier.Name()),
		zap.Int("samples", n),
		zap.Int("positives", pos),
		zap.Int("negatives", neg),
		zap.Int("repeats", e.Repeats),
		zap.Int("workers", e.workers()),
	)

	total := e.Repeats * n
	completed := 0
	progress := func() {
		completed++
		if e.Progress != nil {
			e.Progress(completed, total)
		}
	}

	curves := make([]ROCCurve, 0, e.Repeats)
	for repeat := 0; repeat < e.Repeats; repeat++ {
		records, err := foldLoop(ctx, n, e.workers(), func(ctx context.Context, fold int) (PredictionRecord, error) {
			return looFold(ctx, e.Dataset, e.Classifier, y, repeat, fold, seeds(repeat, fold))
		}, progress)
		if err != nil {
			return nil, err
		}

		metrics := ComputeMetrics(records)
		curve := ComputeROC(records)
		if curve == nil {
			p, ng := ClassCounts(records)
			logger.Warn("roc undefined", zap.Error(&DegenerateFoldError{Repeat: repeat, Positives: p, Negatives: ng}))
		}
		curves = append(curves, curve)
		report.Repeats = append(report.Repeats, RepeatResult{
			Repeat:      repeat,
			Predictions: records,
			Metrics:     metrics,
			ROC:         curve,
		})

		fields := []zap.Field{
			zap.Int("repeat", repeat),
			zap.Float64("accuracy", metrics.Accuracy),
			zap.Float64("f1", metrics.F1),
		}
		if metrics.AUC != nil {
			fields = append(fields, zap.Float64("auc", *metrics.AUC))
		}
		logger.Info("repeat finished", fields...)
	}

	sets := make([]MetricSet, len(report.Repeats))
	for i, r := range report.Repeats {
		sets[i] = r.Metrics
	}
	report.Summary = Summarize(sets)
	report.MeanROC = AverageROC(curves, grid)
	report.FinishedAt = time.Now().UTC()

	logger.Info("evaluation finished",
		zap.Float64("mean_accuracy", report.Summary.Accuracy.Mean),
		zap.Float64("mean_auc", report.Summary.AUC.Mean),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (e *Evaluator) validate() error {
	if e.Dataset == nil || e.Classifier == nil {
		return errors.New("evaluator: dataset and classifier are required")
	}
	if e.Repeats <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("repeats must be positive, got %d", e.Repeats)}
	}
	return e.Dataset.Validate()
}

func (e *Evaluator) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return 1
}

func (e *Evaluator) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

type foldResult struct {
	fold   int
	record PredictionRecord
}

// foldLoop evaluates n folds across a bounded worker pool, delivering
// results to a single collector goroutine so progress callbacks are never
// concurrent. The returned records are ordered by fold index.
func foldLoop(ctx context.Context, n, workers int, evaluate func(ctx context.Context, fold int) (PredictionRecord, error), progress func()) ([]PredictionRecord, error) {
	if workers <= 0 {
		workers = 1
	}
	records := make([]PredictionRecord, n)
	foldCh := make(chan int)
	resultCh := make(chan foldResult, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for fold := range foldCh {
				record, err := evaluate(gctx, fold)
				if err != nil {
					return err
				}
				select {
				case resultCh <- foldResult{fold: fold, record: record}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		defer close(foldCh)
		for fold := 0; fold < n; fold++ {
			select {
			case foldCh <- fold:
			case <-gctx.Done():
				return
			}
		}
	}()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(resultCh)
	}()

	for result := range resultCh {
		records[result.fold] = result.record
		if progress != nil {
			progress()
		}
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return records, nil
}

// looFold trains on every sample except the held-out one and predicts the
// held-out sample. Classifier failures wrap into a CapabilityError carrying
// the repeat and fold; nothing is retried, since training is deterministic
// given its seed.
func looFold(ctx context.Context, ds *Dataset, classifier Classifier, y []int, repeat, fold int, seed int64) (PredictionRecord, error) {
	n := ds.Len()
	trainX := make([][]float64, 0, n-1)
	trainY := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i == fold {
			continue
		}
		trainX = append(trainX, ds.X[i])
		trainY = append(trainY, y[i])
	}

	model, err := classifier.Train(ctx, trainX, trainY, seed)
	if err != nil {
		return PredictionRecord{}, &CapabilityError{Repeat: repeat, Fold: fold, Err: err}
	}

	holdout := [][]float64{ds.X[fold]}
	probs := model.PredictProba(holdout)
	if len(probs) != 1 {
		return PredictionRecord{}, &CapabilityError{Repeat: repeat, Fold: fold,
			Err: fmt.Errorf("PredictProba returned %d probabilities for 1 row", len(probs))}
	}
	if p := probs[0]; math.IsNaN(p) || p < 0 || p > 1 {
		return PredictionRecord{}, &CapabilityError{Repeat: repeat, Fold: fold,
			Err: fmt.Errorf("positive-class probability %v outside [0,1]", p)}
	}
	preds := model.Predict(holdout)
	if len(preds) != 1 {
		return PredictionRecord{}, &CapabilityError{Repeat: repeat, Fold: fold,
			Err: fmt.Errorf("Predict returned %d labels for 1 row", len(preds))}
	}

	return PredictionRecord{
		Index:       fold,
		ID:          ds.ID(fold),
		TrueLabel:   y[fold],
		Predicted:   preds[0],
		Probability: probs[0],
	}, nil
}
