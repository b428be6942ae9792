package classifier

import (
	"context"

	"github.com/ahad1361/proteoimic-validation/pkg/cache"
	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

// ModelCodec is implemented by classifiers whose trained models round-trip
// through bytes, which is what lets the cache skip retraining.
type ModelCodec interface {
	EncodeModel(core.Model) ([]byte, error)
	DecodeModel([]byte) (core.Model, error)
}

// Cached wraps a classifier with an on-disk model cache. Training calls
// whose fingerprint was seen before decode the stored model instead of
// retraining; cache failures fall back to training, never surface.
type Cached struct {
	Classifier core.Classifier
	Cache      *cache.Cache
}

func (c Cached) Name() string {
	if c.Classifier == nil {
		return ""
	}
	return c.Classifier.Name()
}

func (c Cached) Train(ctx context.Context, x [][]float64, y []int, seed int64) (core.Model, error) {
	return c.train(ctx, x, y, nil, seed, func() (core.Model, error) {
		return c.Classifier.Train(ctx, x, y, seed)
	})
}

// TrainWeighted participates in weighted studies when the wrapped
// classifier does; the weights join the cache fingerprint.
func (c Cached) TrainWeighted(ctx context.Context, x [][]float64, y []int, weights map[int]float64, seed int64) (core.Model, error) {
	trainer, ok := c.Classifier.(core.WeightedTrainer)
	if !ok {
		return nil, &core.ConfigurationError{Reason: "classifier " + c.Name() + " does not support class weights"}
	}
	return c.train(ctx, x, y, weights, seed, func() (core.Model, error) {
		return trainer.TrainWeighted(ctx, x, y, weights, seed)
	})
}

func (c Cached) train(ctx context.Context, x [][]float64, y []int, weights map[int]float64, seed int64, fit func() (core.Model, error)) (core.Model, error) {
	codec, ok := c.Classifier.(ModelCodec)
	if !ok || c.Cache == nil {
		return fit()
	}

	k := cache.Key(c.Name(), x, y, weights, seed)
	if data, hit := c.Cache.Get(k); hit {
		if model, err := codec.DecodeModel(data); err == nil {
			return model, nil
		}
	}

	model, err := fit()
	if err != nil {
		return nil, err
	}
	if data, err := codec.EncodeModel(model); err == nil {
		_ = c.Cache.Set(k, c.Name(), data)
	}
	return model, nil
}
