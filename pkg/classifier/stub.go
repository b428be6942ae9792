package classifier

import (
	"context"
	"fmt"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

// Stub is a deterministic capability for wiring tests and dry runs: the
// predicted positive-class probability is the value of a single feature
// clamped to [0,1]. Training learns nothing, so results depend only on
// the data fed in.
type Stub struct {
	feature int
}

// StubOption configures a Stub.
type StubOption func(*Stub)

// WithStubFeature selects the feature column the stub reads, default 0.
func WithStubFeature(i int) StubOption { return func(s *Stub) { s.feature = i } }

func NewStub(opts ...StubOption) *Stub {
	s := &Stub{}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Stub) Name() string { return "stub" }

func (s *Stub) Train(ctx context.Context, x [][]float64, y []int, seed int64) (core.Model, error) {
	if err := checkTrainingData(x, y); err != nil {
		return nil, err
	}
	if s.feature < 0 || s.feature >= len(x[0]) {
		return nil, fmt.Errorf("stub: feature index %d out of range for %d features", s.feature, len(x[0]))
	}
	return &StubModel{Feature: s.feature}, nil
}

// StubModel reads one feature as the probability.
type StubModel struct {
	Feature int
}

func (m *StubModel) PredictProba(x [][]float64) []float64 {
	probs := make([]float64, len(x))
	for i, row := range x {
		p := row[m.Feature]
		if p < 0 {
			p = 0
		} else if p > 1 {
			p = 1
		}
		probs[i] = p
	}
	return probs
}

func (m *StubModel) Predict(x [][]float64) []int {
	return core.ApplyThreshold(m.PredictProba(x), 0.5)
}
