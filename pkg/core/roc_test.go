package core_test

import (
	"testing"

	"github.com/ahad1361/proteoimic-validation/pkg/core"

	"github.com/stretchr/testify/require"
)

func TestApplyThreshold(t *testing.T) {
	labels := core.ApplyThreshold([]float64{0.2, 0.5, 0.7}, 0.5)
	require.Equal(t, []int{0, 1, 1}, labels, "boundary probability counts as positive")
}

func TestComputeROCSweep(t *testing.T) {
	records := []core.PredictionRecord{
		{TrueLabel: 1, Probability: 0.9},
		{TrueLabel: 1, Probability: 0.3},
		{TrueLabel: 0, Probability: 0.6},
		{TrueLabel: 0, Probability: 0.1},
	}

	curve := core.ComputeROC(records)
	want := core.ROCCurve{
		{FPR: 0, TPR: 0, Threshold: 1.9},
		{FPR: 0, TPR: 0.5, Threshold: 0.9},
		{FPR: 0.5, TPR: 0.5, Threshold: 0.6},
		{FPR: 0.5, TPR: 1, Threshold: 0.3},
		{FPR: 1, TPR: 1, Threshold: 0.1},
	}
	require.Equal(t, want, curve)
}

func TestComputeROCTiedProbabilitiesCollapse(t *testing.T) {
	records := []core.PredictionRecord{
		{TrueLabel: 1, Probability: 0.5},
		{TrueLabel: 0, Probability: 0.5},
	}

	curve := core.ComputeROC(records)
	want := core.ROCCurve{
		{FPR: 0, TPR: 0, Threshold: 1.5},
		{FPR: 1, TPR: 1, Threshold: 0.5},
	}
	require.Equal(t, want, curve)
}

func TestComputeROCUndefinedWithoutBothClasses(t *testing.T) {
	records := []core.PredictionRecord{
		{TrueLabel: 1, Probability: 0.9},
		{TrueLabel: 1, Probability: 0.2},
	}
	require.Nil(t, core.ComputeROC(records))
	require.Nil(t, core.ComputeROC(nil))
}

func TestResampleAveragesDuplicateFPRs(t *testing.T) {
	curve := core.ROCCurve{
		{FPR: 0, TPR: 0},
		{FPR: 0, TPR: 0.5},
		{FPR: 0.5, TPR: 0.5},
		{FPR: 0.5, TPR: 1},
		{FPR: 1, TPR: 1},
	}

	got := curve.Resample([]float64{0, 0.25, 0.5, 0.75, 1})
	want := []float64{0.25, 0.5, 0.75, 0.875, 1}
	require.InDeltaSlice(t, want, got, 1e-12)
}

func TestResampleClampsOutOfRange(t *testing.T) {
	curve := core.ROCCurve{
		{FPR: 0.2, TPR: 0.4},
		{FPR: 0.8, TPR: 0.9},
	}

	got := curve.Resample([]float64{0, 0.1, 0.9, 1})
	want := []float64{0.4, 0.4, 0.9, 0.9}
	require.InDeltaSlice(t, want, got, 1e-12)
}

func TestDefaultFPRGrid(t *testing.T) {
	grid := core.DefaultFPRGrid(core.DefaultGridPoints)
	require.Len(t, grid, 100)
	require.Equal(t, 0.0, grid[0])
	require.Equal(t, 1.0, grid[len(grid)-1])
	for i := 1; i < len(grid); i++ {
		require.Greater(t, grid[i], grid[i-1])
	}
}

func TestAverageROCIgnoresUndefinedCurves(t *testing.T) {
	flat := func(tpr float64) core.ROCCurve {
		return core.ROCCurve{{FPR: 0, TPR: tpr}, {FPR: 1, TPR: tpr}}
	}
	grid := core.DefaultFPRGrid(5)

	avg := core.AverageROC([]core.ROCCurve{flat(0.5), nil, flat(0.7)}, grid)
	require.Equal(t, 2, avg.Curves)
	require.Equal(t, grid, avg.FPR)
	require.InDeltaSlice(t, []float64{0.6, 0.6, 0.6, 0.6, 0.6}, avg.TPR, 1e-12)
	require.InDelta(t, 0.6, avg.GridAUC, 1e-12)
}

func TestAverageROCPointwiseMean(t *testing.T) {
	grid := []float64{0, 1}
	curves := []core.ROCCurve{
		{{FPR: 0, TPR: 0.4}, {FPR: 1, TPR: 0.6}},
		{{FPR: 0, TPR: 0.6}, {FPR: 1, TPR: 0.8}},
	}

	avg := core.AverageROC(curves, grid)
	require.InDeltaSlice(t, []float64{0.5, 0.7}, avg.TPR, 1e-12)
}

func TestAverageROCAllUndefined(t *testing.T) {
	grid := core.DefaultFPRGrid(5)
	avg := core.AverageROC([]core.ROCCurve{nil, nil}, grid)
	require.Equal(t, 0, avg.Curves)
	require.Nil(t, avg.TPR)
	require.Equal(t, 0.0, avg.GridAUC)
}

func TestYoudenThresholdFirstMaximizer(t *testing.T) {
	curve := core.ROCCurve{
		{FPR: 0, TPR: 0, Threshold: 1.9},
		{FPR: 0.2, TPR: 0.6, Threshold: 0.7},
		{FPR: 0.5, TPR: 0.9, Threshold: 0.4},
		{FPR: 1, TPR: 1, Threshold: 0.1},
	}

	// J is 0.4 at both interior points; the tie breaks to the lower FPR.
	threshold, err := core.YoudenThreshold(curve)
	require.NoError(t, err)
	require.Equal(t, 0.7, threshold)
}

func TestYoudenThresholdStrictMaximizer(t *testing.T) {
	curve := core.ROCCurve{
		{FPR: 0, TPR: 0, Threshold: 1.5},
		{FPR: 0.1, TPR: 0.2, Threshold: 0.8},
		{FPR: 0.2, TPR: 0.9, Threshold: 0.6},
		{FPR: 1, TPR: 1, Threshold: 0.1},
	}

	threshold, err := core.YoudenThreshold(curve)
	require.NoError(t, err)
	require.Equal(t, 0.6, threshold)
}

func TestYoudenThresholdEmptyCurve(t *testing.T) {
	_, err := core.YoudenThreshold(nil)
	require.Error(t, err)
}
