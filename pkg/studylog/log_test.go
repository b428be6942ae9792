package studylog_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
	"github.com/ahad1361/proteoimic-validation/pkg/studylog"

	"github.com/stretchr/testify/require"
)

func auc(v float64) *float64 { return &v }

func cohort(t *testing.T) *core.Dataset {
	t.Helper()
	ds, err := core.NewDataset(
		"cohort",
		[]string{"crp", "il6"},
		[][]float64{{120.5, 310}, {88.1, 150}, {12.3, 40}},
		[]string{"sepsis", "sepsis", "control"},
		"sepsis",
	)
	require.NoError(t, err)
	return ds
}

func loocvReport() *core.Report {
	repeats := []core.RepeatResult{
		{
			Repeat:  0,
			Metrics: core.MetricSet{Accuracy: 1, Precision: 1, Recall: 1, Specificity: 1, F1: 1, AUC: auc(1)},
			Predictions: []core.PredictionRecord{
				{Index: 0, ID: "P01", TrueLabel: 1, Predicted: 1, Probability: 0.91},
				{Index: 1, ID: "P02", TrueLabel: 1, Predicted: 1, Probability: 0.84},
				{Index: 2, ID: "P03", TrueLabel: 0, Predicted: 0, Probability: 0.12},
			},
			ROC: core.ROCCurve{{FPR: 0, TPR: 0, Threshold: 1.91}, {FPR: 0, TPR: 1, Threshold: 0.84}, {FPR: 1, TPR: 1, Threshold: 0.12}},
		},
		{
			Repeat:  1,
			Metrics: core.MetricSet{Accuracy: 1, Precision: 1, Recall: 1, Specificity: 1, F1: 1, AUC: auc(1)},
			Predictions: []core.PredictionRecord{
				{Index: 0, ID: "P01", TrueLabel: 1, Predicted: 1, Probability: 0.93},
				{Index: 1, ID: "P02", TrueLabel: 1, Predicted: 1, Probability: 0.8},
				{Index: 2, ID: "P03", TrueLabel: 0, Predicted: 0, Probability: 0.15},
			},
		},
	}
	return &core.Report{
		Study:      "neonatal-sepsis",
		Dataset:    "cohort",
		Classifier: "forest",
		Positive:   "sepsis",
		Negative:   "control",
		Samples:    3,
		Features:   []string{"crp", "il6"},
		Repeats:    repeats,
		Summary:    core.Summarize([]core.MetricSet{repeats[0].Metrics, repeats[1].Metrics}),
		MeanROC: core.AveragedROC{
			FPR:     []float64{0, 0.5, 1},
			TPR:     []float64{0, 1, 1},
			Curves:  2,
			GridAUC: 0.875,
		},
		StartedAt:  time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 11, 3, 9, 0, 42, 0, time.UTC),
	}
}

func validationReport() *core.ValidationReport {
	runs := []core.RunResult{
		{
			Run: 0, Seed: 0, Threshold: 0.6,
			Metrics: core.MetricSet{Accuracy: 1, Precision: 1, Recall: 1, Specificity: 1, F1: 1, AUC: auc(1)},
			Predictions: []core.PredictionRecord{
				{Index: 0, ID: "V01", TrueLabel: 1, Predicted: 1, Probability: 0.7},
			},
		},
	}
	return &core.ValidationReport{
		Study:      "neonatal-sepsis",
		TrainSet:   "derivation",
		HoldoutSet: "external",
		Classifier: "forest",
		Positive:   "sepsis",
		Negative:   "control",
		Features:   []string{"crp", "il6"},
		Weighted:   true,
		Runs:       runs,
		Summary:    core.Summarize([]core.MetricSet{runs[0].Metrics}),
		Importances: []core.FeatureImportance{
			{Feature: "il6", Importance: 0.75},
			{Feature: "crp", Importance: 0.25},
		},
		StartedAt:  time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 11, 3, 10, 1, 30, 0, time.UTC),
	}
}

func TestFromReport(t *testing.T) {
	ds := cohort(t)
	log := studylog.FromReport(loocvReport(), ds)

	require.Equal(t, 1, log.Version)
	require.Equal(t, "success", log.Status)
	require.Equal(t, studylog.KindLOOCV, log.Study.Kind)
	require.Equal(t, 2, log.Study.Repeats)
	require.Equal(t, "10000*repeat+fold", log.Study.SeedPolicy)
	require.Equal(t, studylog.Fingerprint(ds), log.Study.Dataset.Fingerprint)
	require.NotEmpty(t, log.Study.StudyID)
	require.NotNil(t, log.MeanROC)
	require.Equal(t, 42.0, log.Stats.Elapsed)
}

func TestFromValidation(t *testing.T) {
	log := studylog.FromValidation(validationReport(), cohort(t), nil)

	require.Equal(t, studylog.KindValidation, log.Study.Kind)
	require.Equal(t, 1, log.Study.Runs)
	require.Zero(t, log.Study.Repeats)
	require.True(t, log.Study.Weighted)
	require.Equal(t, "derivation", log.Study.Dataset.Name)
	require.Equal(t, 3, log.Study.Dataset.Samples)
	require.NotNil(t, log.Study.Holdout)
	require.Equal(t, "external", log.Study.Holdout.Name)
	require.Equal(t, 1, log.Study.Holdout.Samples, "holdout size falls back to the prediction count")
	require.Empty(t, log.Study.Holdout.Fingerprint)
	require.Len(t, log.Importances, 2)
}

func TestWriteJSON(t *testing.T) {
	log := studylog.FromReport(loocvReport(), nil)
	dir := t.TempDir()

	path, err := studylog.WriteJSON(dir, log)
	require.NoError(t, err)
	require.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}_neonatal-sepsis_forest\.json$`, filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"status": "success"`)
	require.Contains(t, string(data), `"kind": "loocv"`)

	loaded, err := studylog.ReadJSON(path)
	require.NoError(t, err)
	require.Equal(t, log.Study.StudyID, loaded.Study.StudyID)
	require.Equal(t, log.Repeats, loaded.Repeats)
}

func TestWriteArchive(t *testing.T) {
	log := studylog.FromReport(loocvReport(), nil)
	dir := t.TempDir()

	path, err := studylog.WriteArchive(dir, log)
	require.NoError(t, err)
	require.Equal(t, ".study", filepath.Ext(path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	stat, err := file.Stat()
	require.NoError(t, err)

	reader, err := zip.NewReader(file, stat.Size())
	require.NoError(t, err)
	entries := make(map[string]bool)
	for _, f := range reader.File {
		entries[f.Name] = true
	}
	require.True(t, entries["header.json"])
	require.True(t, entries["summary.json"])
	require.True(t, entries["roc.json"])
	require.True(t, entries["repeats/0.json"])
	require.True(t, entries["repeats/1.json"])
}

func TestArchiveRoundTrip(t *testing.T) {
	log := studylog.FromReport(loocvReport(), cohort(t))
	dir := t.TempDir()

	path, err := studylog.WriteArchive(dir, log)
	require.NoError(t, err)

	loaded, err := studylog.ReadArchive(path)
	require.NoError(t, err)
	require.Equal(t, log.Study, loaded.Study)
	require.Equal(t, log.Summary, loaded.Summary)
	require.Equal(t, log.MeanROC, loaded.MeanROC)
	require.Equal(t, log.Repeats, loaded.Repeats)
	require.Empty(t, loaded.Runs)
}

func TestValidationArchiveRoundTrip(t *testing.T) {
	log := studylog.FromValidation(validationReport(), cohort(t), nil)
	dir := t.TempDir()

	path, err := studylog.WriteArchive(dir, log)
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	stat, err := file.Stat()
	require.NoError(t, err)
	reader, err := zip.NewReader(file, stat.Size())
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range reader.File {
		names[f.Name] = true
	}
	require.True(t, names["runs/0.json"])
	require.True(t, names["importances.json"])
	require.False(t, names["roc.json"], "validation studies carry no mean ROC")

	loaded, err := studylog.ReadArchive(path)
	require.NoError(t, err)
	require.Equal(t, log.Runs, loaded.Runs)
	require.Equal(t, log.Importances, loaded.Importances)
}

func TestReadArchiveRejectsMissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.study")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(f).Close())
	require.NoError(t, f.Close())

	_, err = studylog.ReadArchive(path)
	require.ErrorContains(t, err, "no header.json")
}

func TestFingerprint(t *testing.T) {
	ds := cohort(t)
	require.Equal(t, studylog.Fingerprint(ds), studylog.Fingerprint(ds))
	require.Empty(t, studylog.Fingerprint(nil))

	other := cohort(t)
	other.X[0][0] += 0.001
	require.NotEqual(t, studylog.Fingerprint(ds), studylog.Fingerprint(other))
}
