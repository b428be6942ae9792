package core

import "time"

// PredictionRecord is one held-out prediction: the sample, its true binary
// label, and the predicted label and positive-class probability.
type PredictionRecord struct {
	Index       int     `json:"index" yaml:"index"`
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	TrueLabel   int     `json:"true_label" yaml:"true_label"`
	Predicted   int     `json:"predicted_label" yaml:"predicted_label"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// MetricSet holds the metrics derived from one repeat's prediction table.
// AUC is nil when the evaluated set lacked one of the two classes.
type MetricSet struct {
	Accuracy    float64  `json:"accuracy" yaml:"accuracy"`
	Precision   float64  `json:"precision" yaml:"precision"`
	Recall      float64  `json:"recall" yaml:"recall"`
	Specificity float64  `json:"specificity" yaml:"specificity"`
	F1          float64  `json:"f1" yaml:"f1"`
	AUC         *float64 `json:"auc,omitempty" yaml:"auc,omitempty"`
}

// ROCPoint is one operating point of a ROC curve and the threshold that
// produced it.
type ROCPoint struct {
	FPR       float64 `json:"fpr" yaml:"fpr"`
	TPR       float64 `json:"tpr" yaml:"tpr"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// ROCCurve is a ROC curve ordered by ascending false-positive rate.
type ROCCurve []ROCPoint

// AveragedROC is the pointwise mean of per-repeat ROC curves resampled onto
// a shared FPR grid. Curves counts the repeats with a defined curve;
// GridAUC is the trapezoidal area under the averaged curve.
type AveragedROC struct {
	FPR     []float64 `json:"fpr" yaml:"fpr"`
	TPR     []float64 `json:"tpr" yaml:"tpr"`
	Curves  int       `json:"curves" yaml:"curves"`
	GridAUC float64   `json:"grid_auc" yaml:"grid_auc"`
}

// MeanSD is the mean and sample standard deviation of a metric across
// repeats, with the count of repeats where the metric was defined.
type MeanSD struct {
	Mean float64 `json:"mean" yaml:"mean"`
	SD   float64 `json:"sd" yaml:"sd"`
	N    int     `json:"n" yaml:"n"`
}

// Summary aggregates each metric across repeats or runs.
type Summary struct {
	Accuracy    MeanSD `json:"accuracy" yaml:"accuracy"`
	Precision   MeanSD `json:"precision" yaml:"precision"`
	Recall      MeanSD `json:"recall" yaml:"recall"`
	Specificity MeanSD `json:"specificity" yaml:"specificity"`
	F1          MeanSD `json:"f1" yaml:"f1"`
	AUC         MeanSD `json:"auc" yaml:"auc"`
}

// RepeatResult captures one LOOCV repeat: its prediction table, metrics,
// and ROC curve (nil when degenerate).
type RepeatResult struct {
	Repeat      int                `json:"repeat" yaml:"repeat"`
	Predictions []PredictionRecord `json:"predictions" yaml:"predictions"`
	Metrics     MetricSet          `json:"metrics" yaml:"metrics"`
	ROC         ROCCurve           `json:"roc,omitempty" yaml:"roc,omitempty"`
}

// Report summarizes a repeated LOOCV evaluation.
type Report struct {
	Study      string            `json:"study" yaml:"study"`
	Dataset    string            `json:"dataset" yaml:"dataset"`
	Classifier string            `json:"classifier" yaml:"classifier"`
	Positive   string            `json:"positive_label" yaml:"positive_label"`
	Negative   string            `json:"negative_label" yaml:"negative_label"`
	Samples    int               `json:"samples" yaml:"samples"`
	Features   []string          `json:"features" yaml:"features"`
	Repeats    []RepeatResult    `json:"repeats" yaml:"repeats"`
	Summary    Summary           `json:"summary" yaml:"summary"`
	MeanROC    AveragedROC       `json:"mean_roc" yaml:"mean_roc"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	StartedAt  time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time         `json:"finished_at" yaml:"finished_at"`
}

// RunResult captures one validation run: the seed it trained with, the
// threshold chosen from training-internal ROC analysis, and the scored
// validation predictions.
type RunResult struct {
	Run         int                `json:"run" yaml:"run"`
	Seed        int64              `json:"seed" yaml:"seed"`
	Threshold   float64            `json:"threshold" yaml:"threshold"`
	Predictions []PredictionRecord `json:"predictions" yaml:"predictions"`
	Metrics     MetricSet          `json:"metrics" yaml:"metrics"`
}

// FeatureImportance is one feature's mean importance score across runs.
type FeatureImportance struct {
	Feature    string  `json:"feature" yaml:"feature"`
	Importance float64 `json:"importance" yaml:"importance"`
}

// ValidationReport summarizes a multi-run train/validate evaluation.
type ValidationReport struct {
	Study       string              `json:"study" yaml:"study"`
	TrainSet    string              `json:"train_set" yaml:"train_set"`
	HoldoutSet  string              `json:"holdout_set" yaml:"holdout_set"`
	Classifier  string              `json:"classifier" yaml:"classifier"`
	Positive    string              `json:"positive_label" yaml:"positive_label"`
	Negative    string              `json:"negative_label" yaml:"negative_label"`
	Features    []string            `json:"features" yaml:"features"`
	Weighted    bool                `json:"weighted" yaml:"weighted"`
	Runs        []RunResult         `json:"runs" yaml:"runs"`
	Summary     Summary             `json:"summary" yaml:"summary"`
	Importances []FeatureImportance `json:"importances,omitempty" yaml:"importances,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	StartedAt   time.Time           `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time           `json:"finished_at" yaml:"finished_at"`
}
