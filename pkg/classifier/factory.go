package classifier

import (
	"fmt"

	"github.com/ahad1361/proteoimic-validation/pkg/core"
)

// Config selects and parameterizes a capability by name. Zero values fall
// back to each classifier's defaults, so a bare {Name: "forest"} is valid.
type Config struct {
	Name            string  `json:"name" yaml:"name" mapstructure:"name"`
	Trees           int     `json:"trees,omitempty" yaml:"trees,omitempty" mapstructure:"trees"`
	MaxDepth        int     `json:"max_depth,omitempty" yaml:"max_depth,omitempty" mapstructure:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split,omitempty" yaml:"min_samples_split,omitempty" mapstructure:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf,omitempty" yaml:"min_samples_leaf,omitempty" mapstructure:"min_samples_leaf"`
	MaxFeatures     int     `json:"max_features,omitempty" yaml:"max_features,omitempty" mapstructure:"max_features"`
	Epochs          int     `json:"epochs,omitempty" yaml:"epochs,omitempty" mapstructure:"epochs"`
	LearningRate    float64 `json:"learning_rate,omitempty" yaml:"learning_rate,omitempty" mapstructure:"learning_rate"`
	L2              float64 `json:"l2,omitempty" yaml:"l2,omitempty" mapstructure:"l2"`
	Feature         int     `json:"feature,omitempty" yaml:"feature,omitempty" mapstructure:"feature"`
}

// New builds the named classifier. An empty name means the random forest,
// which is what the study workflows default to.
func New(cfg Config) (core.Classifier, error) {
	switch cfg.Name {
	case "forest", "":
		var opts []ForestOption
		if cfg.Trees > 0 {
			opts = append(opts, WithTrees(cfg.Trees))
		}
		if treeOpts := treeOptions(cfg); len(treeOpts) > 0 {
			opts = append(opts, WithTreeOptions(treeOpts...))
		}
		return NewForest(opts...), nil
	case "tree":
		return NewDecisionTree(treeOptions(cfg)...), nil
	case "logit":
		var opts []LogisticOption
		if cfg.Epochs > 0 {
			opts = append(opts, WithEpochs(cfg.Epochs))
		}
		if cfg.LearningRate > 0 {
			opts = append(opts, WithLearningRate(cfg.LearningRate))
		}
		if cfg.L2 > 0 {
			opts = append(opts, WithL2(cfg.L2))
		}
		return NewLogistic(opts...), nil
	case "stub":
		return NewStub(WithStubFeature(cfg.Feature)), nil
	default:
		return nil, fmt.Errorf("unknown classifier: %s", cfg.Name)
	}
}

func treeOptions(cfg Config) []TreeOption {
	var opts []TreeOption
	if cfg.MaxDepth > 0 {
		opts = append(opts, WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.MinSamplesSplit > 0 {
		opts = append(opts, WithMinSamplesSplit(cfg.MinSamplesSplit))
	}
	if cfg.MinSamplesLeaf > 0 {
		opts = append(opts, WithMinSamplesLeaf(cfg.MinSamplesLeaf))
	}
	if cfg.MaxFeatures > 0 {
		opts = append(opts, WithMaxFeatures(cfg.MaxFeatures))
	}
	return opts
}

// Names lists the selectable classifier names.
func Names() []string {
	return []string{"forest", "tree", "logit", "stub"}
}
