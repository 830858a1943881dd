package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FeatureSchema is the structured schema document supplied to validation and
// transformation. Rename pairs use the form "old$new".
type FeatureSchema struct {
	Features                []string `yaml:"features"`
	NumericalFeatures       []string `yaml:"numerical_features"`
	CategoricalFeatures     []string `yaml:"categorical_features"`
	DropFeatures            []string `yaml:"drop_features"`
	LabelEncodingFeatures   []string `yaml:"label_encoding_features"`
	OneHotEncodingFeatures  []string `yaml:"onehot_encoding_features"`
	RenameFeatures          []string `yaml:"rename_features"`
	NormalizationFeatures   []string `yaml:"normalization_features"`
	StandardizationFeatures []string `yaml:"standardization_features"`
	TargetFeatures          []string `yaml:"target_features"`
}

// LoadFeatureSchema reads and parses the schema document.
func LoadFeatureSchema(path string) (*FeatureSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema FeatureSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	if len(schema.Features) == 0 {
		return nil, fmt.Errorf("schema declares no features")
	}
	if len(schema.TargetFeatures) == 0 {
		return nil, fmt.Errorf("schema declares no target features")
	}

	return &schema, nil
}

// ModelConfig is the classifier hyperparameter document plus the acceptance
// threshold the training stage gates on.
type ModelConfig struct {
	NEstimators       int     `yaml:"n_estimators"`
	Criterion         string  `yaml:"criterion"`
	MaxDepth          int     `yaml:"max_depth"`
	MinSamplesSplit   int     `yaml:"min_samples_split"`
	MinSamplesLeaf    int     `yaml:"min_samples_leaf"`
	MaxFeatures       string  `yaml:"max_features"`
	Bootstrap         bool    `yaml:"bootstrap"`
	RandomSeed        int64   `yaml:"random_seed"`
	ThresholdAccuracy float64 `yaml:"threshold_accuracy"`
}

// LoadModelConfig reads and parses the hyperparameter document, filling in
// defaults for fields left unset.
func LoadModelConfig(path string) (*ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config: %w", err)
	}

	mc := &ModelConfig{Bootstrap: true}
	if err := yaml.Unmarshal(data, mc); err != nil {
		return nil, fmt.Errorf("failed to parse model config: %w", err)
	}
	mc.applyDefaults()

	return mc, nil
}

func (mc *ModelConfig) applyDefaults() {
	if mc.NEstimators <= 0 {
		mc.NEstimators = 100
	}
	if mc.Criterion == "" {
		mc.Criterion = "gini"
	}
	if mc.MaxDepth <= 0 {
		mc.MaxDepth = 10
	}
	if mc.MinSamplesSplit <= 0 {
		mc.MinSamplesSplit = 2
	}
	if mc.MinSamplesLeaf <= 0 {
		mc.MinSamplesLeaf = 1
	}
	if mc.MaxFeatures == "" {
		mc.MaxFeatures = "sqrt"
	}
}
