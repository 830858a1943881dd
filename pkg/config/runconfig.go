package config

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout names per-run artifact directories.
const TimestampLayout = "02-Jan-06_15:04:05"

// RunConfig is the immutable per-run view of the configuration. It is
// created once at pipeline start and handed read-only to every stage; the
// artifact paths below are all derived from the run timestamp so concurrent
// runs never share a directory.
type RunConfig struct {
	RunID        string
	PipelineName string
	Timestamp    string

	ArtifactDir string

	// Ingestion
	DatabaseName     string
	CollectionName   string
	FeatureStorePath string
	TrainPath        string
	TestPath         string
	TestFraction     float64
	SplitSeed        int64

	// Validation
	ValidationReportPath string

	// Transformation
	PreprocessorPath string
	TrainArrayPath   string
	TestArrayPath    string

	// Training
	ModelPath          string
	TrainingReportPath string

	// Evaluation
	EvaluationReportPath string

	// Deployment
	Bucket           string
	RemoteModelKey   string
	RemoveLocalModel bool
}

// NewRunConfig derives the per-run settings for a run starting now.
func NewRunConfig(cfg *Config) *RunConfig {
	return newRunConfigAt(cfg, time.Now())
}

func newRunConfigAt(cfg *Config, now time.Time) *RunConfig {
	ts := now.Format(TimestampLayout)
	root := filepath.Join(cfg.ArtifactDir, ts)

	return &RunConfig{
		RunID:        uuid.New().String(),
		PipelineName: cfg.PipelineName,
		Timestamp:    ts,
		ArtifactDir:  root,

		DatabaseName:     cfg.DatabaseName,
		CollectionName:   cfg.CollectionName,
		FeatureStorePath: filepath.Join(root, "data_ingestion", "feature_store", "data.csv"),
		TrainPath:        filepath.Join(root, "data_ingestion", "ingested", "train.csv"),
		TestPath:         filepath.Join(root, "data_ingestion", "ingested", "test.csv"),
		TestFraction:     cfg.TestFraction,
		SplitSeed:        cfg.SplitSeed,

		ValidationReportPath: filepath.Join(root, "data_validation", "report", "report.yaml"),

		PreprocessorPath: filepath.Join(root, "data_transformation", "transformed_object", "preprocessing.gob"),
		TrainArrayPath:   filepath.Join(root, "data_transformation", "transformed", "train.csv"),
		TestArrayPath:    filepath.Join(root, "data_transformation", "transformed", "test.csv"),

		ModelPath:          filepath.Join(root, "model_trainer", "trained_model", "model.gob"),
		TrainingReportPath: filepath.Join(root, "model_trainer", "report", "report.yaml"),

		EvaluationReportPath: filepath.Join(root, "model_evaluation", "report", "report.yaml"),

		Bucket:           cfg.ModelBucket,
		RemoteModelKey:   cfg.RemoteModelKey,
		RemoveLocalModel: cfg.RemoveLocalModel,
	}
}
