// Package models defines the artifact contracts passed between pipeline
// stages and the run records persisted in the registry. Artifacts carry file
// paths, never live handles; each one is produced by exactly one stage and
// consumed read-only downstream.
package models

// IngestionArtifact points at the train/test partitions written by ingestion.
type IngestionArtifact struct {
	TrainPath string `json:"train_path"`
	TestPath  string `json:"test_path"`
}

// ValidationArtifact records the outcome of the schema checks. A false
// Status does not stop the run; it is kept for audit.
type ValidationArtifact struct {
	Status     bool   `json:"status"`
	Message    string `json:"message"`
	ReportPath string `json:"report_path"`
}

// TransformationArtifact points at the fitted preprocessor and the numeric
// train/test matrices (label in the last column).
type TransformationArtifact struct {
	PreprocessorPath string `json:"preprocessor_path"`
	TrainArrayPath   string `json:"train_array_path"`
	TestArrayPath    string `json:"test_array_path"`
}

// ClassificationMetrics holds the six test-split metrics of a trained
// classifier, each rounded to five decimals.
type ClassificationMetrics struct {
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	LogLoss   float64 `json:"log_loss" yaml:"log_loss"`
	F1        float64 `json:"f1" yaml:"f1"`
	ROCAUC    float64 `json:"roc_auc" yaml:"roc_auc"`
}

// TrainingArtifact points at the persisted model bundle and its metrics
// report.
type TrainingArtifact struct {
	ModelPath  string                `json:"model_path"`
	ReportPath string                `json:"report_path"`
	Metrics    ClassificationMetrics `json:"metrics"`
}

// EvaluationArtifact carries the single gating decision of the pipeline.
// AccuracyDiscrepancy = trained accuracy - incumbent accuracy, signed.
type EvaluationArtifact struct {
	ModelAccepted       bool    `json:"model_accepted"`
	TrainedModelPath    string  `json:"trained_model_path"`
	RemoteModelKey      string  `json:"remote_model_key"`
	AccuracyDiscrepancy float64 `json:"accuracy_discrepancy"`
}

// DeploymentArtifact confirms the remote key the bundle was written to.
type DeploymentArtifact struct {
	Bucket         string `json:"bucket"`
	RemoteModelKey string `json:"remote_model_key"`
}
