package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type validationReport struct {
	Status  bool   `yaml:"status"`
	Message string `yaml:"message"`
}

type evaluationReport struct {
	ModelAccepted       bool    `yaml:"model_accepted"`
	TrainedAccuracy     float64 `yaml:"trained_model_accuracy"`
	IncumbentAccuracy   float64 `yaml:"incumbent_model_accuracy"`
	AccuracyDiscrepancy float64 `yaml:"accuracy_discrepancy"`
}

// writeReport persists a stage report as YAML, creating parent directories.
// Reports are written once per run, never appended.
func writeReport(path string, doc any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
