package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/dataset"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
)

// Validation checks the ingested partitions against the declared feature
// schema: column count and presence of every required feature, nothing
// about values, types, or null ratios.
type Validation struct {
	cfg    *config.RunConfig
	schema *config.FeatureSchema
	logger *logging.Logger
}

// NewValidation creates the validation stage.
func NewValidation(cfg *config.RunConfig, schema *config.FeatureSchema) *Validation {
	return &Validation{cfg: cfg, schema: schema, logger: logging.GetLogger()}
}

// Validate loads both partitions and applies the two schema checks to each.
// Failing checks are collected into the message buffer and recorded in the
// report; a false status does not abort the run.
func (v *Validation) Validate(ctx context.Context, ing models.IngestionArtifact) (models.ValidationArtifact, error) {
	v.logger.Info("Starting data validation", logging.Component("validation"))

	var buf strings.Builder
	partitions := []struct {
		name string
		path string
	}{
		{"train", ing.TrainPath},
		{"test", ing.TestPath},
	}

	for _, part := range partitions {
		table, err := dataset.ReadCSV(part.path)
		if err != nil {
			return models.ValidationArtifact{}, fmt.Errorf("validation: load %s partition: %w", part.name, err)
		}
		v.checkPartition(part.name, table, &buf)
	}

	art := models.ValidationArtifact{
		Status:     buf.Len() == 0,
		Message:    strings.TrimRight(buf.String(), "\n"),
		ReportPath: v.cfg.ValidationReportPath,
	}

	report := validationReport{Status: art.Status, Message: art.Message}
	if err := writeReport(v.cfg.ValidationReportPath, report); err != nil {
		return models.ValidationArtifact{}, fmt.Errorf("validation: write report: %w", err)
	}

	if art.Status {
		v.logger.Info("Data validation passed", logging.Component("validation"))
	} else {
		v.logger.Warn("Data validation failed", logging.Component("validation"),
			logging.String("message", art.Message))
	}

	return art, nil
}

// checkPartition appends one line per failing check: a count mismatch and
// each individually missing required feature.
func (v *Validation) checkPartition(name string, table *dataset.Table, buf *strings.Builder) {
	if table.NumCols() != len(v.schema.Features) {
		fmt.Fprintf(buf, "%s partition has %d columns, schema declares %d\n",
			name, table.NumCols(), len(v.schema.Features))
	}

	required := make([]string, 0, len(v.schema.NumericalFeatures)+len(v.schema.CategoricalFeatures))
	required = append(required, v.schema.NumericalFeatures...)
	required = append(required, v.schema.CategoricalFeatures...)
	for _, feature := range required {
		if !table.HasColumn(feature) {
			fmt.Fprintf(buf, "%s partition is missing required feature %s\n", name, feature)
		}
	}
}
