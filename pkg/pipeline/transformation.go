package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/dataset"
	"github.com/versich-treue/vtml-go/pkg/features"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
	"github.com/versich-treue/vtml-go/pkg/sampling"
)

// Transformation encodes, scales, and balances the ingested partitions into
// numeric train/test matrices plus a reusable fitted preprocessor. The
// encoding plan is fitted on the train inputs; label encoding alone refits
// per partition, matching the production behavior this pipeline replaces.
type Transformation struct {
	cfg    *config.RunConfig
	schema *config.FeatureSchema
	logger *logging.Logger
}

// NewTransformation creates the transformation stage.
func NewTransformation(cfg *config.RunConfig, schema *config.FeatureSchema) *Transformation {
	return &Transformation{cfg: cfg, schema: schema, logger: logging.GetLogger()}
}

// Transform runs the full feature pipeline on both partitions: split off the
// target, apply the encoding plan, fit scalers on train only, resample each
// partition toward the minority class, and persist the matrices with the
// label as the final column. Any fit or encode error aborts the stage;
// partial artifacts are never valid.
func (t *Transformation) Transform(ctx context.Context, ing models.IngestionArtifact, _ models.ValidationArtifact) (models.TransformationArtifact, error) {
	t.logger.Info("Starting data transformation", logging.Component("transformation"))

	target := t.schema.TargetFeatures[0]

	trainInputs, trainLabels, err := t.loadPartition(ing.TrainPath, target)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: train partition: %w", err)
	}
	testInputs, testLabels, err := t.loadPartition(ing.TestPath, target)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: test partition: %w", err)
	}

	plan, err := features.BuildPlan(t.schema)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: build plan: %w: %w", ErrTransformFit, err)
	}

	trainEncoded, err := plan.FitApply(trainInputs)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: encode train inputs: %w: %w", ErrTransformFit, err)
	}
	testEncoded, err := plan.Apply(testInputs)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: encode test inputs: %w: %w", ErrTransformFit, err)
	}

	trainMat, err := trainEncoded.ToMatrix()
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: train inputs not numeric: %w: %w", ErrTransformFit, err)
	}
	testMat, err := testEncoded.ToMatrix()
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: test inputs not numeric: %w: %w", ErrTransformFit, err)
	}

	// Scaling parameters come from the train split only so no test
	// statistics leak into the fitted transform.
	pre := features.NewPreprocessor(t.schema.NormalizationFeatures, t.schema.StandardizationFeatures)
	if err := pre.Fit(trainMat.Columns, trainMat.Data); err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: fit preprocessor: %w: %w", ErrTransformFit, err)
	}

	trainX, err := pre.Transform(trainMat.Data)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: scale train inputs: %w: %w", ErrTransformFit, err)
	}
	testX, err := pre.Transform(testMat.Data)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: scale test inputs: %w: %w", ErrTransformFit, err)
	}

	// Both partitions are rebalanced, the test split included. The reported
	// metrics depend on the resampled test distribution.
	resampler := sampling.NewSMOTEENN(t.cfg.SplitSeed)
	trainX, trainLabels, err = resampler.Resample(trainX, trainLabels)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: resample train split: %w: %w", ErrTransformFit, err)
	}
	testX, testLabels, err = resampler.Resample(testX, testLabels)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: resample test split: %w: %w", ErrTransformFit, err)
	}

	trainOut, err := (&dataset.Matrix{Columns: trainMat.Columns, Data: trainX}).AppendLabels(target, trainLabels)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: assemble train array: %w", err)
	}
	testOut, err := (&dataset.Matrix{Columns: testMat.Columns, Data: testX}).AppendLabels(target, testLabels)
	if err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: assemble test array: %w", err)
	}

	if err := pre.Save(t.cfg.PreprocessorPath); err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: save preprocessor: %w", err)
	}
	if err := trainOut.WriteCSV(t.cfg.TrainArrayPath); err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: write train array: %w", err)
	}
	if err := testOut.WriteCSV(t.cfg.TestArrayPath); err != nil {
		return models.TransformationArtifact{}, fmt.Errorf("transformation: write test array: %w", err)
	}

	t.logger.Info("Data transformation completed", logging.Component("transformation"),
		logging.Int("train_rows", trainOut.NumRows()),
		logging.Int("test_rows", testOut.NumRows()),
		logging.Int("feature_columns", len(trainMat.Columns)))

	return models.TransformationArtifact{
		PreprocessorPath: t.cfg.PreprocessorPath,
		TrainArrayPath:   t.cfg.TrainArrayPath,
		TestArrayPath:    t.cfg.TestArrayPath,
	}, nil
}

// loadPartition reads one ingested partition and splits it into input
// features and integer labels.
func (t *Transformation) loadPartition(path, target string) (*dataset.Table, []int, error) {
	table, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, nil, err
	}
	inputs, rawLabels, err := table.SplitTarget(target)
	if err != nil {
		return nil, nil, err
	}
	labels, err := parseLabels(rawLabels, target)
	if err != nil {
		return nil, nil, err
	}
	return inputs, labels, nil
}

func parseLabels(values []string, column string) ([]int, error) {
	labels := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("target %s row %d: non-integer label %q", column, i, v)
		}
		labels[i] = n
	}
	return labels, nil
}
