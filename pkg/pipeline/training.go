package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/versich-treue/vtml-go/pkg/bundle"
	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/dataset"
	"github.com/versich-treue/vtml-go/pkg/features"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/ml"
	"github.com/versich-treue/vtml-go/pkg/models"
)

// Training fits the random forest on the transformed training matrix,
// computes the six test-split metrics, gates on the configured accuracy
// floor, and bundles the preprocessor with the fitted classifier into the
// deployable unit.
type Training struct {
	cfg    *config.RunConfig
	mc     *config.ModelConfig
	logger *logging.Logger
}

// NewTraining creates the training stage.
func NewTraining(cfg *config.RunConfig, mc *config.ModelConfig) *Training {
	return &Training{cfg: cfg, mc: mc, logger: logging.GetLogger()}
}

// Train fits the classifier and evaluates it on the held-out test matrix.
// Accuracy below the threshold fails the stage closed: nothing is persisted
// and no downstream stage runs. On success the bundle and the metrics
// report are written.
func (s *Training) Train(ctx context.Context, trans models.TransformationArtifact) (models.TrainingArtifact, error) {
	s.logger.Info("Starting model training", logging.Component("training"),
		logging.Int("n_estimators", s.mc.NEstimators))

	trainMat, err := dataset.ReadMatrix(trans.TrainArrayPath)
	if err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: load train array: %w", err)
	}
	testMat, err := dataset.ReadMatrix(trans.TestArrayPath)
	if err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: load test array: %w", err)
	}

	trainX, trainY, err := trainMat.SplitLabels()
	if err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: split train array: %w", err)
	}
	testX, testY, err := testMat.SplitLabels()
	if err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: split test array: %w", err)
	}

	forest := ml.NewRandomForest(s.mc)
	if err := forest.Fit(trainX, trainY); err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: fit forest: %w", err)
	}
	s.logger.Info("Random forest trained", logging.Component("training"),
		logging.Int("train_rows", len(trainX)))

	preds, err := forest.PredictBatch(testX)
	if err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: predict test split: %w", err)
	}
	proba, err := forest.PredictProbaBatch(testX)
	if err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: predict test probabilities: %w", err)
	}
	metrics, err := ml.Evaluate(testY, preds, proba, forest.Classes)
	if err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: compute metrics: %w", err)
	}
	s.logger.Info("Classification report drafted", logging.Component("training"),
		logging.Float("accuracy", metrics.Accuracy),
		logging.Float("f1", metrics.F1),
		logging.Float("roc_auc", metrics.ROCAUC))

	if metrics.Accuracy < s.mc.ThresholdAccuracy {
		return models.TrainingArtifact{}, fmt.Errorf("training: %w",
			&ThresholdError{Accuracy: metrics.Accuracy, Threshold: s.mc.ThresholdAccuracy})
	}

	pre, err := features.LoadPreprocessor(trans.PreprocessorPath)
	if err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: load preprocessor: %w", err)
	}

	b, err := bundle.New(pre, forest, bundle.Metadata{
		ModelName:      s.cfg.PipelineName,
		Accuracy:       metrics.Accuracy,
		FeatureColumns: pre.Columns(),
		TrainedAt:      time.Now().UTC(),
		RunID:          s.cfg.RunID,
	})
	if err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: assemble bundle: %w", err)
	}

	if err := b.Save(s.cfg.ModelPath); err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: save bundle: %w", err)
	}
	if err := writeReport(s.cfg.TrainingReportPath, metrics); err != nil {
		return models.TrainingArtifact{}, fmt.Errorf("training: write report: %w", err)
	}

	s.logger.Info("Model training completed", logging.Component("training"),
		logging.String("model_path", s.cfg.ModelPath))

	return models.TrainingArtifact{
		ModelPath:  s.cfg.ModelPath,
		ReportPath: s.cfg.TrainingReportPath,
		Metrics:    metrics,
	}, nil
}
