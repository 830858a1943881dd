package pipeline

import (
	"context"
	"fmt"

	"github.com/versich-treue/vtml-go/pkg/bundle"
	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/dataset"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/ml"
	"github.com/versich-treue/vtml-go/pkg/models"
)

// ObjectStore is the remote model-registry surface used by evaluation and
// deployment.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Upload(ctx context.Context, key, localPath string) error
	FetchBundle(ctx context.Context, key string) (*bundle.ModelBundle, bool, error)
}

// Evaluation compares the newly trained model against the incumbent bundle
// at the production key. A missing incumbent is a normal condition scored
// as accuracy 0.0, so the first trained model is always promoted.
type Evaluation struct {
	cfg    *config.RunConfig
	store  ObjectStore
	logger *logging.Logger
}

// NewEvaluation creates the evaluation stage.
func NewEvaluation(cfg *config.RunConfig, store ObjectStore) *Evaluation {
	return &Evaluation{cfg: cfg, store: store, logger: logging.GetLogger()}
}

// Evaluate scores the incumbent, if one exists, on the same transformed test
// features the training stage used, then accepts the new model iff its
// accuracy strictly exceeds the incumbent's. The signed discrepancy is
// recorded in the report either way. Pure comparison: neither model is
// retrained or modified.
func (e *Evaluation) Evaluate(ctx context.Context, _ models.IngestionArtifact, trans models.TransformationArtifact, training models.TrainingArtifact) (models.EvaluationArtifact, error) {
	e.logger.Info("Starting model evaluation", logging.Component("evaluation"),
		logging.String("remote_key", e.cfg.RemoteModelKey))

	incumbent, found, err := e.store.FetchBundle(ctx, e.cfg.RemoteModelKey)
	if err != nil {
		return models.EvaluationArtifact{}, fmt.Errorf("evaluation: fetch incumbent: %w", err)
	}

	incumbentAccuracy := 0.0
	if found {
		incumbentAccuracy, err = e.scoreIncumbent(incumbent, trans.TestArrayPath)
		if err != nil {
			return models.EvaluationArtifact{}, fmt.Errorf("evaluation: score incumbent: %w", err)
		}
		e.logger.Info("Incumbent model scored", logging.Component("evaluation"),
			logging.Float("incumbent_accuracy", incumbentAccuracy))
	} else {
		e.logger.Info("No incumbent model deployed", logging.Component("evaluation"))
	}

	accepted := training.Metrics.Accuracy > incumbentAccuracy
	discrepancy := ml.Round5(training.Metrics.Accuracy - incumbentAccuracy)

	report := evaluationReport{
		ModelAccepted:       accepted,
		TrainedAccuracy:     training.Metrics.Accuracy,
		IncumbentAccuracy:   incumbentAccuracy,
		AccuracyDiscrepancy: discrepancy,
	}
	if err := writeReport(e.cfg.EvaluationReportPath, report); err != nil {
		return models.EvaluationArtifact{}, fmt.Errorf("evaluation: write report: %w", err)
	}

	e.logger.Info("Model evaluation completed", logging.Component("evaluation"),
		logging.Bool("accepted", accepted),
		logging.Float("discrepancy", discrepancy))

	return models.EvaluationArtifact{
		ModelAccepted:       accepted,
		TrainedModelPath:    training.ModelPath,
		RemoteModelKey:      e.cfg.RemoteModelKey,
		AccuracyDiscrepancy: discrepancy,
	}, nil
}

// scoreIncumbent runs the incumbent bundle over the transformed test matrix
// and returns its accuracy. The bundle applies its own preprocessor on top
// of the already scaled features.
func (e *Evaluation) scoreIncumbent(incumbent *bundle.ModelBundle, testArrayPath string) (float64, error) {
	testMat, err := dataset.ReadMatrix(testArrayPath)
	if err != nil {
		return 0, fmt.Errorf("load test array: %w", err)
	}
	testX, testY, err := testMat.SplitLabels()
	if err != nil {
		return 0, fmt.Errorf("split test array: %w", err)
	}

	preds, err := incumbent.Predict(testX)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	return ml.Accuracy(testY, preds)
}
