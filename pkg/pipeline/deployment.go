package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
)

// Deployment uploads the accepted bundle to the production key, overwriting
// whatever is there. It does not re-check acceptance; the orchestrator only
// invokes it on an accepted run. Its own precondition is a present local
// model file.
type Deployment struct {
	cfg    *config.RunConfig
	store  ObjectStore
	logger *logging.Logger
}

// NewDeployment creates the deployment stage.
func NewDeployment(cfg *config.RunConfig, store ObjectStore) *Deployment {
	return &Deployment{cfg: cfg, store: store, logger: logging.GetLogger()}
}

// Deploy pushes the trained bundle to the remote key. The production key is
// a single shared slot: concurrent deployments race and the last writer
// wins. After a successful upload the local copy is removed when configured,
// leaving the remote store as the sole durable copy.
func (d *Deployment) Deploy(ctx context.Context, eval models.EvaluationArtifact) (models.DeploymentArtifact, error) {
	if eval.TrainedModelPath == "" {
		return models.DeploymentArtifact{}, fmt.Errorf("deployment: %w",
			&PreconditionError{Missing: "trained model path"})
	}
	if _, err := os.Stat(eval.TrainedModelPath); err != nil {
		return models.DeploymentArtifact{}, fmt.Errorf("deployment: %w",
			&PreconditionError{Missing: eval.TrainedModelPath})
	}

	d.logger.Info("Starting model deployment", logging.Component("deployment"),
		logging.String("bucket", d.cfg.Bucket),
		logging.String("remote_key", eval.RemoteModelKey))

	if err := d.store.Upload(ctx, eval.RemoteModelKey, eval.TrainedModelPath); err != nil {
		return models.DeploymentArtifact{}, fmt.Errorf("deployment: upload bundle: %w", err)
	}

	if d.cfg.RemoveLocalModel {
		if err := os.Remove(eval.TrainedModelPath); err != nil {
			d.logger.Warn("Failed to remove local model copy", logging.Component("deployment"),
				logging.String("path", eval.TrainedModelPath),
				logging.Err(err))
		}
	}

	d.logger.Info("Model deployment completed", logging.Component("deployment"),
		logging.String("bucket", d.cfg.Bucket),
		logging.String("remote_key", eval.RemoteModelKey))

	return models.DeploymentArtifact{
		Bucket:         d.cfg.Bucket,
		RemoteModelKey: eval.RemoteModelKey,
	}, nil
}
