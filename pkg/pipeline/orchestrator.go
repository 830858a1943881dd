package pipeline

import (
	"context"
	"time"

	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
	"github.com/versich-treue/vtml-go/pkg/registry"
)

// Orchestrator sequences the six stages of one run. Execution is strictly
// sequential on the calling goroutine; the single branch point is the
// evaluation verdict, which routes the run to Deployed or Rejected. Any
// stage error moves the run to Failed immediately, with no retries and no
// rollback of artifacts already written.
type Orchestrator struct {
	cfg      *config.RunConfig
	ingest   *Ingestion
	validate *Validation
	trans    *Transformation
	train    *Training
	evaluate *Evaluation
	deploy   *Deployment
	registry registry.Store
	logger   *logging.Logger
}

// New wires the six stages around the shared collaborators. The registry
// may be nil; run progress is then not persisted.
func New(cfg *config.RunConfig, schema *config.FeatureSchema, mc *config.ModelConfig,
	source DocumentSource, store ObjectStore, reg registry.Store) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		ingest:   NewIngestion(cfg, source),
		validate: NewValidation(cfg, schema),
		trans:    NewTransformation(cfg, schema),
		train:    NewTraining(cfg, mc),
		evaluate: NewEvaluation(cfg, store),
		deploy:   NewDeployment(cfg, store),
		registry: reg,
		logger:   logging.GetLogger(),
	}
}

// Run executes one pipeline run to a terminal state and returns its record.
// The error is non-nil only when the run failed; a rejected model is a
// normal completion. The returned record matches what the registry holds.
func (o *Orchestrator) Run(ctx context.Context, trigger string) (*models.RunRecord, error) {
	record := &models.RunRecord{
		ID:           o.cfg.RunID,
		PipelineName: o.cfg.PipelineName,
		Timestamp:    o.cfg.Timestamp,
		Status:       models.RunStatusRunning,
		Stage:        models.StageInit,
		Trigger:      trigger,
		ArtifactDir:  o.cfg.ArtifactDir,
		StartedAt:    time.Now().UTC(),
	}
	o.saveRecord(record)

	o.logger.Info("Starting pipeline run", logging.Component("orchestrator"),
		logging.String("run_id", record.ID),
		logging.String("trigger", trigger))

	ingArt, err := o.ingest.Ingest(ctx)
	if err != nil {
		return o.fail(record, err)
	}
	o.advance(record, models.StageIngested)

	valArt, err := o.validate.Validate(ctx, ingArt)
	if err != nil {
		return o.fail(record, err)
	}
	if !valArt.Status {
		// Validation failure is recorded, not fatal; the run proceeds.
		o.logger.Warn("Proceeding with failed validation", logging.Component("orchestrator"),
			logging.String("run_id", record.ID),
			logging.String("message", valArt.Message))
	}
	o.advance(record, models.StageValidated)

	transArt, err := o.trans.Transform(ctx, ingArt, valArt)
	if err != nil {
		return o.fail(record, err)
	}
	o.advance(record, models.StageTransformed)

	trainArt, err := o.train.Train(ctx, transArt)
	if err != nil {
		return o.fail(record, err)
	}
	record.Metrics = &trainArt.Metrics
	o.advance(record, models.StageTrained)

	evalArt, err := o.evaluate.Evaluate(ctx, ingArt, transArt, trainArt)
	if err != nil {
		return o.fail(record, err)
	}
	accepted := evalArt.ModelAccepted
	record.Accepted = &accepted
	o.advance(record, models.StageEvaluated)

	if !evalArt.ModelAccepted {
		return o.finish(record, models.StageRejected, models.RunStatusRejected), nil
	}

	if _, err := o.deploy.Deploy(ctx, evalArt); err != nil {
		return o.fail(record, err)
	}
	return o.finish(record, models.StageDeployed, models.RunStatusDeployed), nil
}

func (o *Orchestrator) advance(record *models.RunRecord, stage models.Stage) {
	record.Stage = stage
	o.saveRecord(record)
}

func (o *Orchestrator) finish(record *models.RunRecord, stage models.Stage, status models.RunStatus) *models.RunRecord {
	now := time.Now().UTC()
	record.Stage = stage
	record.Status = status
	record.CompletedAt = &now
	o.saveRecord(record)

	o.logger.Info("Pipeline run finished", logging.Component("orchestrator"),
		logging.String("run_id", record.ID),
		logging.String("status", string(status)))
	return record
}

func (o *Orchestrator) fail(record *models.RunRecord, err error) (*models.RunRecord, error) {
	now := time.Now().UTC()
	record.Stage = models.StageFailed
	record.Status = models.RunStatusFailed
	record.Error = err.Error()
	record.CompletedAt = &now
	o.saveRecord(record)

	o.logger.Error("Pipeline run failed", err, logging.Component("orchestrator"),
		logging.String("run_id", record.ID))
	return record, err
}

// saveRecord persists run progress. Registry failures are logged, never
// fatal to the run itself.
func (o *Orchestrator) saveRecord(record *models.RunRecord) {
	if o.registry == nil {
		return
	}
	if err := o.registry.SaveRun(record); err != nil {
		o.logger.Error("Failed to persist run record", err, logging.Component("orchestrator"),
			logging.String("run_id", record.ID))
	}
}
