// Package pipeline implements the six-stage training pipeline and the
// orchestrator that sequences it: ingest, validate, transform, train,
// evaluate, deploy. Each stage is a struct constructed with its
// collaborators and the immutable per-run configuration; stages communicate
// only through the artifact values defined in pkg/models.
package pipeline

import (
	"context"
	"fmt"

	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/dataset"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
)

// DocumentSource is the ingestion-facing view of the document store.
// Implementations return a full snapshot of the collection; no streaming,
// no partial results.
type DocumentSource interface {
	ExportCollection(ctx context.Context, database, collection string) (*dataset.Table, error)
}

// Ingestion pulls the raw collection snapshot, persists it to the feature
// store, and splits it into train/test partitions with a fixed seed.
type Ingestion struct {
	cfg    *config.RunConfig
	source DocumentSource
	logger *logging.Logger
}

// NewIngestion creates the ingestion stage.
func NewIngestion(cfg *config.RunConfig, source DocumentSource) *Ingestion {
	return &Ingestion{cfg: cfg, source: source, logger: logging.GetLogger()}
}

// Ingest exports the configured collection, writes the feature-store copy,
// and persists the seeded split. An empty export aborts before any file is
// written under the run directory. Failures are wrapped and returned
// immediately; the stage never retries.
func (i *Ingestion) Ingest(ctx context.Context) (models.IngestionArtifact, error) {
	i.logger.Info("Starting data ingestion", logging.Component("ingestion"),
		logging.String("collection", i.cfg.CollectionName))

	table, err := i.source.ExportCollection(ctx, i.cfg.DatabaseName, i.cfg.CollectionName)
	if err != nil {
		return models.IngestionArtifact{}, fmt.Errorf("ingestion: export collection %s: %w: %w", i.cfg.CollectionName, ErrSourceUnavailable, err)
	}
	if table.NumRows() == 0 {
		return models.IngestionArtifact{}, fmt.Errorf("ingestion: collection %s: %w", i.cfg.CollectionName, ErrEmptyDataset)
	}

	if err := table.WriteCSV(i.cfg.FeatureStorePath); err != nil {
		return models.IngestionArtifact{}, fmt.Errorf("ingestion: write feature store: %w", err)
	}

	train, test, err := dataset.Split(table, i.cfg.TestFraction, i.cfg.SplitSeed)
	if err != nil {
		return models.IngestionArtifact{}, fmt.Errorf("ingestion: split: %w", err)
	}

	if err := train.WriteCSV(i.cfg.TrainPath); err != nil {
		return models.IngestionArtifact{}, fmt.Errorf("ingestion: write train partition: %w", err)
	}
	if err := test.WriteCSV(i.cfg.TestPath); err != nil {
		return models.IngestionArtifact{}, fmt.Errorf("ingestion: write test partition: %w", err)
	}

	i.logger.Info("Data ingestion completed", logging.Component("ingestion"),
		logging.Int("rows", table.NumRows()),
		logging.Int("train_rows", train.NumRows()),
		logging.Int("test_rows", test.NumRows()))

	return models.IngestionArtifact{
		TrainPath: i.cfg.TrainPath,
		TestPath:  i.cfg.TestPath,
	}, nil
}
