package main

import (
	"context"
	"time"

	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/docstore"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
	"github.com/versich-treue/vtml-go/pkg/objectstore"
	"github.com/versich-treue/vtml-go/pkg/pipeline"
	"github.com/versich-treue/vtml-go/pkg/registry"
)

// deps holds the external collaborators both commands dial at startup: the
// document store the pipeline reads, the object store models deploy to,
// the run registry, and the two configuration documents.
type deps struct {
	cfg    *config.Config
	docs   *docstore.Client
	store  *objectstore.S3Store
	runs   *registry.SQLiteStore
	schema *config.FeatureSchema
	mc     *config.ModelConfig
}

func buildDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	schema, err := config.LoadFeatureSchema(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}
	mc, err := config.LoadModelConfig(cfg.ModelConfigPath)
	if err != nil {
		return nil, err
	}

	docs, err := docstore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	store, err := objectstore.New(ctx, cfg)
	if err != nil {
		_ = docs.Close(ctx)
		return nil, err
	}
	runs, err := registry.NewSQLiteStore(cfg.RegistryPath)
	if err != nil {
		_ = docs.Close(ctx)
		return nil, err
	}

	return &deps{
		cfg:    cfg,
		docs:   docs,
		store:  store,
		runs:   runs,
		schema: schema,
		mc:     mc,
	}, nil
}

// close releases the connections on a fresh context; the command context
// is usually already cancelled when shutdown reaches this point.
func (d *deps) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := logging.GetLogger()
	if err := d.docs.Close(ctx); err != nil {
		logger.Error("Closing document store", err, logging.Component("main"))
	}
	if err := d.runs.Close(); err != nil {
		logger.Error("Closing run registry", err, logging.Component("main"))
	}
}

// run executes one pipeline run over a fresh per-run configuration, so
// every run gets its own artifact directory and run ID.
func (d *deps) run(ctx context.Context, trigger string) (*models.RunRecord, error) {
	rc := config.NewRunConfig(d.cfg)
	orch := pipeline.New(rc, d.schema, d.mc, d.docs, d.store, d.runs)
	return orch.Run(ctx, trigger)
}
