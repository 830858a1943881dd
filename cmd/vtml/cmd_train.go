package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run the training pipeline once",
	Long: `Runs one pipeline pass: ingest the collection snapshot, validate it
against the feature schema, transform, train, evaluate against the
production model, and deploy on a win.

A run whose model loses to the incumbent exits zero; a rejection is a
verdict, not a failure. Only pipeline errors exit non-zero.`,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger := logging.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	record, err := d.run(ctx, "manual")
	if err != nil {
		return err
	}

	switch record.Status {
	case models.RunStatusRejected:
		logger.Info("Model rejected, production incumbent stays",
			logging.String("run_id", record.ID),
			logging.Component("main"))
	case models.RunStatusDeployed:
		logger.Info("Model deployed",
			logging.String("run_id", record.ID),
			logging.String("remote_key", cfg.RemoteModelKey),
			logging.Component("main"))
	}
	return nil
}
