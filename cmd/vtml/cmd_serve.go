package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/versich-treue/vtml-go/pkg/api"
	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
	"github.com/versich-treue/vtml-go/pkg/queue"
	"github.com/versich-treue/vtml-go/pkg/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions and accept retraining runs",
	Long: `Starts the HTTP service: predictions from the production model, run
inspection, and on-demand retraining. Queued runs execute one at a time
on an in-process runner; VT_RETRAIN_SCHEDULE adds a cron trigger.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	q := queue.NewQueue()
	server := api.NewServer(cfg, q, d.runs, d.store)

	// Each task becomes one full pipeline run. A deployment swaps the
	// production model, so the served bundle cache must be dropped.
	runner := queue.NewRunner(q, func(ctx context.Context, task *models.TrainTask) (*models.RunRecord, error) {
		record, err := d.run(ctx, task.Trigger)
		if err != nil {
			return record, err
		}
		if record.Status == models.RunStatusDeployed {
			server.InvalidateModel()
		}
		return record, nil
	})
	runner.Start(ctx)
	defer runner.Stop()

	sched, err := scheduler.New(q, cfg.RetrainSchedule)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	return server.Start(ctx)
}
