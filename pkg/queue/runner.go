package queue

import (
	"context"

	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
)

// Executor runs one training pipeline for a dequeued task and returns the
// run record, which may be non-nil even on failure.
type Executor func(ctx context.Context, task *models.TrainTask) (*models.RunRecord, error)

// Runner drains the queue on a single goroutine, so at most one pipeline
// run is in flight at any time. A failed run fails its task and the runner
// moves on; the queue itself never stops on errors.
type Runner struct {
	queue  *Queue
	exec   Executor
	logger *logging.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a runner over the queue.
func NewRunner(q *Queue, exec Executor) *Runner {
	return &Runner{queue: q, exec: exec, logger: logging.GetLogger()}
}

// Start launches the drain loop. Tasks submitted before Start are picked up
// first.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	r.logger.Info("Training runner started", logging.Component("runner"))
	go r.loop(ctx)
}

// Stop cancels the loop and waits for any in-flight run to finish.
func (r *Runner) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.logger.Info("Training runner stopped", logging.Component("runner"))
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	for {
		r.drain(ctx)
		select {
		case <-ctx.Done():
			return
		case <-r.queue.ready():
		}
	}
}

// drain executes queued tasks until the queue is empty or the context is
// cancelled.
func (r *Runner) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := r.queue.dequeue()
		if err != nil {
			r.logger.Error("Failed to dequeue training task", err, logging.Component("runner"))
			return
		}
		if task == nil {
			return
		}
		r.execute(ctx, task)
	}
}

func (r *Runner) execute(ctx context.Context, task *models.TrainTask) {
	if err := r.queue.setStatus(task.ID, models.TaskStatusRunning, ""); err != nil {
		r.logger.Error("Failed to mark task running", err, logging.Component("runner"))
		return
	}
	r.logger.Info("Executing training task", logging.Component("runner"),
		logging.String("task_id", task.ID),
		logging.String("trigger", task.Trigger))

	record, err := r.exec(ctx, task)
	if record != nil {
		if attachErr := r.queue.attachRun(task.ID, record.ID); attachErr != nil {
			r.logger.Error("Failed to link task to run", attachErr, logging.Component("runner"))
		}
	}
	if err != nil {
		r.logger.Error("Training task failed", err, logging.Component("runner"),
			logging.String("task_id", task.ID))
		if statusErr := r.queue.setStatus(task.ID, models.TaskStatusFailed, err.Error()); statusErr != nil {
			r.logger.Error("Failed to mark task failed", statusErr, logging.Component("runner"))
		}
		return
	}

	if err := r.queue.setStatus(task.ID, models.TaskStatusCompleted, ""); err != nil {
		r.logger.Error("Failed to mark task completed", err, logging.Component("runner"))
		return
	}
	r.logger.Info("Training task completed", logging.Component("runner"),
		logging.String("task_id", task.ID))
}
