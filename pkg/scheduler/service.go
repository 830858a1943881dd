// Package scheduler submits periodic retraining tasks to the run queue on a
// cron schedule.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
	"github.com/versich-treue/vtml-go/pkg/queue"
)

// Service wraps one cron entry: the configured retraining schedule. An
// empty schedule disables periodic retraining entirely; manual triggers
// through the API are unaffected.
type Service struct {
	queue   *queue.Queue
	cron    *cron.Cron
	spec    string
	entryID cron.EntryID
	logger  *logging.Logger
}

// New validates the cron expression and prepares the scheduler. Standard
// five-field expressions and descriptors like @daily are accepted.
func New(q *queue.Queue, spec string) (*Service, error) {
	s := &Service{
		queue:  q,
		cron:   cron.New(),
		spec:   spec,
		logger: logging.GetLogger(),
	}
	if spec == "" {
		return s, nil
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid retrain schedule %q: %w", spec, err)
	}
	s.entryID = s.cron.Schedule(schedule, cron.FuncJob(func() { s.trigger() }))
	return s, nil
}

// Enabled reports whether a retraining schedule is configured.
func (s *Service) Enabled() bool {
	return s.spec != ""
}

// Start begins firing the schedule. A disabled scheduler starts nothing.
func (s *Service) Start() {
	if !s.Enabled() {
		s.logger.Info("Retraining scheduler disabled", logging.Component("scheduler"))
		return
	}
	s.cron.Start()
	s.logger.Info("Retraining scheduler started", logging.Component("scheduler"),
		logging.String("schedule", s.spec),
		logging.String("next_run", s.cron.Entry(s.entryID).Next.String()))
}

// Stop halts the schedule and waits for an in-flight trigger to return.
// Triggers only enqueue, so the wait is momentary.
func (s *Service) Stop() {
	if !s.Enabled() {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("Retraining scheduler stopped", logging.Component("scheduler"))
}

// trigger submits one scheduled retraining task.
func (s *Service) trigger() *models.TrainTask {
	task := s.queue.Submit("scheduled", 0)
	s.logger.Info("Scheduled retraining triggered", logging.Component("scheduler"),
		logging.String("task_id", task.ID))
	return task
}
