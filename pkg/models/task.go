package models

import "time"

// TaskStatus is the lifecycle status of a queued training request.
type TaskStatus string

const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// TrainTask is one request for a pipeline run, as held by the in-memory
// queue. RunID links the task to its registry record once the run starts;
// a task whose run was rejected still completes, the verdict lives on the
// run record.
type TrainTask struct {
	ID          string     `json:"id"`
	Trigger     string     `json:"trigger"`
	Priority    int        `json:"priority"`
	Status      TaskStatus `json:"status"`
	RunID       string     `json:"run_id,omitempty"`
	Error       string     `json:"error,omitempty"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
