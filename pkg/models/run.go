package models

import "time"

// RunStatus is the lifecycle status of a pipeline run.
type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusDeployed RunStatus = "deployed"
	RunStatusRejected RunStatus = "rejected"
	RunStatusFailed   RunStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusDeployed, RunStatusRejected, RunStatusFailed:
		return true
	}
	return false
}

// Stage is the furthest pipeline stage a run has completed.
type Stage string

const (
	StageInit        Stage = "init"
	StageIngested    Stage = "ingested"
	StageValidated   Stage = "validated"
	StageTransformed Stage = "transformed"
	StageTrained     Stage = "trained"
	StageEvaluated   Stage = "evaluated"
	StageDeployed    Stage = "deployed"
	StageRejected    Stage = "rejected"
	StageFailed      Stage = "failed"
)

// RunRecord is one pipeline run as stored in the registry.
type RunRecord struct {
	ID           string                 `json:"id"`
	PipelineName string                 `json:"pipeline_name"`
	Timestamp    string                 `json:"timestamp"`
	Status       RunStatus              `json:"status"`
	Stage        Stage                  `json:"stage"`
	Trigger      string                 `json:"trigger,omitempty"`
	ArtifactDir  string                 `json:"artifact_dir"`
	Metrics      *ClassificationMetrics `json:"metrics,omitempty"`
	Accepted     *bool                  `json:"accepted,omitempty"`
	Error        string                 `json:"error,omitempty"`
	StartedAt    time.Time              `json:"started_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}
