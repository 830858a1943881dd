// Package registry persists pipeline run records so the serving layer and
// the CLI can answer what ran, when, and what came of it.
package registry

import (
	"errors"

	"github.com/versich-treue/vtml-go/pkg/models"
)

// ErrRunNotFound is returned when no run matches a lookup.
var ErrRunNotFound = errors.New("run not found")

// Store is the run registry the orchestrator writes to and the API reads
// from.
type Store interface {
	// SaveRun inserts or replaces a run record keyed by its ID.
	SaveRun(run *models.RunRecord) error
	// GetRun returns the run with the given ID, or ErrRunNotFound.
	GetRun(id string) (*models.RunRecord, error)
	// ListRuns returns runs newest-first. A non-positive limit returns all.
	ListRuns(limit int) ([]*models.RunRecord, error)
	// LatestDeployed returns the newest run that deployed a model, or
	// ErrRunNotFound when no model has ever been deployed.
	LatestDeployed() (*models.RunRecord, error)
	Close() error
}
