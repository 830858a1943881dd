package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
	"github.com/versich-treue/vtml-go/pkg/registry"
)

// ModelInfo describes the production model. DeployedRun carries the
// registry record of the run that produced it when this process (or a
// sibling sharing the registry) ran it; a model deployed elsewhere shows
// metadata only.
type ModelInfo struct {
	ModelName      string            `json:"model_name"`
	Accuracy       float64           `json:"accuracy"`
	FeatureColumns []string          `json:"feature_columns"`
	TrainedAt      time.Time         `json:"trained_at"`
	RunID          string            `json:"run_id,omitempty"`
	DeployedRun    *models.RunRecord `json:"deployed_run,omitempty"`
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	b, err := s.currentBundle(r.Context())
	if err != nil {
		if errors.Is(err, errNoModel) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	info := ModelInfo{
		ModelName:      b.Metadata.ModelName,
		Accuracy:       b.Metadata.Accuracy,
		FeatureColumns: b.Metadata.FeatureColumns,
		TrainedAt:      b.Metadata.TrainedAt,
		RunID:          b.Metadata.RunID,
	}
	run, err := s.runs.LatestDeployed()
	switch {
	case err == nil:
		info.DeployedRun = run
	case !errors.Is(err, registry.ErrRunNotFound):
		s.logger.Error("looking up latest deployed run", err, logging.Component("api"))
	}
	writeJSON(w, http.StatusOK, info)
}
