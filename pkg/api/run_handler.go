package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/models"
	"github.com/versich-treue/vtml-go/pkg/queue"
	"github.com/versich-treue/vtml-go/pkg/registry"
)

// TrainRequest optionally raises the queue priority of a manual run. An
// empty body enqueues with the default priority.
type TrainRequest struct {
	Priority int `json:"priority"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	task := s.queue.Submit("manual", req.Priority)
	s.logger.Info("training run enqueued",
		logging.String("task_id", task.ID),
		logging.Int("priority", task.Priority),
		logging.Component("api"))
	writeJSON(w, http.StatusAccepted, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	task, err := s.queue.Get(id)
	if err != nil {
		if errors.Is(err, queue.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("task %s not found", id))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.ListRuns(parseLimit(r, 20))
	if err != nil {
		s.logger.Error("listing runs", err, logging.Component("api"))
		writeError(w, http.StatusInternalServerError, "listing runs failed")
		return
	}
	if runs == nil {
		runs = []*models.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := s.runs.GetRun(id)
	if err != nil {
		if errors.Is(err, registry.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", id))
			return
		}
		s.logger.Error("loading run", err,
			logging.String("run_id", id),
			logging.Component("api"))
		writeError(w, http.StatusInternalServerError, "loading run failed")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
