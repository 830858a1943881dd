// Package api exposes the trained model and the training pipeline over
// HTTP: single-record prediction, on-demand retraining, and run inspection.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/versich-treue/vtml-go/pkg/bundle"
	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/logging"
	"github.com/versich-treue/vtml-go/pkg/queue"
	"github.com/versich-treue/vtml-go/pkg/registry"
)

// BundleFetcher is the slice of the object store the server needs: it
// resolves the production model key to a deployable bundle.
type BundleFetcher interface {
	FetchBundle(ctx context.Context, key string) (*bundle.ModelBundle, bool, error)
}

// Server serves predictions from the production bundle and lets clients
// enqueue training runs and inspect their outcomes.
type Server struct {
	router *mux.Router
	cfg    *config.Config
	queue  *queue.Queue
	runs   registry.Store
	store  BundleFetcher
	logger *logging.Logger

	// Production bundle cache. Loaded lazily on the first prediction and
	// dropped by InvalidateModel after a run deploys a new model.
	mu     sync.RWMutex
	bundle *bundle.ModelBundle
}

// NewServer wires the HTTP surface. The queue backs POST /train, the
// registry backs the run endpoints, and the fetcher resolves the
// production model for predictions.
func NewServer(cfg *config.Config, q *queue.Queue, runs registry.Store, store BundleFetcher) *Server {
	s := &Server{
		router: mux.NewRouter(),
		cfg:    cfg,
		queue:  q,
		runs:   runs,
		store:  store,
		logger: logging.GetLogger(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/predict", s.handlePredict).Methods("POST")
	v1.HandleFunc("/train", s.handleTrain).Methods("POST")
	v1.HandleFunc("/tasks/{id}", s.handleGetTask).Methods("GET")
	v1.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	v1.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	v1.HandleFunc("/model", s.handleGetModel).Methods("GET")
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then drains in-flight requests
// before returning.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening",
			logging.String("addr", s.cfg.HTTPAddr),
			logging.Component("api"))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "vtml",
	})
}
