package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/versich-treue/vtml-go/pkg/bundle"
	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/features"
	"github.com/versich-treue/vtml-go/pkg/ml"
	"github.com/versich-treue/vtml-go/pkg/models"
	"github.com/versich-treue/vtml-go/pkg/queue"
	"github.com/versich-treue/vtml-go/pkg/registry"
)

// fakeFetcher serves a fixed bundle and counts store round-trips.
type fakeFetcher struct {
	mu     sync.Mutex
	bundle *bundle.ModelBundle
	err    error
	calls  int
}

func (f *fakeFetcher) FetchBundle(ctx context.Context, key string) (*bundle.ModelBundle, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, false, f.err
	}
	if f.bundle == nil {
		return nil, false, nil
	}
	return f.bundle, true, nil
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeRegistry keeps run records in memory, newest first.
type fakeRegistry struct {
	runs []*models.RunRecord
	err  error
}

func (f *fakeRegistry) SaveRun(run *models.RunRecord) error {
	f.runs = append([]*models.RunRecord{run}, f.runs...)
	return nil
}

func (f *fakeRegistry) GetRun(id string) (*models.RunRecord, error) {
	for _, run := range f.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", registry.ErrRunNotFound, id)
}

func (f *fakeRegistry) ListRuns(limit int) ([]*models.RunRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit <= 0 || limit > len(f.runs) {
		limit = len(f.runs)
	}
	out := make([]*models.RunRecord, limit)
	copy(out, f.runs[:limit])
	return out, nil
}

func (f *fakeRegistry) LatestDeployed() (*models.RunRecord, error) {
	for _, run := range f.runs {
		if run.Status == models.RunStatusDeployed {
			return run, nil
		}
	}
	return nil, registry.ErrRunNotFound
}

func (f *fakeRegistry) Close() error { return nil }

func newTestServer(t *testing.T, fetcher BundleFetcher, runs registry.Store) *Server {
	t.Helper()
	cfg := &config.Config{
		HTTPAddr:       ":0",
		RemoteModelKey: "model-registry/model.gob",
		PipelineName:   "versich-treue",
	}
	return NewServer(cfg, queue.NewQueue(), runs, fetcher)
}

// trainedBundle fits a small forest on two well separated clusters so
// predictions near either cluster are unambiguous: low age and premium
// mean class 0, high age and premium mean class 1.
func trainedBundle(t *testing.T) *bundle.ModelBundle {
	t.Helper()

	var X [][]float64
	var y []int
	for i := 0; i < 10; i++ {
		X = append(X, []float64{20 + float64(i), 1000 + float64(i)})
		y = append(y, 0)
		X = append(X, []float64{60 + float64(i), 50000 + float64(i)})
		y = append(y, 1)
	}

	forest := ml.NewRandomForest(&config.ModelConfig{
		NEstimators:       5,
		Criterion:         "gini",
		MaxDepth:          8,
		MinSamplesSplit:   2,
		MinSamplesLeaf:    1,
		MaxFeatures:       "all",
		Bootstrap:         true,
		RandomSeed:        42,
		ThresholdAccuracy: 0.5,
	})
	require.NoError(t, forest.Fit(X, y))

	pre := features.NewPreprocessor(nil, nil)
	require.NoError(t, pre.Fit([]string{"Age", "Annual_Premium"}, X))

	b, err := bundle.New(pre, forest, bundle.Metadata{
		ModelName:      "random-forest",
		Accuracy:       0.99,
		FeatureColumns: []string{"Age", "Annual_Premium"},
		TrainedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		RunID:          "run-live",
	})
	require.NoError(t, err)
	return b
}

func validPredictRequest(age, premium float64) PredictionRequest {
	return PredictionRequest{
		Age:                age,
		Gender:             "Male",
		Vintage:            100,
		RegionCode:         28,
		AnnualPremium:      premium,
		VehicleDamage:      "No",
		VehicleAge:         vehicleAgeUnderOne,
		DrivingLicense:     1,
		PreviouslyInsured:  0,
		PolicySalesChannel: 152,
	}
}

// doJSON runs one request through the full router, marshalling body when
// it is non-nil.
func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func doRaw(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}
