package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/versich-treue/vtml-go/pkg/bundle"
	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/dataset"
	"github.com/versich-treue/vtml-go/pkg/models"
)

// fakeSource returns a canned snapshot or error in place of the document
// store.
type fakeSource struct {
	table *dataset.Table
	err   error
}

func (f *fakeSource) ExportCollection(ctx context.Context, database, collection string) (*dataset.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

// fakeStore is an in-memory object store that tracks uploads.
type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	uploads  int
	fetchErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStore) Upload(ctx context.Context, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.uploads++
	return nil
}

func (f *fakeStore) FetchBundle(ctx context.Context, key string) (*bundle.ModelBundle, bool, error) {
	if f.fetchErr != nil {
		return nil, false, f.fetchErr
	}
	f.mu.Lock()
	data, ok := f.objects[key]
	f.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	b, err := bundle.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (f *fakeStore) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// fakeRegistry records every run snapshot the orchestrator persists.
type fakeRegistry struct {
	mu        sync.Mutex
	snapshots []models.RunRecord
}

func (f *fakeRegistry) SaveRun(run *models.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, *run)
	return nil
}

func (f *fakeRegistry) GetRun(id string) (*models.RunRecord, error) { return nil, nil }

func (f *fakeRegistry) ListRuns(limit int) ([]*models.RunRecord, error) { return nil, nil }

func (f *fakeRegistry) LatestDeployed() (*models.RunRecord, error) { return nil, nil }

func (f *fakeRegistry) Close() error { return nil }

func (f *fakeRegistry) stages() []models.Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	stages := make([]models.Stage, len(f.snapshots))
	for i, s := range f.snapshots {
		stages[i] = s.Stage
	}
	return stages
}

// testRunConfig derives a per-run configuration rooted in a temp directory.
func testRunConfig(t *testing.T) *config.RunConfig {
	t.Helper()
	root := t.TempDir()
	return &config.RunConfig{
		RunID:        "run-test",
		PipelineName: "versich-treue",
		Timestamp:    "01-Jan-26_00:00:00",
		ArtifactDir:  root,

		DatabaseName:     "testdb",
		CollectionName:   "testdata",
		FeatureStorePath: filepath.Join(root, "data_ingestion", "feature_store", "data.csv"),
		TrainPath:        filepath.Join(root, "data_ingestion", "ingested", "train.csv"),
		TestPath:         filepath.Join(root, "data_ingestion", "ingested", "test.csv"),
		TestFraction:     0.2,
		SplitSeed:        42,

		ValidationReportPath: filepath.Join(root, "data_validation", "report", "report.yaml"),

		PreprocessorPath: filepath.Join(root, "data_transformation", "transformed_object", "preprocessing.gob"),
		TrainArrayPath:   filepath.Join(root, "data_transformation", "transformed", "train.csv"),
		TestArrayPath:    filepath.Join(root, "data_transformation", "transformed", "test.csv"),

		ModelPath:          filepath.Join(root, "model_trainer", "trained_model", "model.gob"),
		TrainingReportPath: filepath.Join(root, "model_trainer", "report", "report.yaml"),

		EvaluationReportPath: filepath.Join(root, "model_evaluation", "report", "report.yaml"),

		Bucket:           "test-bucket",
		RemoteModelKey:   "model-registry/model.gob",
		RemoveLocalModel: false,
	}
}

func testModelConfig() *config.ModelConfig {
	return &config.ModelConfig{
		NEstimators:       5,
		Criterion:         "gini",
		MaxDepth:          8,
		MinSamplesSplit:   2,
		MinSamplesLeaf:    1,
		MaxFeatures:       "all",
		Bootstrap:         true,
		RandomSeed:        42,
		ThresholdAccuracy: 0.5,
	}
}

// insuranceSchema declares the full twelve-column snapshot layout.
func insuranceSchema() *config.FeatureSchema {
	return &config.FeatureSchema{
		Features: []string{
			"id", "Gender", "Age", "Driving_License", "Region_Code",
			"Previously_Insured", "Vehicle_Age", "Vehicle_Damage",
			"Annual_Premium", "Policy_Sales_Channel", "Vintage", "Response",
		},
		NumericalFeatures: []string{
			"id", "Age", "Driving_License", "Region_Code", "Previously_Insured",
			"Annual_Premium", "Policy_Sales_Channel", "Vintage", "Response",
		},
		CategoricalFeatures:    []string{"Gender", "Vehicle_Age", "Vehicle_Damage"},
		DropFeatures:           []string{"id"},
		LabelEncodingFeatures:  []string{"Gender", "Vehicle_Damage"},
		OneHotEncodingFeatures: []string{"Vehicle_Age"},
		RenameFeatures: []string{
			"Vehicle_Age_< 1 Year$Vehicle_Age_lt_1_Year",
			"Vehicle_Age_1-2 Year$Vehicle_Age_1_2_Year",
			"Vehicle_Age_> 2 Years$Vehicle_Age_gt_2_Years",
		},
		NormalizationFeatures:   []string{"Annual_Premium"},
		StandardizationFeatures: []string{"Age", "Vintage"},
		TargetFeatures:          []string{"Response"},
	}
}

// insuranceTable builds a synthetic snapshot with a separable signal:
// responders all carry past vehicle damage, older vehicles, and high
// premiums, so the two classes form tight clusters that survive resampling.
func insuranceTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	table := dataset.NewTable(insuranceSchema().Features)
	genders := []string{"Male", "Female"}
	for i := 0; i < n; i++ {
		gender := genders[i%2]
		var row []string
		if i%2 == 0 {
			row = []string{
				strconv.Itoa(i + 1), gender, "25", "1", "28",
				"1", "< 1 Year", "No",
				"2500.75", "152", "100", "0",
			}
		} else {
			row = []string{
				strconv.Itoa(i + 1), gender, "45", "1", "28",
				"0", "> 2 Years", "Yes",
				"38000.50", "152", "220", "1",
			}
		}
		require.NoError(t, table.AppendRow(row))
	}
	return table
}

// clusterSchema is a minimal all-numeric schema with no encoding or scaling
// steps; the fitted preprocessor passes features through unchanged.
func clusterSchema() *config.FeatureSchema {
	return &config.FeatureSchema{
		Features:          []string{"f1", "f2", "label"},
		NumericalFeatures: []string{"f1", "f2", "label"},
		TargetFeatures:    []string{"label"},
	}
}

// writeClusterPartitions persists two separated 2D clusters as the ingested
// train/test files and returns the matching artifact.
func writeClusterPartitions(t *testing.T, cfg *config.RunConfig) models.IngestionArtifact {
	t.Helper()

	build := func(perClass int) *dataset.Table {
		table := dataset.NewTable([]string{"f1", "f2", "label"})
		for i := 0; i < perClass; i++ {
			jitter := strconv.FormatFloat(float64(i)*0.01, 'g', -1, 64)
			require.NoError(t, table.AppendRow([]string{jitter, jitter, "0"}))
			far := strconv.FormatFloat(10+float64(i)*0.01, 'g', -1, 64)
			require.NoError(t, table.AppendRow([]string{far, far, "1"}))
		}
		return table
	}

	require.NoError(t, build(12).WriteCSV(cfg.TrainPath))
	require.NoError(t, build(8).WriteCSV(cfg.TestPath))
	return models.IngestionArtifact{TrainPath: cfg.TrainPath, TestPath: cfg.TestPath}
}

// transformedClusters runs the transformation stage over the cluster
// partitions and returns its artifact.
func transformedClusters(t *testing.T, cfg *config.RunConfig) models.TransformationArtifact {
	t.Helper()
	ing := writeClusterPartitions(t, cfg)
	art, err := NewTransformation(cfg, clusterSchema()).Transform(context.Background(), ing, models.ValidationArtifact{})
	require.NoError(t, err)
	return art
}
