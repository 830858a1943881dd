package pipeline

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versich-treue/vtml-go/pkg/dataset"
	"github.com/versich-treue/vtml-go/pkg/models"
)

func TestRunDeploysFirstModel(t *testing.T) {
	cfg := testRunConfig(t)
	store := newFakeStore()
	reg := &fakeRegistry{}
	orch := New(cfg, insuranceSchema(), testModelConfig(),
		&fakeSource{table: insuranceTable(t, 1000)}, store, reg)

	record, err := orch.Run(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusDeployed, record.Status)
	assert.Equal(t, models.StageDeployed, record.Stage)
	assert.Equal(t, "manual", record.Trigger)
	assert.Empty(t, record.Error)
	require.NotNil(t, record.Accepted)
	assert.True(t, *record.Accepted)
	require.NotNil(t, record.Metrics)
	assert.GreaterOrEqual(t, record.Metrics.Accuracy, 0.5)
	require.NotNil(t, record.CompletedAt)

	train, err := dataset.ReadCSV(cfg.TrainPath)
	require.NoError(t, err)
	test, err := dataset.ReadCSV(cfg.TestPath)
	require.NoError(t, err)
	assert.Equal(t, 1000, train.NumRows()+test.NumRows())
	assert.Equal(t, 200, test.NumRows())

	require.Equal(t, 1, store.uploadCount())
	deployed, found, err := store.FetchBundle(context.Background(), cfg.RemoteModelKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, cfg.RunID, deployed.Metadata.RunID)

	assert.Equal(t, []models.Stage{
		models.StageInit, models.StageIngested, models.StageValidated,
		models.StageTransformed, models.StageTrained, models.StageEvaluated,
		models.StageDeployed,
	}, reg.stages())
}

// clusterTable is the cluster fixture as a single raw collection snapshot.
func clusterTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	table := dataset.NewTable([]string{"f1", "f2", "label"})
	for i := 0; i < n; i++ {
		jitter := float64(i) * 0.01
		if i%2 == 0 {
			v := strconv.FormatFloat(jitter, 'g', -1, 64)
			require.NoError(t, table.AppendRow([]string{v, v, "0"}))
		} else {
			v := strconv.FormatFloat(10+jitter, 'g', -1, 64)
			require.NoError(t, table.AppendRow([]string{v, v, "1"}))
		}
	}
	return table
}

func TestRunRejectsWhenIncumbentIsAsGood(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{table: clusterTable(t, 100)}

	first := testRunConfig(t)
	record, err := New(first, clusterSchema(), testModelConfig(), source, store, nil).
		Run(context.Background(), "manual")
	require.NoError(t, err)
	require.Equal(t, models.RunStatusDeployed, record.Status)
	require.Equal(t, 1, store.uploadCount())
	incumbentBytes := append([]byte(nil), store.objects[first.RemoteModelKey]...)

	// Same data and seeds: the challenger scores exactly the incumbent's
	// accuracy, and a tie is not an improvement.
	second := testRunConfig(t)
	second.RunID = "run-challenger"
	reg := &fakeRegistry{}
	record, err = New(second, clusterSchema(), testModelConfig(), source, store, reg).
		Run(context.Background(), "manual")
	require.NoError(t, err, "a rejected run is a normal completion")

	assert.Equal(t, models.RunStatusRejected, record.Status)
	assert.Equal(t, models.StageRejected, record.Stage)
	require.NotNil(t, record.Accepted)
	assert.False(t, *record.Accepted)
	require.NotNil(t, record.CompletedAt)
	assert.Empty(t, record.Error)

	assert.Equal(t, 1, store.uploadCount(), "a rejected model must not reach the store")
	assert.Equal(t, incumbentBytes, store.objects[first.RemoteModelKey],
		"the incumbent bundle stays untouched")

	stages := reg.stages()
	require.NotEmpty(t, stages)
	assert.Equal(t, models.StageRejected, stages[len(stages)-1])

	_, statErr := os.Stat(second.ModelPath)
	assert.NoError(t, statErr, "the rejected bundle stays local only")
}

func TestRunFailsOnEmptySource(t *testing.T) {
	cfg := testRunConfig(t)
	store := newFakeStore()
	reg := &fakeRegistry{}
	empty := dataset.NewTable(insuranceSchema().Features)
	orch := New(cfg, insuranceSchema(), testModelConfig(), &fakeSource{table: empty}, store, reg)

	record, err := orch.Run(context.Background(), "scheduled")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	assert.Equal(t, models.RunStatusFailed, record.Status)
	assert.Equal(t, models.StageFailed, record.Stage)
	assert.Contains(t, record.Error, "empty dataset")
	require.NotNil(t, record.CompletedAt)

	entries, err := os.ReadDir(cfg.ArtifactDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "a failed ingestion leaves no artifacts behind")
	assert.Zero(t, store.uploadCount())

	assert.Equal(t, []models.Stage{models.StageInit, models.StageFailed}, reg.stages())
}

func TestRunProceedsPastFailedValidation(t *testing.T) {
	cfg := testRunConfig(t)
	store := newFakeStore()

	// The schema declares a feature the snapshot does not carry; validation
	// records the mismatch and the run continues to completion.
	schema := insuranceSchema()
	schema.Features = append(schema.Features, "Credit_Score")
	schema.NumericalFeatures = append(schema.NumericalFeatures, "Credit_Score")

	orch := New(cfg, schema, testModelConfig(),
		&fakeSource{table: insuranceTable(t, 200)}, store, nil)

	record, err := orch.Run(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusDeployed, record.Status)

	data, err := os.ReadFile(cfg.ValidationReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "status: false")
	assert.Contains(t, string(data), "Credit_Score")
}
