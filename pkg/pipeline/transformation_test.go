package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versich-treue/vtml-go/pkg/dataset"
	"github.com/versich-treue/vtml-go/pkg/features"
	"github.com/versich-treue/vtml-go/pkg/models"
)

func TestTransformProducesAlignedMatrices(t *testing.T) {
	cfg := testRunConfig(t)
	ing := ingestFixture(t, cfg, 200)

	art, err := NewTransformation(cfg, insuranceSchema()).Transform(context.Background(), ing, models.ValidationArtifact{})
	require.NoError(t, err)

	train, err := dataset.ReadMatrix(art.TrainArrayPath)
	require.NoError(t, err)
	test, err := dataset.ReadMatrix(art.TestArrayPath)
	require.NoError(t, err)

	wantColumns := []string{
		"Gender", "Age", "Driving_License", "Region_Code", "Previously_Insured",
		"Vehicle_Damage", "Annual_Premium", "Policy_Sales_Channel", "Vintage",
		"Vehicle_Age_lt_1_Year", "Vehicle_Age_gt_2_Years", "Response",
	}
	assert.Equal(t, wantColumns, train.Columns)
	assert.Equal(t, wantColumns, test.Columns)
	assert.NotZero(t, train.NumRows())
	assert.NotZero(t, test.NumRows())

	// The synthetic signal is exact: vehicle damage implies a positive label.
	// Resampling interpolates within a class only, so it must survive.
	damageIdx := train.ColumnIndex("Vehicle_Damage")
	premiumIdx := train.ColumnIndex("Annual_Premium")
	for _, m := range []*dataset.Matrix{train, test} {
		_, labels, err := m.SplitLabels()
		require.NoError(t, err)
		for i, row := range m.Data {
			assert.Equal(t, float64(labels[i]), row[damageIdx])
			assert.GreaterOrEqual(t, row[premiumIdx], 0.0)
			assert.LessOrEqual(t, row[premiumIdx], 1.0)
		}
	}
}

func TestTransformPersistsFittedScaler(t *testing.T) {
	cfg := testRunConfig(t)
	ing := ingestFixture(t, cfg, 200)

	art, err := NewTransformation(cfg, insuranceSchema()).Transform(context.Background(), ing, models.ValidationArtifact{})
	require.NoError(t, err)

	pre, err := features.LoadPreprocessor(art.PreprocessorPath)
	require.NoError(t, err)
	assert.Contains(t, pre.Columns(), "Annual_Premium")
	assert.Contains(t, pre.Columns(), "Age")
	assert.Contains(t, pre.Columns(), "Vintage")

	// The two premium levels in the fixture span the fitted range exactly.
	cols := pre.Columns()
	low := make([]float64, len(cols))
	high := make([]float64, len(cols))
	for i, name := range cols {
		switch name {
		case "Annual_Premium":
			low[i], high[i] = 2500.75, 38000.50
		case "Age":
			low[i], high[i] = 25, 45
		case "Vintage":
			low[i], high[i] = 100, 220
		}
	}
	out, err := pre.Transform([][]float64{low, high})
	require.NoError(t, err)
	premiumIdx := -1
	for i, name := range cols {
		if name == "Annual_Premium" {
			premiumIdx = i
		}
	}
	require.NotEqual(t, -1, premiumIdx)
	assert.InDelta(t, 0.0, out[0][premiumIdx], 1e-9)
	assert.InDelta(t, 1.0, out[1][premiumIdx], 1e-9)
}

func TestTransformIsRepeatable(t *testing.T) {
	cfg := testRunConfig(t)
	ing := ingestFixture(t, cfg, 200)

	art, err := NewTransformation(cfg, insuranceSchema()).Transform(context.Background(), ing, models.ValidationArtifact{})
	require.NoError(t, err)

	pre, err := features.LoadPreprocessor(art.PreprocessorPath)
	require.NoError(t, err)

	raw := [][]float64{
		{1, 45, 1, 28, 0, 1, 38000.50, 152, 220, 0, 1},
		{0, 25, 1, 28, 1, 0, 2500.75, 152, 100, 1, 0},
	}
	first, err := pre.Transform(raw)
	require.NoError(t, err)
	second, err := pre.Transform(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	reloaded, err := features.LoadPreprocessor(art.PreprocessorPath)
	require.NoError(t, err)
	third, err := reloaded.Transform(raw)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestTransformUnknownCategoryEncodesToZeros(t *testing.T) {
	cfg := testRunConfig(t)
	schema := insuranceSchema()

	train := insuranceTable(t, 40)
	test := insuranceTable(t, 20)
	// One test row carries a vehicle age the train split never saw.
	ageIdx := test.ColumnIndex("Vehicle_Age")
	test.Rows[1][ageIdx] = "1-2 Year"

	require.NoError(t, train.WriteCSV(cfg.TrainPath))
	require.NoError(t, test.WriteCSV(cfg.TestPath))
	ing := models.IngestionArtifact{TrainPath: cfg.TrainPath, TestPath: cfg.TestPath}

	art, err := NewTransformation(cfg, schema).Transform(context.Background(), ing, models.ValidationArtifact{})
	require.NoError(t, err)

	testMat, err := dataset.ReadMatrix(art.TestArrayPath)
	require.NoError(t, err)
	assert.Contains(t, testMat.Columns, "Vehicle_Age_lt_1_Year")
	assert.Contains(t, testMat.Columns, "Vehicle_Age_gt_2_Years")
	assert.NotContains(t, testMat.Columns, "Vehicle_Age_1_2_Year",
		"indicator columns are fixed when fitted on the train split")

	ltIdx := testMat.ColumnIndex("Vehicle_Age_lt_1_Year")
	gtIdx := testMat.ColumnIndex("Vehicle_Age_gt_2_Years")
	zeroRows := 0
	for _, row := range testMat.Data {
		if row[ltIdx] == 0 && row[gtIdx] == 0 {
			zeroRows++
		}
	}
	assert.GreaterOrEqual(t, zeroRows, 1, "the unseen category must encode as all zeros")
}

func TestTransformRejectsNonIntegerLabels(t *testing.T) {
	cfg := testRunConfig(t)
	table := insuranceTable(t, 20)
	responseIdx := table.ColumnIndex("Response")
	table.Rows[3][responseIdx] = "maybe"

	require.NoError(t, table.WriteCSV(cfg.TrainPath))
	require.NoError(t, insuranceTable(t, 10).WriteCSV(cfg.TestPath))
	ing := models.IngestionArtifact{TrainPath: cfg.TrainPath, TestPath: cfg.TestPath}

	_, err := NewTransformation(cfg, insuranceSchema()).Transform(context.Background(), ing, models.ValidationArtifact{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-integer label")
}
