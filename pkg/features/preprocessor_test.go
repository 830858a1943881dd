package features

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxScaler(t *testing.T) {
	s := &MinMaxScaler{}
	s.Fit([]float64{1, 5, 3})
	assert.Equal(t, 0.0, s.Apply(1))
	assert.Equal(t, 1.0, s.Apply(5))
	assert.Equal(t, 0.5, s.Apply(3))

	constant := &MinMaxScaler{}
	constant.Fit([]float64{4, 4, 4})
	assert.Equal(t, 0.0, constant.Apply(4))
}

func TestStandardScaler(t *testing.T) {
	s := &StandardScaler{}
	s.Fit([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.Scale, 1e-12)
	assert.InDelta(t, 2.0, s.Apply(9), 1e-12)

	constant := &StandardScaler{}
	constant.Fit([]float64{3, 3})
	assert.Equal(t, 0.0, constant.Apply(3))
}

func fittedPreprocessor(t *testing.T) (*Preprocessor, []string, [][]float64) {
	t.Helper()
	columns := []string{"Annual_Premium", "Age", "Previously_Insured"}
	X := [][]float64{
		{1000, 20, 0},
		{3000, 40, 1},
		{5000, 60, 0},
	}
	p := NewPreprocessor([]string{"Annual_Premium"}, []string{"Age"})
	require.NoError(t, p.Fit(columns, X))
	return p, columns, X
}

func TestPreprocessorTransform(t *testing.T) {
	p, columns, X := fittedPreprocessor(t)
	assert.Equal(t, columns, p.Columns())

	out, err := p.Transform(X)
	require.NoError(t, err)

	// min-max on the premium column
	assert.InDelta(t, 0.0, out[0][0], 1e-12)
	assert.InDelta(t, 0.5, out[1][0], 1e-12)
	assert.InDelta(t, 1.0, out[2][0], 1e-12)

	// standardization on age: mean 40, population std sqrt(800/3)
	std := math.Sqrt(800.0 / 3.0)
	assert.InDelta(t, -20/std, out[0][1], 1e-12)
	assert.InDelta(t, 0.0, out[1][1], 1e-12)

	// passthrough column untouched
	assert.Equal(t, 0.0, out[0][2])
	assert.Equal(t, 1.0, out[1][2])

	// the input matrix is not mutated
	assert.Equal(t, 1000.0, X[0][0])
}

func TestPreprocessorTransformIsDeterministic(t *testing.T) {
	p, _, X := fittedPreprocessor(t)
	first, err := p.Transform(X)
	require.NoError(t, err)
	second, err := p.Transform(X)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPreprocessorNotFitted(t *testing.T) {
	p := NewPreprocessor([]string{"a"}, nil)
	_, err := p.Transform([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotFitted)

	err = p.Save(filepath.Join(t.TempDir(), "preprocessing.gob"))
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestPreprocessorWidthMismatch(t *testing.T) {
	p, _, _ := fittedPreprocessor(t)
	_, err := p.Transform([][]float64{{1, 2}})
	assert.Error(t, err)
}

func TestPreprocessorFitErrors(t *testing.T) {
	p := NewPreprocessor([]string{"absent"}, nil)
	err := p.Fit([]string{"a"}, [][]float64{{1}})
	assert.Error(t, err)

	p = NewPreprocessor(nil, nil)
	err = p.Fit([]string{"a"}, nil)
	assert.Error(t, err, "empty matrix")
}

func TestPreprocessorSaveLoad(t *testing.T) {
	p, _, X := fittedPreprocessor(t)
	path := filepath.Join(t.TempDir(), "transformed_object", "preprocessing.gob")
	require.NoError(t, p.Save(path))

	loaded, err := LoadPreprocessor(path)
	require.NoError(t, err)
	assert.True(t, loaded.IsFitted)
	assert.Equal(t, p.Columns(), loaded.Columns())

	want, err := p.Transform(X)
	require.NoError(t, err)
	got, err := loaded.Transform(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
