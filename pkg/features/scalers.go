package features

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinMaxScaler maps a column linearly onto [0, 1] using the bounds observed
// at fit time.
type MinMaxScaler struct {
	Column string
	Index  int
	Min    float64
	Range  float64
}

// Fit records the column bounds. A constant column gets range 1 so that
// Apply maps every value to 0.
func (s *MinMaxScaler) Fit(values []float64) {
	s.Min = floats.Min(values)
	s.Range = floats.Max(values) - s.Min
	if s.Range == 0 {
		s.Range = 1
	}
}

// Apply scales a single value with the fitted bounds.
func (s *MinMaxScaler) Apply(v float64) float64 {
	return (v - s.Min) / s.Range
}

// StandardScaler centers a column on its mean and divides by the population
// standard deviation observed at fit time.
type StandardScaler struct {
	Column string
	Index  int
	Mean   float64
	Scale  float64
}

// Fit records the column statistics. A constant column gets scale 1 so that
// Apply only centers.
func (s *StandardScaler) Fit(values []float64) {
	s.Mean = stat.Mean(values, nil)
	s.Scale = stat.PopStdDev(values, nil)
	if s.Scale == 0 {
		s.Scale = 1
	}
}

// Apply scales a single value with the fitted statistics.
func (s *StandardScaler) Apply(v float64) float64 {
	return (v - s.Mean) / s.Scale
}
