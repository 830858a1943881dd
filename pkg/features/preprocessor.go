package features

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNotFitted is returned when a preprocessor transform is requested
// before the preprocessor has been fitted.
var ErrNotFitted = errors.New("preprocessor has not been fitted")

// Preprocessor is the reusable numeric transform: min-max normalization on
// one configured column subset, standardization on another, everything else
// passed through unchanged. It is fitted once on the training inputs and
// persisted alongside the model.
type Preprocessor struct {
	Normalize   []string
	Standardize []string

	InputColumns    []string
	MinMaxScalers   []*MinMaxScaler
	StandardScalers []*StandardScaler
	IsFitted        bool
}

// NewPreprocessor declares which columns get which scaling. Fitting happens
// later, against the training matrix.
func NewPreprocessor(normalize, standardize []string) *Preprocessor {
	return &Preprocessor{
		Normalize:   append([]string(nil), normalize...),
		Standardize: append([]string(nil), standardize...),
	}
}

// Fit resolves the configured column names against the matrix header and
// computes the scaling parameters from the training data.
func (p *Preprocessor) Fit(columns []string, X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("cannot fit preprocessor on an empty matrix")
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	p.MinMaxScalers = nil
	for _, name := range p.Normalize {
		idx, ok := index[name]
		if !ok {
			return fmt.Errorf("normalization column not found: %s", name)
		}
		s := &MinMaxScaler{Column: name, Index: idx}
		s.Fit(columnValues(X, idx))
		p.MinMaxScalers = append(p.MinMaxScalers, s)
	}

	p.StandardScalers = nil
	for _, name := range p.Standardize {
		idx, ok := index[name]
		if !ok {
			return fmt.Errorf("standardization column not found: %s", name)
		}
		s := &StandardScaler{Column: name, Index: idx}
		s.Fit(columnValues(X, idx))
		p.StandardScalers = append(p.StandardScalers, s)
	}

	p.InputColumns = append([]string(nil), columns...)
	p.IsFitted = true
	return nil
}

// Transform applies the fitted scaling to a copy of the matrix. The input
// width must match the width the preprocessor was fitted on.
func (p *Preprocessor) Transform(X [][]float64) ([][]float64, error) {
	if !p.IsFitted {
		return nil, ErrNotFitted
	}

	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(p.InputColumns) {
			return nil, fmt.Errorf("row %d has %d features, preprocessor was fitted on %d", i, len(row), len(p.InputColumns))
		}
		r := make([]float64, len(row))
		copy(r, row)
		for _, s := range p.MinMaxScalers {
			r[s.Index] = s.Apply(r[s.Index])
		}
		for _, s := range p.StandardScalers {
			r[s.Index] = s.Apply(r[s.Index])
		}
		out[i] = r
	}
	return out, nil
}

// Columns returns the input column order the preprocessor was fitted on.
func (p *Preprocessor) Columns() []string {
	return append([]string(nil), p.InputColumns...)
}

// Save gob-encodes the fitted preprocessor, creating parent directories as
// needed.
func (p *Preprocessor) Save(path string) error {
	if !p.IsFitted {
		return ErrNotFitted
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("encoding preprocessor: %w", err)
	}
	return f.Close()
}

// LoadPreprocessor reads a preprocessor persisted by Save.
func LoadPreprocessor(path string) (*Preprocessor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return DecodePreprocessor(f)
}

// DecodePreprocessor reads a gob-encoded preprocessor from a stream.
func DecodePreprocessor(r io.Reader) (*Preprocessor, error) {
	var p Preprocessor
	if err := gob.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding preprocessor: %w", err)
	}
	return &p, nil
}

func columnValues(X [][]float64, idx int) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = row[idx]
	}
	return out
}
