// Package features implements the categorical feature plan and the numeric
// preprocessor the transformation stage fits and persists.
package features

import (
	"fmt"
	"strings"

	"github.com/versich-treue/vtml-go/pkg/config"
	"github.com/versich-treue/vtml-go/pkg/dataset"
)

// Step is one categorical transformation. FitApply fits whatever state the
// step keeps and transforms the training partition; Apply transforms a
// later partition with the state fitted so far.
type Step interface {
	Name() string
	FitApply(t *dataset.Table) (*dataset.Table, error)
	Apply(t *dataset.Table) (*dataset.Table, error)
}

// Plan is the ordered list of categorical steps derived from the feature
// schema: drop, label-encode, one-hot-encode, rename.
type Plan struct {
	steps []Step
}

// BuildPlan turns the feature schema into an executable plan. Rename pairs
// use the form "old$new".
func BuildPlan(schema *config.FeatureSchema) (*Plan, error) {
	p := &Plan{}
	if len(schema.DropFeatures) > 0 {
		p.steps = append(p.steps, &DropStep{Columns: schema.DropFeatures})
	}
	if len(schema.LabelEncodingFeatures) > 0 {
		p.steps = append(p.steps, &LabelEncodeStep{Columns: schema.LabelEncodingFeatures})
	}
	if len(schema.OneHotEncodingFeatures) > 0 {
		p.steps = append(p.steps, &OneHotStep{Columns: schema.OneHotEncodingFeatures})
	}
	if len(schema.RenameFeatures) > 0 {
		pairs := make([][2]string, 0, len(schema.RenameFeatures))
		for _, raw := range schema.RenameFeatures {
			old, new, ok := strings.Cut(raw, "$")
			if !ok {
				return nil, fmt.Errorf("rename entry %q is not of the form old$new", raw)
			}
			pairs = append(pairs, [2]string{old, new})
		}
		p.steps = append(p.steps, &RenameStep{Pairs: pairs})
	}
	return p, nil
}

// Steps returns the plan's steps in execution order.
func (p *Plan) Steps() []Step {
	return p.steps
}

// FitApply runs every step against the training partition, fitting stateful
// steps along the way.
func (p *Plan) FitApply(t *dataset.Table) (*dataset.Table, error) {
	out := t
	for _, s := range p.steps {
		var err error
		out, err = s.FitApply(out)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", s.Name(), err)
		}
	}
	return out, nil
}

// Apply runs every step against a non-training partition.
func (p *Plan) Apply(t *dataset.Table) (*dataset.Table, error) {
	out := t
	for _, s := range p.steps {
		var err error
		out, err = s.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", s.Name(), err)
		}
	}
	return out, nil
}

// DropStep removes configured columns. Every named column must exist.
type DropStep struct {
	Columns []string
}

func (s *DropStep) Name() string { return "drop" }

func (s *DropStep) FitApply(t *dataset.Table) (*dataset.Table, error) {
	return s.Apply(t)
}

func (s *DropStep) Apply(t *dataset.Table) (*dataset.Table, error) {
	return t.DropColumns(s.Columns...)
}

// LabelEncodeStep replaces categorical values with integer codes. Encoders
// are refit on every partition they see, so codes are derived from the
// values each partition contains. Missing values become the literal
// category "Unknown" before encoding.
type LabelEncodeStep struct {
	Columns []string
}

func (s *LabelEncodeStep) Name() string { return "label-encode" }

func (s *LabelEncodeStep) FitApply(t *dataset.Table) (*dataset.Table, error) {
	return s.Apply(t)
}

func (s *LabelEncodeStep) Apply(t *dataset.Table) (*dataset.Table, error) {
	out := t
	for _, col := range s.Columns {
		values, err := out.Column(col)
		if err != nil {
			return nil, err
		}
		filled := fillMissing(values)

		enc := &LabelEncoder{}
		enc.Fit(filled)
		encoded, err := enc.Transform(filled)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		out, err = out.ReplaceColumn(col, encoded)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// OneHotStep expands configured columns into indicator columns named
// "column_category". Categories are fixed at fit time; values outside the
// fitted set produce an all-zero indicator vector.
type OneHotStep struct {
	Columns  []string
	encoders []*OneHotEncoder
}

func (s *OneHotStep) Name() string { return "one-hot" }

func (s *OneHotStep) FitApply(t *dataset.Table) (*dataset.Table, error) {
	s.encoders = s.encoders[:0]
	for _, col := range s.Columns {
		values, err := t.Column(col)
		if err != nil {
			return nil, err
		}
		enc := &OneHotEncoder{Column: col}
		enc.Fit(values)
		s.encoders = append(s.encoders, enc)
	}
	return s.Apply(t)
}

func (s *OneHotStep) Apply(t *dataset.Table) (*dataset.Table, error) {
	if len(s.encoders) != len(s.Columns) {
		return nil, fmt.Errorf("one-hot step applied before fit")
	}
	out := t
	for _, enc := range s.encoders {
		values, err := out.Column(enc.Column)
		if err != nil {
			return nil, err
		}
		out, err = out.DropColumns(enc.Column)
		if err != nil {
			return nil, err
		}
		names := enc.ColumnNames()
		indicators := enc.Transform(values)
		for i, name := range names {
			column := make([]string, len(values))
			for ri := range indicators {
				column[ri] = indicators[ri][i]
			}
			out, err = out.AppendColumn(name, column)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// RenameStep renames columns per the configured mapping. Columns absent
// from the table are skipped.
type RenameStep struct {
	Pairs [][2]string
}

func (s *RenameStep) Name() string { return "rename" }

func (s *RenameStep) FitApply(t *dataset.Table) (*dataset.Table, error) {
	return s.Apply(t)
}

func (s *RenameStep) Apply(t *dataset.Table) (*dataset.Table, error) {
	out := t
	for _, pair := range s.Pairs {
		if !out.HasColumn(pair[0]) {
			continue
		}
		var err error
		out, err = out.RenameColumn(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fillMissing(values []string) []string {
	filled := make([]string, len(values))
	for i, v := range values {
		if v == "" {
			filled[i] = "Unknown"
		} else {
			filled[i] = v
		}
	}
	return filled
}
