// Package dataset provides the in-memory tabular snapshot the pipeline
// stages pass around, CSV persistence for it, and the deterministic
// train/test split.
package dataset

import (
	"fmt"
	"strconv"
)

// Table is a named-column snapshot with string cells. Cell values keep
// whatever representation the source delivered; numeric parsing happens at
// matrix conversion.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable creates an empty table with the given column names.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// ColumnIndex returns the index of a named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// AppendRow adds a row; its arity must match the column count.
func (t *Table) AppendRow(row []string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	r := make([]string, len(row))
	copy(r, row)
	t.Rows = append(t.Rows, r)
	return nil
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column not found: %s", name)
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]string, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// DropColumns returns a new table without the named columns. Every name
// must exist.
func (t *Table) DropColumns(names ...string) (*Table, error) {
	drop := make(map[int]bool, len(names))
	for _, name := range names {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("column not found: %s", name)
		}
		drop[idx] = true
	}

	var keptCols []string
	for i, c := range t.Columns {
		if !drop[i] {
			keptCols = append(keptCols, c)
		}
	}

	out := NewTable(keptCols)
	out.Rows = make([][]string, len(t.Rows))
	for ri, row := range t.Rows {
		kept := make([]string, 0, len(keptCols))
		for ci, cell := range row {
			if !drop[ci] {
				kept = append(kept, cell)
			}
		}
		out.Rows[ri] = kept
	}
	return out, nil
}

// RenameColumn returns a new table with one column renamed.
func (t *Table) RenameColumn(from, to string) (*Table, error) {
	idx := t.ColumnIndex(from)
	if idx < 0 {
		return nil, fmt.Errorf("column not found: %s", from)
	}
	out := t.Clone()
	out.Columns[idx] = to
	return out, nil
}

// ReplaceColumn returns a new table with the named column's values replaced.
func (t *Table) ReplaceColumn(name string, values []string) (*Table, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column not found: %s", name)
	}
	if len(values) != len(t.Rows) {
		return nil, fmt.Errorf("column %s: %d values for %d rows", name, len(values), len(t.Rows))
	}
	out := t.Clone()
	for i := range out.Rows {
		out.Rows[i][idx] = values[i]
	}
	return out, nil
}

// AppendColumn returns a new table with an extra column on the right.
func (t *Table) AppendColumn(name string, values []string) (*Table, error) {
	if t.HasColumn(name) {
		return nil, fmt.Errorf("column already exists: %s", name)
	}
	if len(values) != len(t.Rows) {
		return nil, fmt.Errorf("column %s: %d values for %d rows", name, len(values), len(t.Rows))
	}
	out := t.Clone()
	out.Columns = append(out.Columns, name)
	for i := range out.Rows {
		out.Rows[i] = append(out.Rows[i], values[i])
	}
	return out, nil
}

// SplitTarget separates the table into input features and the values of the
// target column.
func (t *Table) SplitTarget(target string) (*Table, []string, error) {
	labels, err := t.Column(target)
	if err != nil {
		return nil, nil, err
	}
	inputs, err := t.DropColumns(target)
	if err != nil {
		return nil, nil, err
	}
	return inputs, labels, nil
}

// ToMatrix parses every cell as a float64. A cell that does not parse fails
// the whole conversion with its location.
func (t *Table) ToMatrix() (*Matrix, error) {
	m := &Matrix{
		Columns: append([]string(nil), t.Columns...),
		Data:    make([][]float64, len(t.Rows)),
	}
	for ri, row := range t.Rows {
		vals := make([]float64, len(row))
		for ci, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: non-numeric value %q", t.Columns[ci], ri, cell)
			}
			vals[ci] = v
		}
		m.Data[ri] = vals
	}
	return m, nil
}
