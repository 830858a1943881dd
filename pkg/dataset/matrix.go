package dataset

import (
	"fmt"
	"math"
)

// Matrix is a fully numeric table. The transformation stage produces
// matrices whose final column holds the class label.
type Matrix struct {
	Columns []string
	Data    [][]float64
}

// NumRows returns the number of rows.
func (m *Matrix) NumRows() int {
	return len(m.Data)
}

// NumCols returns the number of columns.
func (m *Matrix) NumCols() int {
	return len(m.Columns)
}

// ColumnIndex returns the index of a named column, or -1 if absent.
func (m *Matrix) ColumnIndex(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{
		Columns: append([]string(nil), m.Columns...),
		Data:    make([][]float64, len(m.Data)),
	}
	for i, row := range m.Data {
		r := make([]float64, len(row))
		copy(r, row)
		out.Data[i] = r
	}
	return out
}

// AppendLabels returns a new matrix with the class labels attached as the
// final column.
func (m *Matrix) AppendLabels(name string, labels []int) (*Matrix, error) {
	if len(labels) != len(m.Data) {
		return nil, fmt.Errorf("label column %s: %d values for %d rows", name, len(labels), len(m.Data))
	}
	out := m.Clone()
	out.Columns = append(out.Columns, name)
	for i := range out.Data {
		out.Data[i] = append(out.Data[i], float64(labels[i]))
	}
	return out, nil
}

// SplitLabels interprets the final column as the class label and returns
// the remaining columns as the feature matrix. Labels must be integral.
func (m *Matrix) SplitLabels() (X [][]float64, y []int, err error) {
	if len(m.Columns) < 2 {
		return nil, nil, fmt.Errorf("matrix has %d columns, need features plus a label", len(m.Columns))
	}
	last := len(m.Columns) - 1
	X = make([][]float64, len(m.Data))
	y = make([]int, len(m.Data))
	for i, row := range m.Data {
		feats := make([]float64, last)
		copy(feats, row[:last])
		X[i] = feats
		label := row[last]
		if label != math.Trunc(label) {
			return nil, nil, fmt.Errorf("row %d: label %v is not an integer", i, label)
		}
		y[i] = int(label)
	}
	return X, y, nil
}
