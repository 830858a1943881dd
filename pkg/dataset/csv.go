package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ReadCSV loads a table from a CSV file. The first record is the header.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: missing header row", path)
	}

	t := NewTable(records[0])
	t.Rows = make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(t.Columns) {
			return nil, fmt.Errorf("reading %s: row %d has %d cells, header has %d", path, i+1, len(rec), len(t.Columns))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// WriteCSV persists the table, header first, creating parent directories
// as needed.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header to %s: %w", path, err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}

// ReadMatrix loads a numeric matrix from a CSV file written by
// Matrix.WriteCSV. The first record is the header.
func ReadMatrix(path string) (*Matrix, error) {
	t, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return t.ToMatrix()
}

// WriteCSV persists the matrix with full float precision so a read-back
// reproduces the values exactly.
func (m *Matrix) WriteCSV(path string) error {
	t := NewTable(m.Columns)
	t.Rows = make([][]string, len(m.Data))
	for i, row := range m.Data {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		t.Rows[i] = cells
	}
	return t.WriteCSV(path)
}
