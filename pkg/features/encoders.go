package features

import (
	"fmt"
	"sort"
	"strconv"
)

// LabelEncoder assigns integer codes to string categories. Codes follow the
// lexicographic order of the distinct values seen at fit time.
type LabelEncoder struct {
	Classes []string
	codes   map[string]int
}

// Fit derives the class set from the given values.
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]bool)
	e.Classes = e.Classes[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			e.Classes = append(e.Classes, v)
		}
	}
	sort.Strings(e.Classes)
	e.codes = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.codes[c] = i
	}
}

// Transform maps every value to its code, rendered as a decimal string.
func (e *LabelEncoder) Transform(values []string) ([]string, error) {
	if e.codes == nil {
		return nil, fmt.Errorf("label encoder has not been fitted")
	}
	out := make([]string, len(values))
	for i, v := range values {
		code, ok := e.codes[v]
		if !ok {
			return nil, fmt.Errorf("unseen category %q", v)
		}
		out[i] = strconv.Itoa(code)
	}
	return out, nil
}

// OneHotEncoder expands one categorical column into indicator columns, one
// per category seen at fit time.
type OneHotEncoder struct {
	Column     string
	Categories []string
}

// Fit derives the category set from the given values. Missing values do not
// become a category.
func (e *OneHotEncoder) Fit(values []string) {
	seen := make(map[string]bool)
	e.Categories = e.Categories[:0]
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		e.Categories = append(e.Categories, v)
	}
	sort.Strings(e.Categories)
}

// ColumnNames returns the indicator column names in category order.
func (e *OneHotEncoder) ColumnNames() []string {
	names := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		names[i] = e.Column + "_" + c
	}
	return names
}

// Transform returns one indicator row per value. Values outside the fitted
// category set yield an all-zero row.
func (e *OneHotEncoder) Transform(values []string) [][]string {
	out := make([][]string, len(values))
	for ri, v := range values {
		row := make([]string, len(e.Categories))
		for ci, c := range e.Categories {
			if v == c {
				row[ci] = "1"
			} else {
				row[ci] = "0"
			}
		}
		out[ri] = row
	}
	return out
}
