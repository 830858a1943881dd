package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// Split shuffles the rows with a deterministic source and carves off the
// test partition. The test size is ceil(rows * testFraction); the same
// table, fraction and seed always yield identical partitions.
func Split(t *Table, testFraction float64, seed int64) (train, test *Table, err error) {
	n := t.NumRows()
	if n == 0 {
		return nil, nil, fmt.Errorf("cannot split an empty table")
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}

	testN := int(math.Ceil(float64(n) * testFraction))
	if testN >= n {
		return nil, nil, fmt.Errorf("test fraction %v leaves no training rows for %d rows", testFraction, n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	test = NewTable(t.Columns)
	test.Rows = make([][]string, 0, testN)
	for _, idx := range perm[:testN] {
		row := make([]string, len(t.Rows[idx]))
		copy(row, t.Rows[idx])
		test.Rows = append(test.Rows, row)
	}

	train = NewTable(t.Columns)
	train.Rows = make([][]string, 0, n-testN)
	for _, idx := range perm[testN:] {
		row := make([]string, len(t.Rows[idx]))
		copy(row, t.Rows[idx])
		train.Rows = append(train.Rows, row)
	}
	return train, test, nil
}
