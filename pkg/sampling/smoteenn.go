// Package sampling implements the combined over/under-sampling step the
// transformation stage runs on each partition: synthetic minority
// oversampling followed by edited-nearest-neighbour cleaning.
package sampling

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SMOTEENN balances a labelled matrix. Synthetic minority samples are
// interpolated between nearest minority neighbours until the minority class
// matches the majority count; the cleaning pass then drops every minority
// sample whose nearest neighbours do not unanimously share its label.
type SMOTEENN struct {
	KNeighbors   int
	ENNNeighbors int
	Seed         int64
}

// NewSMOTEENN returns a resampler with the standard neighbourhood sizes:
// five neighbours for synthesis, three for cleaning.
func NewSMOTEENN(seed int64) *SMOTEENN {
	return &SMOTEENN{KNeighbors: 5, ENNNeighbors: 3, Seed: seed}
}

// Resample returns a new matrix and label vector; the inputs are not
// mutated. The minority class is the label with the fewest samples in y.
func (s *SMOTEENN) Resample(X [][]float64, y []int) ([][]float64, []int, error) {
	if len(X) == 0 {
		return nil, nil, fmt.Errorf("cannot resample an empty matrix")
	}
	if len(X) != len(y) {
		return nil, nil, fmt.Errorf("matrix has %d rows, labels have %d", len(X), len(y))
	}

	minority, majorityCount := minorityClass(y)

	rows := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		copy(r, row)
		rows[i] = r
	}
	labels := append([]int(nil), y...)

	synthetic, err := s.oversample(rows, labels, minority, majorityCount)
	if err != nil {
		return nil, nil, err
	}
	for _, row := range synthetic {
		rows = append(rows, row)
		labels = append(labels, minority)
	}

	return s.clean(rows, labels, minority)
}

// oversample synthesizes minority rows until the class counts match.
func (s *SMOTEENN) oversample(rows [][]float64, labels []int, minority, majorityCount int) ([][]float64, error) {
	var minorityRows [][]float64
	for i, l := range labels {
		if l == minority {
			minorityRows = append(minorityRows, rows[i])
		}
	}

	need := majorityCount - len(minorityRows)
	if need <= 0 {
		return nil, nil
	}
	if len(minorityRows) < 2 {
		return nil, fmt.Errorf("minority class has %d samples, need at least 2 to synthesize", len(minorityRows))
	}

	k := s.KNeighbors
	if k > len(minorityRows)-1 {
		k = len(minorityRows) - 1
	}
	neighbours := make([][]int, len(minorityRows))
	for i := range minorityRows {
		neighbours[i] = nearest(minorityRows, minorityRows[i], i, k)
	}

	rng := rand.New(rand.NewSource(s.Seed))
	synthetic := make([][]float64, 0, need)
	for n := 0; n < need; n++ {
		i := rng.Intn(len(minorityRows))
		j := neighbours[i][rng.Intn(len(neighbours[i]))]
		gap := rng.Float64()

		base := minorityRows[i]
		other := minorityRows[j]
		row := make([]float64, len(base))
		for c := range base {
			row[c] = base[c] + gap*(other[c]-base[c])
		}
		synthetic = append(synthetic, row)
	}
	return synthetic, nil
}

// clean keeps a minority sample only when all of its nearest neighbours
// carry the minority label. Samples of other classes pass through.
func (s *SMOTEENN) clean(rows [][]float64, labels []int, minority int) ([][]float64, []int, error) {
	k := s.ENNNeighbors
	if k > len(rows)-1 {
		k = len(rows) - 1
	}

	var outX [][]float64
	var outY []int
	for i, row := range rows {
		if labels[i] != minority || k < 1 {
			outX = append(outX, row)
			outY = append(outY, labels[i])
			continue
		}
		keep := true
		for _, n := range nearest(rows, row, i, k) {
			if labels[n] != minority {
				keep = false
				break
			}
		}
		if keep {
			outX = append(outX, row)
			outY = append(outY, labels[i])
		}
	}
	return outX, outY, nil
}

// nearest returns the indices of the k rows closest to target, excluding
// the row at self. Ties resolve by index so results are deterministic.
func nearest(rows [][]float64, target []float64, self, k int) []int {
	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, 0, len(rows)-1)
	for i, row := range rows {
		if i == self {
			continue
		}
		cands = append(cands, cand{idx: i, dist: floats.Distance(target, row, 2)})
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}
		return cands[a].idx < cands[b].idx
	})
	if k > len(cands) {
		k = len(cands)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = cands[i].idx
	}
	return out
}

func minorityClass(y []int) (minority, majorityCount int) {
	counts := make(map[int]int)
	for _, l := range y {
		counts[l]++
	}

	classes := make([]int, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	minority = classes[0]
	for _, c := range classes {
		if counts[c] < counts[minority] {
			minority = c
		}
		if counts[c] > majorityCount {
			majorityCount = counts[c]
		}
	}
	return minority, majorityCount
}
