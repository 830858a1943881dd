package ml

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/versich-treue/vtml-go/pkg/models"
)

// probEpsilon bounds predicted probabilities away from 0 and 1 so the log
// loss stays finite.
const probEpsilon = 1e-15

// Round5 rounds a metric to five decimals, the precision every report
// carries.
func Round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// Accuracy returns the fraction of matching predictions, rounded to five
// decimals.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) == 0 {
		return 0, fmt.Errorf("no samples to score")
	}
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("got %d labels and %d predictions", len(yTrue), len(yPred))
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return Round5(float64(correct) / float64(len(yTrue))), nil
}

// Evaluate computes the full metric set for binary predictions. proba rows
// are probability vectors aligned with classes; the second class is treated
// as the positive one.
func Evaluate(yTrue, yPred []int, proba [][]float64, classes []int) (models.ClassificationMetrics, error) {
	var m models.ClassificationMetrics

	if len(yTrue) == 0 {
		return m, fmt.Errorf("no samples to score")
	}
	if len(yTrue) != len(yPred) || len(yTrue) != len(proba) {
		return m, fmt.Errorf("got %d labels, %d predictions, %d probability rows", len(yTrue), len(yPred), len(proba))
	}
	if len(classes) != 2 {
		return m, fmt.Errorf("metrics need exactly two classes, got %d", len(classes))
	}
	positive := classes[1]

	var tp, fp, fn, correct int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
		switch {
		case yPred[i] == positive && yTrue[i] == positive:
			tp++
		case yPred[i] == positive && yTrue[i] != positive:
			fp++
		case yPred[i] != positive && yTrue[i] == positive:
			fn++
		}
	}

	precision := 0.0
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	recall := 0.0
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	ll, err := logLoss(yTrue, proba, classes)
	if err != nil {
		return m, err
	}

	scores := make([]float64, len(proba))
	for i, row := range proba {
		scores[i] = row[1]
	}
	auc, err := rocAUC(yTrue, scores, positive)
	if err != nil {
		return m, err
	}

	m.Accuracy = Round5(float64(correct) / float64(len(yTrue)))
	m.Precision = Round5(precision)
	m.Recall = Round5(recall)
	m.LogLoss = Round5(ll)
	m.F1 = Round5(f1)
	m.ROCAUC = Round5(auc)
	return m, nil
}

// logLoss is the mean negative log probability assigned to the true class.
// Probabilities are clipped to [probEpsilon, 1-probEpsilon] and the row is
// renormalized before taking the log.
func logLoss(yTrue []int, proba [][]float64, classes []int) (float64, error) {
	classIndex := make(map[int]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	total := 0.0
	for i, row := range proba {
		if len(row) != len(classes) {
			return 0, fmt.Errorf("probability row %d has %d entries for %d classes", i, len(row), len(classes))
		}
		idx, ok := classIndex[yTrue[i]]
		if !ok {
			return 0, fmt.Errorf("label %d not among classes", yTrue[i])
		}

		sum := 0.0
		clipped := make([]float64, len(row))
		for j, p := range row {
			if p < probEpsilon {
				p = probEpsilon
			} else if p > 1-probEpsilon {
				p = 1 - probEpsilon
			}
			clipped[j] = p
			sum += p
		}
		total += -math.Log(clipped[idx] / sum)
	}
	return total / float64(len(proba)), nil
}

// rocAUC integrates the ROC curve for the positive-class scores.
func rocAUC(yTrue []int, scores []float64, positive int) (float64, error) {
	type sample struct {
		score float64
		pos   bool
	}
	samples := make([]sample, len(yTrue))
	posCount := 0
	for i := range yTrue {
		isPos := yTrue[i] == positive
		if isPos {
			posCount++
		}
		samples[i] = sample{score: scores[i], pos: isPos}
	}
	if posCount == 0 || posCount == len(samples) {
		return 0, fmt.Errorf("roc auc needs both classes present")
	}

	sort.Slice(samples, func(a, b int) bool { return samples[a].score < samples[b].score })

	ys := make([]float64, len(samples))
	classes := make([]bool, len(samples))
	for i, s := range samples {
		ys[i] = s.score
		classes[i] = s.pos
	}

	tpr, fpr, _ := stat.ROC(nil, ys, classes, nil)

	// Trapezoidal wants the abscissa ascending.
	if len(fpr) > 1 && fpr[0] > fpr[len(fpr)-1] {
		for i, j := 0, len(fpr)-1; i < j; i, j = i+1, j-1 {
			fpr[i], fpr[j] = fpr[j], fpr[i]
			tpr[i], tpr[j] = tpr[j], tpr[i]
		}
	}
	return integrate.Trapezoidal(fpr, tpr), nil
}
