package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/versich-treue/vtml-go/pkg/config"
)

// RandomForest is an ensemble of decision trees. Each tree trains on a
// bootstrap sample of the rows and a random subset of the feature columns;
// class probabilities are the mean of the per-tree leaf distributions.
type RandomForest struct {
	Trees        []*DecisionTree
	TreeFeatures [][]int

	NEstimators     int
	Criterion       string
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     string
	Bootstrap       bool
	Seed            int64

	Classes     []int
	NumFeatures int
}

// NewRandomForest creates a forest from the hyperparameter document.
func NewRandomForest(mc *config.ModelConfig) *RandomForest {
	return &RandomForest{
		NEstimators:     mc.NEstimators,
		Criterion:       mc.Criterion,
		MaxDepth:        mc.MaxDepth,
		MinSamplesSplit: mc.MinSamplesSplit,
		MinSamplesLeaf:  mc.MinSamplesLeaf,
		MaxFeatures:     mc.MaxFeatures,
		Bootstrap:       mc.Bootstrap,
		Seed:            mc.RandomSeed,
	}
}

// Fit trains every tree. Trees are independent, so they train concurrently;
// tree i derives its randomness from Seed+i, which keeps the ensemble
// reproducible regardless of scheduling.
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if rf.NEstimators <= 0 {
		return fmt.Errorf("n_estimators must be positive, got %d", rf.NEstimators)
	}

	rf.NumFeatures = len(X[0])
	rf.Classes = uniqueClasses(y)

	featureCount, err := rf.featuresPerTree()
	if err != nil {
		return err
	}

	rf.Trees = make([]*DecisionTree, rf.NEstimators)
	rf.TreeFeatures = make([][]int, rf.NEstimators)
	errs := make([]error, rf.NEstimators)

	var wg sync.WaitGroup
	for i := 0; i < rf.NEstimators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(rf.Seed + int64(i)))

			features := sampleFeatures(rng, rf.NumFeatures, featureCount)
			rows := rf.sampleRows(rng, len(X))

			subX := make([][]float64, len(rows))
			subY := make([]int, len(rows))
			for r, idx := range rows {
				projected := make([]float64, len(features))
				for c, f := range features {
					projected[c] = X[idx][f]
				}
				subX[r] = projected
				subY[r] = y[idx]
			}

			tree := NewDecisionTree(rf.Criterion, rf.MaxDepth, rf.MinSamplesSplit, rf.MinSamplesLeaf)
			if err := tree.Fit(subX, subY); err != nil {
				errs[i] = fmt.Errorf("tree %d: %w", i, err)
				return
			}
			rf.Trees[i] = tree
			rf.TreeFeatures[i] = features
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// featuresPerTree resolves the max_features setting against the input
// width.
func (rf *RandomForest) featuresPerTree() (int, error) {
	switch rf.MaxFeatures {
	case "", "all", "auto":
		return rf.NumFeatures, nil
	case "sqrt":
		n := int(math.Sqrt(float64(rf.NumFeatures)))
		if n < 1 {
			n = 1
		}
		return n, nil
	case "log2":
		n := int(math.Log2(float64(rf.NumFeatures)))
		if n < 1 {
			n = 1
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported max_features: %s", rf.MaxFeatures)
	}
}

func (rf *RandomForest) sampleRows(rng *rand.Rand, n int) []int {
	rows := make([]int, n)
	if rf.Bootstrap {
		for i := range rows {
			rows[i] = rng.Intn(n)
		}
	} else {
		for i := range rows {
			rows[i] = i
		}
	}
	return rows
}

// sampleFeatures draws k distinct column indices, returned sorted.
func sampleFeatures(rng *rand.Rand, total, k int) []int {
	perm := rng.Perm(total)
	features := append([]int(nil), perm[:k]...)
	sort.Ints(features)
	return features
}

// PredictProba returns the probability per class, in Classes order,
// averaged over all trees.
func (rf *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, fmt.Errorf("model not trained")
	}
	if len(x) != rf.NumFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", rf.NumFeatures, len(x))
	}

	classIndex := make(map[int]int, len(rf.Classes))
	for i, c := range rf.Classes {
		classIndex[c] = i
	}

	sums := make([]float64, len(rf.Classes))
	for ti, tree := range rf.Trees {
		projected := make([]float64, len(rf.TreeFeatures[ti]))
		for c, f := range rf.TreeFeatures[ti] {
			projected[c] = x[f]
		}
		proba, err := tree.PredictProba(projected)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
		for class, p := range proba {
			sums[classIndex[class]] += p
		}
	}

	for i := range sums {
		sums[i] /= float64(len(rf.Trees))
	}
	return sums, nil
}

// Predict returns the class with the highest averaged probability. Ties go
// to the class that sorts first.
func (rf *RandomForest) Predict(x []float64) (int, error) {
	proba, err := rf.PredictProba(x)
	if err != nil {
		return 0, err
	}

	best := 0
	for i, p := range proba {
		if p > proba[best] {
			best = i
		}
	}
	return rf.Classes[best], nil
}

// PredictBatch predicts a class per row.
func (rf *RandomForest) PredictBatch(X [][]float64) ([]int, error) {
	out := make([]int, len(X))
	for i, x := range X {
		class, err := rf.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = class
	}
	return out, nil
}

// PredictProbaBatch predicts a probability vector per row, aligned with
// Classes.
func (rf *RandomForest) PredictProbaBatch(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, x := range X {
		proba, err := rf.PredictProba(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = proba
	}
	return out, nil
}
