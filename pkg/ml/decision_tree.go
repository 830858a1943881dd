// Package ml implements the classifier the training stage fits: a random
// forest of decision trees with the usual impurity-based splitting, plus
// the classification metrics the reports carry.
package ml

import (
	"fmt"
	"math"
	"sort"
)

// TreeNode is a node in a decision tree. Leaves keep the class counts seen
// during training so probability estimates can be read off them.
type TreeNode struct {
	IsLeaf       bool
	Class        int
	ClassCounts  map[int]int
	Confidence   float64
	FeatureIndex int
	Threshold    float64
	Left         *TreeNode
	Right        *TreeNode
	SamplesCount int
	Depth        int
}

// DecisionTree is a binary classification tree. Splits are chosen by
// impurity gain under the configured criterion ("gini" or "entropy").
type DecisionTree struct {
	Root            *TreeNode
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Criterion       string
	Classes         []int
	NumFeatures     int
}

// NewDecisionTree creates a tree with the given hyperparameters, falling
// back to the usual defaults for non-positive values.
func NewDecisionTree(criterion string, maxDepth, minSamplesSplit, minSamplesLeaf int) *DecisionTree {
	if criterion == "" {
		criterion = "gini"
	}
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if minSamplesSplit <= 0 {
		minSamplesSplit = 2
	}
	if minSamplesLeaf <= 0 {
		minSamplesLeaf = 1
	}

	return &DecisionTree{
		Criterion:       criterion,
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MinSamplesLeaf:  minSamplesLeaf,
	}
}

// Fit builds the tree from the training matrix.
// X: feature matrix (rows = samples, cols = features)
// y: class labels (one per sample)
func (dt *DecisionTree) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if dt.Criterion != "gini" && dt.Criterion != "entropy" {
		return fmt.Errorf("unsupported criterion: %s", dt.Criterion)
	}

	dt.NumFeatures = len(X[0])
	dt.Classes = uniqueClasses(y)

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}

	dt.Root = dt.buildTree(X, y, indices, 0)
	return nil
}

// buildTree recursively builds the decision tree.
func (dt *DecisionTree) buildTree(X [][]float64, y []int, indices []int, depth int) *TreeNode {
	node := &TreeNode{
		SamplesCount: len(indices),
		Depth:        depth,
	}

	currentLabels := make([]int, len(indices))
	for i, idx := range indices {
		currentLabels[i] = y[idx]
	}

	classCounts := countClasses(currentLabels)
	node.ClassCounts = classCounts

	majorityClass, majorityCount := getMajorityClass(classCounts)
	node.Class = majorityClass
	node.Confidence = float64(majorityCount) / float64(len(indices))

	// Stopping criteria
	if depth >= dt.MaxDepth || len(indices) < dt.MinSamplesSplit || len(classCounts) == 1 {
		node.IsLeaf = true
		return node
	}

	bestFeature, bestThreshold, bestGain := dt.findBestSplit(X, y, indices)
	if bestGain <= 0 {
		node.IsLeaf = true
		return node
	}

	leftIndices, rightIndices := dt.splitData(X, indices, bestFeature, bestThreshold)

	if len(leftIndices) < dt.MinSamplesLeaf || len(rightIndices) < dt.MinSamplesLeaf {
		node.IsLeaf = true
		return node
	}

	node.IsLeaf = false
	node.FeatureIndex = bestFeature
	node.Threshold = bestThreshold

	node.Left = dt.buildTree(X, y, leftIndices, depth+1)
	node.Right = dt.buildTree(X, y, rightIndices, depth+1)

	return node
}

// findBestSplit finds the feature and threshold with the highest impurity
// gain.
func (dt *DecisionTree) findBestSplit(X [][]float64, y []int, indices []int) (int, float64, float64) {
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	currentLabels := make([]int, len(indices))
	for i, idx := range indices {
		currentLabels[i] = y[idx]
	}
	parentImpurity := dt.impurity(currentLabels)

	for feature := 0; feature < dt.NumFeatures; feature++ {
		values := make([]float64, len(indices))
		for i, idx := range indices {
			values[i] = X[idx][feature]
		}

		// Candidate thresholds are midpoints between adjacent unique values.
		thresholds := getThresholds(values)

		for _, threshold := range thresholds {
			leftIndices, rightIndices := dt.splitData(X, indices, feature, threshold)

			if len(leftIndices) == 0 || len(rightIndices) == 0 {
				continue
			}

			leftLabels := make([]int, len(leftIndices))
			for i, idx := range leftIndices {
				leftLabels[i] = y[idx]
			}
			rightLabels := make([]int, len(rightIndices))
			for i, idx := range rightIndices {
				rightLabels[i] = y[idx]
			}

			n := float64(len(indices))
			nLeft := float64(len(leftIndices))
			nRight := float64(len(rightIndices))

			weighted := (nLeft/n)*dt.impurity(leftLabels) + (nRight/n)*dt.impurity(rightLabels)
			gain := parentImpurity - weighted

			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// impurity computes the node impurity under the configured criterion.
func (dt *DecisionTree) impurity(labels []int) float64 {
	if len(labels) == 0 {
		return 0.0
	}

	counts := countClasses(labels)
	n := float64(len(labels))

	if dt.Criterion == "entropy" {
		entropy := 0.0
		for _, count := range counts {
			p := float64(count) / n
			entropy -= p * math.Log2(p)
		}
		return entropy
	}

	gini := 1.0
	for _, count := range counts {
		p := float64(count) / n
		gini -= p * p
	}
	return gini
}

// splitData splits indices on a feature threshold, left taking <=.
func (dt *DecisionTree) splitData(X [][]float64, indices []int, feature int, threshold float64) ([]int, []int) {
	var leftIndices, rightIndices []int

	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			leftIndices = append(leftIndices, idx)
		} else {
			rightIndices = append(rightIndices, idx)
		}
	}

	return leftIndices, rightIndices
}

// Predict returns the class for a single sample.
func (dt *DecisionTree) Predict(x []float64) (int, error) {
	if dt.Root == nil {
		return 0, fmt.Errorf("model not trained")
	}
	if len(x) != dt.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", dt.NumFeatures, len(x))
	}

	return dt.traverseToLeaf(dt.Root, x).Class, nil
}

// PredictProba returns the class distribution at the leaf the sample
// lands in.
func (dt *DecisionTree) PredictProba(x []float64) (map[int]float64, error) {
	if dt.Root == nil {
		return nil, fmt.Errorf("model not trained")
	}
	if len(x) != dt.NumFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", dt.NumFeatures, len(x))
	}

	leaf := dt.traverseToLeaf(dt.Root, x)

	total := 0
	for _, count := range leaf.ClassCounts {
		total += count
	}

	proba := make(map[int]float64, len(leaf.ClassCounts))
	for class, count := range leaf.ClassCounts {
		proba[class] = float64(count) / float64(total)
	}
	return proba, nil
}

// traverseToLeaf walks the tree down to the leaf for a sample.
func (dt *DecisionTree) traverseToLeaf(node *TreeNode, x []float64) *TreeNode {
	if node.IsLeaf {
		return node
	}

	if x[node.FeatureIndex] <= node.Threshold {
		return dt.traverseToLeaf(node.Left, x)
	}
	return dt.traverseToLeaf(node.Right, x)
}

// GetDepth returns the maximum depth of the fitted tree.
func (dt *DecisionTree) GetDepth() int {
	if dt.Root == nil {
		return 0
	}
	return dt.getNodeDepth(dt.Root)
}

func (dt *DecisionTree) getNodeDepth(node *TreeNode) int {
	if node.IsLeaf {
		return node.Depth
	}

	leftDepth := dt.getNodeDepth(node.Left)
	rightDepth := dt.getNodeDepth(node.Right)

	if leftDepth > rightDepth {
		return leftDepth
	}
	return rightDepth
}

// Helper functions

func countClasses(labels []int) map[int]int {
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	return counts
}

// getMajorityClass returns the most frequent class; ties go to the smaller
// label so predictions stay deterministic.
func getMajorityClass(classCounts map[int]int) (int, int) {
	maxClass := 0
	maxCount := -1
	for class, count := range classCounts {
		if count > maxCount || (count == maxCount && class < maxClass) {
			maxClass = class
			maxCount = count
		}
	}
	return maxClass, maxCount
}

func uniqueClasses(labels []int) []int {
	seen := make(map[int]bool)
	unique := []int{}
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	sort.Ints(unique)
	return unique
}

func getThresholds(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	uniqueVals := make([]float64, 0, len(values))
	seen := make(map[float64]bool)
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			uniqueVals = append(uniqueVals, v)
		}
	}

	if len(uniqueVals) == 1 {
		return nil
	}

	sort.Float64s(uniqueVals)

	thresholds := make([]float64, len(uniqueVals)-1)
	for i := 0; i < len(uniqueVals)-1; i++ {
		thresholds[i] = (uniqueVals[i] + uniqueVals[i+1]) / 2.0
	}

	return thresholds
}
