package ml

import (
	"math"
	"testing"
)

func TestRound5(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.123456789, 0.12346},
		{2.0 / 3.0, 0.66667},
		{1.0, 1.0},
		{0.0, 0.0},
	}
	for _, tt := range tests {
		if got := Round5(tt.in); got != tt.want {
			t.Errorf("Round5(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]int{0, 1, 1}, []int{0, 1, 0})
	if err != nil {
		t.Fatalf("Accuracy: %v", err)
	}
	if acc != 0.66667 {
		t.Errorf("accuracy = %v, want 0.66667", acc)
	}

	if _, err := Accuracy(nil, nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := Accuracy([]int{0}, []int{0, 1}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestEvaluatePerfectClassifier(t *testing.T) {
	yTrue := []int{0, 0, 1, 1}
	yPred := []int{0, 0, 1, 1}
	proba := [][]float64{{0.9, 0.1}, {0.8, 0.2}, {0.2, 0.8}, {0.1, 0.9}}

	m, err := Evaluate(yTrue, yPred, proba, []int{0, 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if m.Accuracy != 1.0 {
		t.Errorf("accuracy = %v", m.Accuracy)
	}
	if m.Precision != 1.0 || m.Recall != 1.0 || m.F1 != 1.0 {
		t.Errorf("precision/recall/f1 = %v/%v/%v", m.Precision, m.Recall, m.F1)
	}
	if m.ROCAUC != 1.0 {
		t.Errorf("roc auc = %v, want 1.0", m.ROCAUC)
	}

	// -(ln 0.9 + ln 0.8 + ln 0.8 + ln 0.9) / 4
	wantLL := Round5(-(math.Log(0.9) + math.Log(0.8) + math.Log(0.8) + math.Log(0.9)) / 4)
	if m.LogLoss != wantLL {
		t.Errorf("log loss = %v, want %v", m.LogLoss, wantLL)
	}
}

func TestEvaluateKnownValues(t *testing.T) {
	yTrue := []int{0, 1, 0, 1}
	yPred := []int{0, 1, 1, 1}
	proba := [][]float64{{0.8, 0.2}, {0.3, 0.7}, {0.2, 0.8}, {0.1, 0.9}}

	m, err := Evaluate(yTrue, yPred, proba, []int{0, 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if m.Accuracy != 0.75 {
		t.Errorf("accuracy = %v, want 0.75", m.Accuracy)
	}
	// tp=2, fp=1, fn=0
	if m.Precision != 0.66667 {
		t.Errorf("precision = %v, want 0.66667", m.Precision)
	}
	if m.Recall != 1.0 {
		t.Errorf("recall = %v, want 1.0", m.Recall)
	}
	if m.F1 != 0.8 {
		t.Errorf("f1 = %v, want 0.8", m.F1)
	}
	// positive scores {0.7, 0.9} vs negative {0.2, 0.8}: 3 of 4 pairs ordered
	if m.ROCAUC != 0.75 {
		t.Errorf("roc auc = %v, want 0.75", m.ROCAUC)
	}

	wantLL := Round5(-(math.Log(0.8) + math.Log(0.7) + math.Log(0.2) + math.Log(0.9)) / 4)
	if m.LogLoss != wantLL {
		t.Errorf("log loss = %v, want %v", m.LogLoss, wantLL)
	}
}

func TestEvaluateClampsProbabilities(t *testing.T) {
	yTrue := []int{0, 1}
	yPred := []int{0, 1}
	proba := [][]float64{{1.0, 0.0}, {0.0, 1.0}}

	m, err := Evaluate(yTrue, yPred, proba, []int{0, 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.IsInf(m.LogLoss, 0) || math.IsNaN(m.LogLoss) {
		t.Errorf("log loss not finite: %v", m.LogLoss)
	}
}

func TestEvaluateErrors(t *testing.T) {
	proba := [][]float64{{0.5, 0.5}, {0.5, 0.5}}

	if _, err := Evaluate(nil, nil, nil, []int{0, 1}); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := Evaluate([]int{0, 1}, []int{0}, proba, []int{0, 1}); err == nil {
		t.Error("expected error for length mismatch")
	}
	if _, err := Evaluate([]int{0, 1}, []int{0, 1}, proba, []int{0, 1, 2}); err == nil {
		t.Error("expected error for non-binary classes")
	}
	// single true class makes the roc curve undefined
	if _, err := Evaluate([]int{1, 1}, []int{1, 1}, proba, []int{0, 1}); err == nil {
		t.Error("expected error for single-class labels")
	}
}
