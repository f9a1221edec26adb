package model_selection

import (
	"testing"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

func TestTrainTestSplit(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		testSize  float64
		wantTrain int
		wantTest  int
	}{
		{"80/20", 100, 0.2, 80, 20},
		{"rounds test size up", 11, 0.2, 8, 3},
		{"two rows", 2, 0.2, 1, 1},
		{"large test size", 10, 0.9, 1, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := TrainTestSplit(tt.n, tt.testSize, 42)
			if err != nil {
				t.Fatalf("TrainTestSplit() error = %v", err)
			}
			if len(train) != tt.wantTrain || len(test) != tt.wantTest {
				t.Fatalf("sizes = (%d, %d), want (%d, %d)", len(train), len(test), tt.wantTrain, tt.wantTest)
			}

			seen := make(map[int]bool, tt.n)
			for _, idx := range append(append([]int(nil), train...), test...) {
				if idx < 0 || idx >= tt.n {
					t.Fatalf("index %d out of range", idx)
				}
				if seen[idx] {
					t.Fatalf("index %d appears twice", idx)
				}
				seen[idx] = true
			}
			if len(seen) != tt.n {
				t.Errorf("split covers %d rows, want %d", len(seen), tt.n)
			}
		})
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	train1, test1, err := TrainTestSplit(50, 0.3, 7)
	if err != nil {
		t.Fatal(err)
	}
	train2, test2, err := TrainTestSplit(50, 0.3, 7)
	if err != nil {
		t.Fatal(err)
	}
	for i := range test1 {
		if test1[i] != test2[i] {
			t.Fatalf("test split differs at %d: %d vs %d", i, test1[i], test2[i])
		}
	}
	for i := range train1 {
		if train1[i] != train2[i] {
			t.Fatalf("train split differs at %d: %d vs %d", i, train1[i], train2[i])
		}
	}

	_, test3, err := TrainTestSplit(50, 0.3, 8)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range test1 {
		if test1[i] != test3[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds should produce different splits")
	}
}

func TestTrainTestSplitErrors(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		testSize float64
		wantCode string
	}{
		{"single row", 1, 0.2, errors.CodeInsufficientData},
		{"no rows", 0, 0.2, errors.CodeInsufficientData},
		{"zero test size", 10, 0, errors.CodeInvalidParameter},
		{"test size one", 10, 1, errors.CodeInvalidParameter},
		{"negative rows", -1, 0.2, errors.CodeInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := TrainTestSplit(tt.n, tt.testSize, 42)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Code(err); got != tt.wantCode {
				t.Errorf("Code() = %s, want %s (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}
