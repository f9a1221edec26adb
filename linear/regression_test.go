package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

func TestLinearRegressionFit(t *testing.T) {
	tests := []struct {
		name          string
		X             *mat.Dense
		y             *mat.VecDense
		wantCoef      []float64
		wantIntercept float64
		wantRank      int
	}{
		{
			name:          "single feature y = 2x + 1",
			X:             mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5}),
			y:             mat.NewVecDense(5, []float64{3, 5, 7, 9, 11}),
			wantCoef:      []float64{2},
			wantIntercept: 1,
			wantRank:      1,
		},
		{
			name: "two features y = 1.5a - 2b + 4",
			X: mat.NewDense(6, 2, []float64{
				1, 0,
				2, 1,
				3, 5,
				4, 2,
				5, 7,
				6, 3,
			}),
			y:             mat.NewVecDense(6, []float64{5.5, 5, -1.5, 6, -2.5, 7}),
			wantCoef:      []float64{1.5, -2},
			wantIntercept: 4,
			wantRank:      2,
		},
		{
			// 同一列は最小ノルム解で係数を等分する
			name: "duplicate columns",
			X: mat.NewDense(5, 2, []float64{
				1, 1,
				2, 2,
				3, 3,
				4, 4,
				5, 5,
			}),
			y:             mat.NewVecDense(5, []float64{3, 5, 7, 9, 11}),
			wantCoef:      []float64{1, 1},
			wantIntercept: 1,
			wantRank:      1,
		},
		{
			name:          "constant feature",
			X:             mat.NewDense(4, 1, []float64{3, 3, 3, 3}),
			y:             mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			wantCoef:      []float64{0},
			wantIntercept: 2.5,
			wantRank:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLinearRegression()
			if err := lr.Fit(tt.X, tt.y); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if !lr.IsFitted() {
				t.Fatal("model should be fitted")
			}

			coef := lr.Coefficients()
			if len(coef) != len(tt.wantCoef) {
				t.Fatalf("len(Coefficients()) = %d, want %d", len(coef), len(tt.wantCoef))
			}
			for i := range coef {
				if math.Abs(coef[i]-tt.wantCoef[i]) > 1e-8 {
					t.Errorf("Coefficients()[%d] = %v, want %v", i, coef[i], tt.wantCoef[i])
				}
			}
			if math.Abs(lr.Intercept()-tt.wantIntercept) > 1e-8 {
				t.Errorf("Intercept() = %v, want %v", lr.Intercept(), tt.wantIntercept)
			}
			if lr.Rank() != tt.wantRank {
				t.Errorf("Rank() = %d, want %d", lr.Rank(), tt.wantRank)
			}
		})
	}
}

func TestLinearRegressionWithoutIntercept(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewVecDense(4, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if math.Abs(lr.Coefficients()[0]-2) > 1e-10 {
		t.Errorf("coefficient = %v, want 2", lr.Coefficients()[0])
	}
	if lr.Intercept() != 0 {
		t.Errorf("Intercept() = %v, want 0", lr.Intercept())
	}
}

func TestLinearRegressionPredict(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewVecDense(5, []float64{3, 5, 7, 9, 11})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{10, -1}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	want := []float64{21, -1}
	for i, w := range want {
		if math.Abs(pred.AtVec(i)-w) > 1e-8 {
			t.Errorf("Predict()[%d] = %v, want %v", i, pred.AtVec(i), w)
		}
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(score-1) > 1e-10 {
		t.Errorf("Score() = %v, want 1", score)
	}
}

func TestLinearRegressionErrors(t *testing.T) {
	t.Run("predict before fit", func(t *testing.T) {
		lr := NewLinearRegression()
		_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Fatalf("expected NotFittedError, got %v", err)
		}
		if lr.Coefficients() != nil {
			t.Error("Coefficients() should be nil before Fit")
		}
	})

	t.Run("score before fit", func(t *testing.T) {
		lr := NewLinearRegression()
		_, err := lr.Score(mat.NewDense(1, 1, []float64{1}), mat.NewVecDense(1, []float64{1}))
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Fatalf("expected NotFittedError, got %v", err)
		}
	})

	t.Run("row mismatch", func(t *testing.T) {
		lr := NewLinearRegression()
		err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(2, []float64{1, 2}))
		var de *errors.DimensionError
		if !errors.As(err, &de) {
			t.Fatalf("expected DimensionError, got %v", err)
		}
		if de.Axis != 0 {
			t.Errorf("Axis = %d, want 0", de.Axis)
		}
	})

	t.Run("feature mismatch on predict", func(t *testing.T) {
		lr := NewLinearRegression()
		if err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(3, []float64{1, 2, 3})); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		_, err := lr.Predict(mat.NewDense(1, 2, []float64{1, 2}))
		var de *errors.DimensionError
		if !errors.As(err, &de) {
			t.Fatalf("expected DimensionError, got %v", err)
		}
	})

	t.Run("NaN input", func(t *testing.T) {
		lr := NewLinearRegression()
		err := lr.Fit(mat.NewDense(3, 1, []float64{1, math.NaN(), 3}), mat.NewVecDense(3, []float64{1, 2, 3}))
		var ne *errors.NumericalInstabilityError
		if !errors.As(err, &ne) {
			t.Fatalf("expected NumericalInstabilityError, got %v", err)
		}
		if lr.IsFitted() {
			t.Error("model should not be fitted after a failed Fit")
		}
	})
}
