// Package linear は最小二乗法による線形回帰を提供します。
package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housingeda/core/model"
	"github.com/YuminosukeSato/housingeda/core/parallel"
	"github.com/YuminosukeSato/housingeda/metrics"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

// LinearRegression は線形回帰モデル
// 中心化したデータに対して特異値分解で最小二乗解を求めるため、
// 特徴量が線形従属な場合でも最小ノルム解が得られる
type LinearRegression struct {
	model.BaseEstimator // BaseEstimatorを埋め込み

	fitIntercept bool    // 切片を学習するか
	rcond        float64 // 特異値の打ち切り比率

	coef      *mat.VecDense // 重み（係数）
	intercept float64       // 切片
	nFeatures int           // 特徴量の数
	rank      int           // 計画行列の実効ランク
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{fitIntercept: true}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// X - mean(X) の特異値分解から w を求め、切片は mean(y) - mean(X)·w とする
func (lr *LinearRegression) Fit(X mat.Matrix, y mat.Vector) error {
	// 入力の検証
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewInvalidInputError("LinearRegression.Fit", "empty data")
	}
	if y.Len() != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, y.Len(), 0)
	}

	// 列平均と目的変数の平均
	xMean := make([]float64, c)
	yMean := 0.0
	if lr.fitIntercept {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				xMean[j] += X.At(i, j)
			}
			yMean += y.AtVec(i)
		}
		for j := range xMean {
			xMean[j] /= float64(r)
		}
		yMean /= float64(r)
	}

	// 中心化した計画行列（行数が閾値以下なら逐次処理）
	Xc := mat.NewDense(r, c, nil)
	yc := mat.NewVecDense(r, nil)
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				Xc.Set(i, j, X.At(i, j)-xMean[j])
			}
			yc.SetVec(i, y.AtVec(i)-yMean)
		}
	})
	if err := errors.CheckNumericalStability("LinearRegression.Fit", Xc.RawMatrix().Data); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("LinearRegression.Fit", yc.RawVector().Data); err != nil {
		return err
	}

	var svd mat.SVD
	if ok := svd.Factorize(Xc, mat.SVDThin); !ok {
		return errors.Wrap(errors.ErrSingularMatrix, "LinearRegression.Fit: SVD factorization failed")
	}

	rcond := lr.rcond
	if rcond <= 0 {
		rcond = math.Nextafter(1, 2) - 1
		if r > c {
			rcond *= float64(r)
		} else {
			rcond *= float64(c)
		}
	}

	coef := mat.NewVecDense(c, nil)
	rank := svd.Rank(rcond)
	if rank > 0 {
		svd.SolveVecTo(coef, yc, rank)
	}
	if err := errors.CheckNumericalStability("LinearRegression coefficients", coef.RawVector().Data); err != nil {
		return err
	}

	lr.coef = coef
	lr.nFeatures = c
	lr.rank = rank
	lr.intercept = 0
	if lr.fitIntercept {
		lr.intercept = yMean - mat.Dot(mat.NewVecDense(c, xMean), coef)
	}

	// モデルを学習済み状態に設定
	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.nFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.nFeatures, c, 1)
	}

	// 予測: y = X * weights + intercept
	predictions := mat.NewVecDense(r, nil)
	predictions.MulVec(X, lr.coef)
	for i := 0; i < r; i++ {
		predictions.SetVec(i, predictions.AtVec(i)+lr.intercept)
	}
	return predictions, nil
}

// Coefficients は学習された重み（係数）を返す
func (lr *LinearRegression) Coefficients() []float64 {
	if lr.coef == nil {
		return nil
	}
	return append([]float64(nil), lr.coef.RawVector().Data...)
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.intercept
}

// Rank は学習時の計画行列の実効ランクを返す
func (lr *LinearRegression) Rank() int {
	return lr.rank
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X mat.Matrix, y mat.Vector) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError("LinearRegression", "Score")
	}
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, yPred)
}

// String はモデルの文字列表現を返す
func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t)", lr.fitIntercept)
	}
	return fmt.Sprintf("LinearRegression(fit_intercept=%t, n_features=%d, rank=%d)",
		lr.fitIntercept, lr.nFeatures, lr.rank)
}

var _ model.LinearModel = (*LinearRegression)(nil)
