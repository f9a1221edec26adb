// Package metrics は回帰モデルの評価指標を提供します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

// validate は評価指標の入力を検証する
func validate(op string, yTrue, yPred mat.Vector) error {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return errors.NewInvalidInputError(op, "empty vector")
	}
	if yPred.Len() != yTrue.Len() {
		return errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	if err := errors.CheckNumericalStability(op, mat.Col(nil, 0, yTrue)); err != nil {
		return err
	}
	return errors.CheckNumericalStability(op, mat.Col(nil, 0, yPred))
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	if err := validate("MSE", yTrue, yPred); err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	n := yTrue.Len()
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	if err := validate("MAE", yTrue, yPred); err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	n := yTrue.Len()
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
// yTrue が定数の場合は、予測が完全なら 1、そうでなければ 0 を返す（scikit-learn の force_finite と同じ）
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	if err := validate("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	yMean := stat.Mean(mat.Col(nil, 0, yTrue), nil)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		if rss == 0 {
			return 1, nil
		}
		return 0, nil
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// RegressionReport は回帰評価指標のまとめ
type RegressionReport struct {
	R2   float64
	MAE  float64
	MSE  float64
	RMSE float64
}

// Evaluate は全ての回帰評価指標をまとめて計算する
func Evaluate(yTrue, yPred mat.Vector) (RegressionReport, error) {
	var report RegressionReport
	var err error

	if report.R2, err = R2Score(yTrue, yPred); err != nil {
		return RegressionReport{}, err
	}
	if report.MAE, err = MAE(yTrue, yPred); err != nil {
		return RegressionReport{}, err
	}
	if report.MSE, err = MSE(yTrue, yPred); err != nil {
		return RegressionReport{}, err
	}
	report.RMSE = math.Sqrt(report.MSE)
	return report, nil
}

// Round は値を小数点以下 decimals 桁に丸める（0.5 は0から遠い方へ）
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
