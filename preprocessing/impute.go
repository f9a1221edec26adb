package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housingeda/core/model"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

// Median は NaN を除いた値の中央値を返す
// 偶数個の場合は中央の2値の平均を返す。観測値が1つもない場合は ok=false
func Median(values []float64) (median float64, ok bool) {
	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	n := len(observed)
	if n == 0 {
		return math.NaN(), false
	}
	sort.Float64s(observed)
	if n%2 == 1 {
		return observed[n/2], true
	}
	return (observed[n/2-1] + observed[n/2]) / 2, true
}

// MedianImputer は列ごとの中央値で欠損値（NaN）を補完する
// 観測値が1つもない列は Fallback で補完する
type MedianImputer struct {
	model.BaseEstimator

	// Medians は各特徴量の補完値
	Medians []float64

	// NFeatures は特徴量の数
	NFeatures int

	// Fallback は中央値が定義できない列に使う値 (デフォルト: 0)
	Fallback float64
}

// NewMedianImputer は新しいMedianImputerを作成する
//
// 使用例:
//
//	imputer := preprocessing.NewMedianImputer(0)
//	XFilled, err := imputer.FitTransform(X)
func NewMedianImputer(fallback float64) *MedianImputer {
	return &MedianImputer{Fallback: fallback}
}

// Fit は各列の中央値を計算する
func (m *MedianImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewInvalidInputError("MedianImputer.Fit", "empty matrix")
	}

	m.NFeatures = c
	m.Medians = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			col[i] = X.At(i, j)
		}
		med, ok := Median(col)
		if !ok {
			med = m.Fallback
		}
		m.Medians[j] = med
	}

	m.SetFitted()
	return nil
}

// Transform は欠損値を学習済みの中央値で置き換えた新しい行列を返す
func (m *MedianImputer) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MedianImputer", "Transform")
	}
	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MedianImputer.Transform", m.NFeatures, c, 1)
	}

	out := mat.DenseCopyOf(X)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(out.At(i, j)) {
				out.Set(i, j, m.Medians[j])
			}
		}
	}
	return out, nil
}

// FitTransform はFitとTransformを同時に実行する
func (m *MedianImputer) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// String は補完器の文字列表現を返す
func (m *MedianImputer) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MedianImputer(fallback=%g)", m.Fallback)
	}
	return fmt.Sprintf("MedianImputer(fallback=%g, n_features=%d)", m.Fallback, m.NFeatures)
}

// MissingColumns は行列内に NaN が残っている列の名前を返す
// names は列順に対応する特徴量名
func MissingColumns(X mat.Matrix, names []string) []string {
	r, c := X.Dims()
	var missing []string
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			if math.IsNaN(X.At(i, j)) {
				if j < len(names) {
					missing = append(missing, names[j])
				} else {
					missing = append(missing, fmt.Sprintf("x%d", j))
				}
				break
			}
		}
	}
	return missing
}
