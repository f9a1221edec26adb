package model

import "gonum.org/v1/gonum/mat"

// Regressor は目的変数ベクトルに対して学習する回帰モデルのインターフェース
type Regressor interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X mat.Matrix, y mat.Vector) error
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (*mat.VecDense, error)
	// IsFitted は学習済みかどうかを返す
	IsFitted() bool
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	Regressor
	// Coefficients は学習された重み（係数）を返す
	Coefficients() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}

// Clusterer は教師なしのクラスタリングモデルのインターフェース
type Clusterer interface {
	// Fit は行列の各行をクラスタに割り当てる
	Fit(X mat.Matrix) error
	// Labels は学習データ各行のクラスタ番号を返す
	Labels() []int
	// IsFitted は学習済みかどうかを返す
	IsFitted() bool
}
