// Package cluster は k-means クラスタリングを提供します。
package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housingeda/core/model"
	"github.com/YuminosukeSato/housingeda/core/parallel"
	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

// KMeans は Lloyd 法による K-means クラスタリング
// scikit-learnのKMeansと同様に k-means++ で初期化し、nInit 回の実行から慣性が最小の結果を選ぶ
type KMeans struct {
	model.BaseEstimator

	// ハイパーパラメータ
	nClusters   int   // クラスタ数
	maxIter     int   // 1回の実行あたりの最大イテレーション数
	nInit       int   // 異なる初期化での実行回数
	randomState int64 // 乱数シード（負の値なら時刻から生成）

	// 学習パラメータ
	clusterCenters_ [][]float64 // クラスタ中心（nClusters x nFeatures）
	labels_         []int       // 各サンプルのクラスタラベル
	inertia_        float64     // クラスタ内平方和誤差
	nIter_          int         // 実行されたイテレーション数
	counts_         []int       // 各クラスタのサンプル数

	// 警告の通知先（既定は errors.Warn）
	warn func(error)

	// 内部状態
	mu         sync.RWMutex
	nFeatures_ int
}

// KMeansOption はKMeansの設定オプション
type KMeansOption func(*KMeans)

// WithNClusters はクラスタ数を設定
func WithNClusters(n int) KMeansOption {
	return func(km *KMeans) {
		km.nClusters = n
	}
}

// WithMaxIter は最大イテレーション数を設定
func WithMaxIter(maxIter int) KMeansOption {
	return func(km *KMeans) {
		km.maxIter = maxIter
	}
}

// WithNInit は初期化の試行回数を設定
func WithNInit(nInit int) KMeansOption {
	return func(km *KMeans) {
		km.nInit = nInit
	}
}

// WithRandomState は乱数シードを設定
func WithRandomState(seed int64) KMeansOption {
	return func(km *KMeans) {
		km.randomState = seed
	}
}

// WithWarningHandler は学習中の警告の通知先を設定
// 未設定の場合はプロセス全体の errors.Warn に送られる
func WithWarningHandler(fn func(error)) KMeansOption {
	return func(km *KMeans) {
		km.warn = fn
	}
}

// NewKMeans は新しいKMeansを作成
func NewKMeans(options ...KMeansOption) *KMeans {
	km := &KMeans{
		nClusters:   8,
		maxIter:     300,
		nInit:       1,
		randomState: -1,
	}
	for _, opt := range options {
		opt(km)
	}
	if km.warn == nil {
		km.warn = errors.Warn
	}
	return km
}

// Fit はデータ行列の各行をクラスタに割り当てる
// 同じシードで同じデータに対して呼び出すと、常に同じラベルと中心が得られる
func (km *KMeans) Fit(X mat.Matrix) error {
	km.mu.Lock()
	defer km.mu.Unlock()

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewInvalidInputError("KMeans.Fit", "empty matrix")
	}
	if km.nClusters < 1 {
		return errors.NewInvalidParameterError("KMeans.Fit", "n_clusters", "must be positive", km.nClusters)
	}
	if rows < km.nClusters {
		return errors.NewInvalidParameterError("KMeans.Fit", "n_clusters",
			fmt.Sprintf("n_samples=%d should be >= n_clusters", rows), km.nClusters)
	}
	if km.maxIter < 1 {
		return errors.NewInvalidParameterError("KMeans.Fit", "max_iter", "must be positive", km.maxIter)
	}
	if km.nInit < 1 {
		return errors.NewInvalidParameterError("KMeans.Fit", "n_init", "must be positive", km.nInit)
	}

	samples := make([][]float64, rows)
	for i := range samples {
		samples[i] = mat.Row(nil, i, X)
		if err := errors.CheckNumericalStability("KMeans.Fit", samples[i]); err != nil {
			return err
		}
	}

	// 重複を除いた点の数がクラスタ数より少ない場合は一部のクラスタが同じ中心を共有する
	if distinct := countDistinct(samples); distinct < km.nClusters {
		km.warn(errors.NewConvergenceWarning("KMeans", 0,
			fmt.Sprintf("number of distinct clusters (%d) found smaller than n_clusters (%d)", distinct, km.nClusters)))
	}

	seed := km.randomState
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// 複数回実行して最良の結果を選択
	bestInertia := math.Inf(1)
	var bestCenters [][]float64
	var bestLabels []int
	var bestNIter int
	for run := 0; run < km.nInit; run++ {
		centers, labels, inertia, nIter := km.fitSingleRun(samples, rng)
		if inertia < bestInertia || bestCenters == nil {
			bestInertia = inertia
			bestCenters = centers
			bestLabels = labels
			bestNIter = nIter
		}
	}

	km.clusterCenters_ = bestCenters
	km.labels_ = bestLabels
	km.inertia_ = bestInertia
	km.nIter_ = bestNIter
	km.nFeatures_ = cols
	km.counts_ = make([]int, km.nClusters)
	for _, l := range bestLabels {
		km.counts_[l]++
	}

	km.SetFitted()
	return nil
}

// fitSingleRun は k-means++ 初期化から Lloyd 反復を1回実行する
// ラベルが変化しなくなるか maxIter に達するまで割り当てと中心の更新を繰り返す
func (km *KMeans) fitSingleRun(samples [][]float64, rng *rand.Rand) ([][]float64, []int, float64, int) {
	centers := initKMeansPlusPlus(samples, km.nClusters, rng)
	labels := make([]int, len(samples))
	for i := range labels {
		labels[i] = -1
	}

	nIter := 0
	for iter := 1; iter <= km.maxIter; iter++ {
		nIter = iter
		if !assignLabels(samples, centers, labels) {
			break
		}
		updateCenters(samples, centers, labels)
	}

	// 中心の更新後に最後の割り当てを行い、ラベルと中心を一致させる
	if nIter == km.maxIter {
		assignLabels(samples, centers, labels)
	}

	return centers, labels, computeInertia(samples, centers, labels), nIter
}

// Predict は入力データの各行に最も近いクラスタ番号を返す
func (km *KMeans) Predict(X mat.Matrix) ([]int, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Predict")
	}
	rows, cols := X.Dims()
	if cols != km.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Predict", km.nFeatures_, cols, 1)
	}

	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		labels[i] = nearestCluster(mat.Row(nil, i, X), km.clusterCenters_)
	}
	return labels, nil
}

// FitPredict は学習と予測を同時に行う
func (km *KMeans) FitPredict(X mat.Matrix) ([]int, error) {
	if err := km.Fit(X); err != nil {
		return nil, err
	}
	return km.Labels(), nil
}

// NClusters は設定されたクラスタ数を返す
func (km *KMeans) NClusters() int {
	return km.nClusters
}

// NIterations は選ばれた実行のイテレーション数を返す
func (km *KMeans) NIterations() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.nIter_
}

// ClusterCenters は学習されたクラスタ中心を返す
func (km *KMeans) ClusterCenters() [][]float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()

	centers := make([][]float64, len(km.clusterCenters_))
	for i := range km.clusterCenters_ {
		centers[i] = append([]float64(nil), km.clusterCenters_[i]...)
	}
	return centers
}

var _ model.Clusterer = (*KMeans)(nil)

// Labels は学習データのクラスタラベルを返す
func (km *KMeans) Labels() []int {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if km.labels_ == nil {
		return nil
	}
	return append([]int(nil), km.labels_...)
}

// Counts は各クラスタに割り当てられたサンプル数を返す
func (km *KMeans) Counts() []int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return append([]int(nil), km.counts_...)
}

// Inertia は慣性（クラスタ内平方和誤差）を返す
func (km *KMeans) Inertia() float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.inertia_
}

// 内部ヘルパー

// initKMeansPlusPlus はk-means++初期化を実行
func initKMeansPlusPlus(samples [][]float64, k int, rng *rand.Rand) [][]float64 {
	rows := len(samples)
	centers := make([][]float64, k)

	// 最初のクラスタ中心をランダムに選択
	centers[0] = append([]float64(nil), samples[rng.Intn(rows)]...)

	// 各サンプルから最近傍クラスタ中心までの距離の二乗
	distances := make([]float64, rows)
	for i, s := range samples {
		distances[i] = sqDist(s, centers[0])
	}

	for c := 1; c < k; c++ {
		total := 0.0
		for _, d := range distances {
			total += d
		}

		// 距離の二乗に比例する確率でサンプルを選択
		target := rng.Float64() * total
		cumSum := 0.0
		selected := rows - 1
		for i, d := range distances {
			cumSum += d
			if cumSum >= target {
				selected = i
				break
			}
		}

		centers[c] = append([]float64(nil), samples[selected]...)
		for i, s := range samples {
			if d := sqDist(s, centers[c]); d < distances[i] {
				distances[i] = d
			}
		}
	}
	return centers
}

// assignLabels は各サンプルを最近傍クラスタに割り当て、ラベルが変化したかを返す
func assignLabels(samples [][]float64, centers [][]float64, labels []int) bool {
	var changed atomic.Bool
	parallel.ParallelizeWithThreshold(len(samples), parallel.DefaultThreshold, func(start, end int) {
		local := false
		for i := start; i < end; i++ {
			c := nearestCluster(samples[i], centers)
			if c != labels[i] {
				labels[i] = c
				local = true
			}
		}
		if local {
			changed.Store(true)
		}
	})
	return changed.Load()
}

// updateCenters は各クラスタの中心を所属サンプルの平均に更新する
// 空のクラスタは自身の中心から最も遠いサンプルで置き換える
func updateCenters(samples [][]float64, centers [][]float64, labels []int) {
	k := len(centers)
	cols := len(centers[0])
	counts := make([]int, k)
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, cols)
	}
	for i, s := range samples {
		c := labels[i]
		counts[c]++
		for j, v := range s {
			sums[c][j] += v
		}
	}

	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		for j := range sums[c] {
			centers[c][j] = sums[c][j] / float64(counts[c])
		}
	}

	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, s := range samples {
			if counts[labels[i]] <= 1 {
				continue
			}
			if d := sqDist(s, centers[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			continue
		}
		counts[labels[far]]--
		labels[far] = c
		counts[c] = 1
		copy(centers[c], samples[far])
	}
}

// nearestCluster は最近傍クラスタを検索（同距離なら番号の小さい方）
func nearestCluster(sample []float64, centers [][]float64) int {
	minDist := math.Inf(1)
	nearest := 0
	for c, center := range centers {
		if d := sqDist(sample, center); d < minDist {
			minDist = d
			nearest = c
		}
	}
	return nearest
}

// computeInertia は慣性（クラスタ内平方和誤差）を計算
func computeInertia(samples [][]float64, centers [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, s := range samples {
		inertia += sqDist(s, centers[labels[i]])
	}
	return inertia
}

// sqDist はユークリッド距離の二乗を計算
func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// countDistinct は重複を除いたサンプル数を数える
func countDistinct(samples [][]float64) int {
	seen := make(map[string]struct{}, len(samples))
	var b strings.Builder
	for _, s := range samples {
		b.Reset()
		for _, v := range s {
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			b.WriteByte(',')
		}
		seen[b.String()] = struct{}{}
	}
	return len(seen)
}
