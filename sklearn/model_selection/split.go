// Package model_selection はホールドアウト分割を提供します。
package model_selection

import (
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/housingeda/pkg/errors"
)

const opSplit = "train_test_split"

// TrainTestSplit は n 行を学習用と評価用のインデックスに分割する
//
// 評価用は ceil(testSize*n) 行、残りが学習用となる。行の選択は seed から
// 生成した乱数順列で決まるため、同じ引数なら常に同じ分割を返す。
// 返すインデックスはそれぞれ昇順に並ぶ。
//
// 使用例:
//
//	train, test, err := model_selection.TrainTestSplit(100, 0.2, 42)
//	// len(train) == 80, len(test) == 20
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewInvalidParameterError(opSplit, "test_size",
			"must be strictly between 0 and 1", testSize)
	}
	if n < 0 {
		return nil, nil, errors.NewInvalidParameterError(opSplit, "n_samples",
			"must be non-negative", n)
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain <= 0 {
		return nil, nil, errors.NewInsufficientDataError(opSplit, nTrain, nTest)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test, nil
}
