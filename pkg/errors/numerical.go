package errors

import (
	"math"
)

// CheckNumericalStability は values に NaN または Inf が含まれていれば
// NumericalInstabilityError を返します。
// 行列を扱う場合は RawMatrix().Data や mat.Col の結果をそのまま渡します。
func CheckNumericalStability(operation string, values []float64) error {
	var unstable []float64
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			unstable = append(unstable, v)
		}
	}
	if len(unstable) == 0 {
		return nil
	}
	return NewNumericalInstabilityError(operation, unstable)
}
