package contracts

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds v to the given decimal places (half away from zero).
// NaN/Inf pass through unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundPercent 퍼센트 값은 소수 2자리
func RoundPercent(v float64) float64 {
	return Round(v, 2)
}

// RoundRatio 위험 지표(Sharpe/Sortino/VaR/CVaR)는 소수 4자리
func RoundRatio(v float64) float64 {
	return Round(v, 4)
}
