package risk

import (
	"math"
	"sort"
)

// =============================================================================
// VaR (Value at Risk) Calculation
// =============================================================================

// VaR 역사적 VaR: 수익률의 p 백분위 (선형 보간)
// returns: 일별 수익률 (양수=이익, 음수=손실)
// 반환값은 수익률 그대로 (예: -0.021 = 하위 5% 일간 수익률)
func VaR(returns []float64, percentile float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	return Percentile(sorted, percentile)
}

// CVaR Conditional VaR (Expected Shortfall): VaR 이하 수익률의 평균
// ⭐ 빈 tail 은 0 반환 (에러 아님). 호출자가 길이를 먼저 확인해야 함
func CVaR(returns []float64, varValue float64) float64 {
	var sum float64
	count := 0
	for _, r := range returns {
		if r <= varValue {
			sum += r
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// =============================================================================
// 통계 유틸리티
// =============================================================================

// Percentile 백분위수 계산
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
