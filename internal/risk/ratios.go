package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AnnualizedReturn 평균 일간 수익률 × 252
func AnnualizedReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stat.Mean(returns, nil) * TradingDaysPerYear
}

// AnnualizedVolatility 표본 표준편차 × √252
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
}

// Sharpe annualReturn / annualVol, 0 when volatility is exactly 0
func Sharpe(annualReturn, annualVol float64) float64 {
	if annualVol == 0 {
		return 0
	}
	return annualReturn / annualVol
}

// Sortino 하방 편차 (음수 수익률만) 기준 위험조정 수익률
// 음수 수익률이 2개 미만이거나 편차가 0이면 0
func Sortino(returns []float64, annualReturn float64) float64 {
	downside := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return 0
	}

	dev := stat.StdDev(downside, nil) * math.Sqrt(TradingDaysPerYear)
	if dev == 0 {
		return 0
	}
	return annualReturn / dev
}

// MaxDrawdown max(cummax(W) - W), W_t = Π(1+r_i)
// 절대 낙폭 (wealth 단위). 비율 낙폭 아님
func MaxDrawdown(returns []float64) float64 {
	wealth := 1.0
	peak := math.Inf(-1)
	maxDD := 0.0

	for _, r := range returns {
		wealth *= 1 + r
		if wealth > peak {
			peak = wealth
		}
		if dd := peak - wealth; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
