package contracts

// RiskReport 수익률 벡터에서 계산한 위험/수익 지표
// ⭐ 매 호출마다 새로 계산 (캐시 없음). VaR/CVaR는 수익률 부호 그대로 (음수 = 손실)
type RiskReport struct {
	ExpectedReturn float64 `json:"expected_return"` // 연환산 기대수익률
	Volatility     float64 `json:"volatility"`      // 연환산 변동성
	Sharpe         float64 `json:"sharpe"`
	Sortino        float64 `json:"sortino"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	VaR            float64 `json:"VaR"`  // 5th percentile 일간 수익률
	CVaR           float64 `json:"CVaR"` // VaR 이하 수익률 평균
}

// Percent returns every metric scaled to percent and rounded to 4 places
func (r RiskReport) Percent() map[string]float64 {
	return map[string]float64{
		"expected_return": RoundRatio(r.ExpectedReturn * 100),
		"volatility":      RoundRatio(r.Volatility * 100),
		"sharpe":          RoundRatio(r.Sharpe * 100),
		"sortino":         RoundRatio(r.Sortino * 100),
		"max_drawdown":    RoundRatio(r.MaxDrawdown * 100),
		"VaR":             RoundRatio(r.VaR * 100),
		"CVaR":            RoundRatio(r.CVaR * 100),
	}
}

// Allocation 최적화 결과 (비음수, 합계 1)
type Allocation struct {
	Symbols      []string   `json:"symbols"`
	Weights      []float64  `json:"weights"` // Symbols 와 같은 순서
	TargetReturn float64    `json:"target_return"`
	Iterations   int        `json:"iterations"`
	Observations int        `json:"observations"` // 사용된 일간 수익률 개수
	Metrics      RiskReport `json:"metrics"`
}

// Weight returns the weight of symbol (false if absent)
func (a *Allocation) Weight(symbol string) (float64, bool) {
	for i, s := range a.Symbols {
		if s == symbol {
			return a.Weights[i], true
		}
	}
	return 0, false
}

// TotalWeight returns the sum of all weights
func (a *Allocation) TotalWeight() float64 {
	total := 0.0
	for _, w := range a.Weights {
		total += w
	}
	return total
}

// WeightsPercent returns symbol -> weight in percent, rounded to 2 places
func (a *Allocation) WeightsPercent() map[string]float64 {
	out := make(map[string]float64, len(a.Symbols))
	for i, s := range a.Symbols {
		out[s] = RoundPercent(a.Weights[i] * 100)
	}
	return out
}
