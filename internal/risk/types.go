package risk

import "github.com/wonny/niftyquant/internal/contracts"

// =============================================================================
// Conventions
// =============================================================================

// TradingDaysPerYear 연환산 계수
const TradingDaysPerYear = 252

// VaRPercentile 역사적 VaR 백분위 (5 = 하위 5%)
// ⭐ SSOT: VaR/CVaR는 수익률 부호 그대로 (음수 = 손실). 손실-양수 변환 없음
const VaRPercentile = 5.0

// Lookback labels
const (
	Lookback1D = "1D"
	Lookback1W = "1W"
	Lookback1M = "1M"
	Lookback6M = "6M"
	Lookback1Y = "1Y"
	Lookback5Y = "5Y"
)

// Lookbacks 기간 수익률 버킷 (거래일 행 수 기준, 달력 기간 아님)
// ⭐ 호환성: 행 수는 정확히 유지 (1D=2 는 "오늘과 직전 거래일")
var Lookbacks = []contracts.Lookback{
	{Label: Lookback1D, Rows: 2},
	{Label: Lookback1W, Rows: 6},
	{Label: Lookback1M, Rows: 21},
	{Label: Lookback6M, Rows: 126},
	{Label: Lookback1Y, Rows: 252},
	{Label: Lookback5Y, Rows: 1260},
}
