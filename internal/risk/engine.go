package risk

import (
	"fmt"

	"github.com/wonny/niftyquant/internal/contracts"
)

// =============================================================================
// Engine - 순수 계산기
// =============================================================================

// Engine 리스크 엔진 (순수 계산기)
// ⭐ SSOT: 데이터 로드/포트폴리오 구성은 상위 레이어에서 조립
// internal/risk는 순수 계산만 담당. 상태 없음, 동시 호출 안전
type Engine struct{}

// NewEngine 새 리스크 엔진 생성
func NewEngine() *Engine {
	return &Engine{}
}

// Report 일간 수익률 벡터에서 RiskReport 계산
// 빈 벡터는 ErrInsufficientData (빈 tail 의 CVaR=0 이 퇴화 입력을 가리지 않도록)
func (e *Engine) Report(returns []float64) (contracts.RiskReport, error) {
	if len(returns) == 0 {
		return contracts.RiskReport{}, fmt.Errorf("%w: empty return vector", contracts.ErrInsufficientData)
	}

	annualReturn := AnnualizedReturn(returns)
	annualVol := AnnualizedVolatility(returns)
	varValue := VaR(returns, VaRPercentile)

	return contracts.RiskReport{
		ExpectedReturn: annualReturn,
		Volatility:     annualVol,
		Sharpe:         Sharpe(annualReturn, annualVol),
		Sortino:        Sortino(returns, annualReturn),
		MaxDrawdown:    MaxDrawdown(returns),
		VaR:            varValue,
		CVaR:           CVaR(returns, varValue),
	}, nil
}

// SeriesReport 가격 시계열 -> 수익률 -> RiskReport
func (e *Engine) SeriesReport(series *contracts.PriceSeries) (contracts.RiskReport, error) {
	returns, err := SeriesReturns(series)
	if err != nil {
		return contracts.RiskReport{}, err
	}
	return e.Report(returns)
}
