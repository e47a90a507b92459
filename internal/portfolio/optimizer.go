package portfolio

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/internal/risk"
)

// Config 최적화 파라미터
type Config struct {
	Iterations int     // 고정 반복 횟수 (기본 5000)
	StepSize   float64 // 고정 step η (기본 0.001)
}

// DefaultConfig returns the reference parameters
func DefaultConfig() Config {
	return Config{
		Iterations: 5000,
		StepSize:   0.001,
	}
}

// Optimizer 최소분산 projected-gradient 포트폴리오 최적화
// ⭐ 알려진 불일치: targetReturn 은 목적함수에 사용되지 않음
// 요청 수익률과 무관하게 simplex 위 최소분산 포트폴리오로 수렴
type Optimizer struct {
	config      Config
	constraints Constraints
	risk        *risk.Engine
	logger      zerolog.Logger
}

// NewOptimizer creates a new optimizer
func NewOptimizer(config Config, constraints Constraints, engine *risk.Engine, logger zerolog.Logger) *Optimizer {
	return &Optimizer{
		config:      config,
		constraints: constraints,
		risk:        engine,
		logger:      logger.With().Str("component", "portfolio_optimizer").Logger(),
	}
}

// Optimize 정렬된 가격 행렬 -> 비중 + RiskReport
func (o *Optimizer) Optimize(prices *contracts.PriceMatrix, targetReturn float64) (*contracts.Allocation, error) {
	if err := prices.RequireRows(2); err != nil {
		return nil, err
	}
	if o.config.Iterations < 0 || o.config.StepSize <= 0 {
		return nil, fmt.Errorf("%w: iterations=%d step=%v",
			contracts.ErrInvalidInput, o.config.Iterations, o.config.StepSize)
	}

	returns, err := risk.MatrixReturns(prices)
	if err != nil {
		return nil, err
	}

	n := len(prices.Symbols)
	cov := annualizedCovariance(returns, n)

	weights, err := o.descend(cov, n)
	if err != nil {
		return nil, err
	}
	if !o.constraints.Feasible(weights, feasibilityTolerance) {
		return nil, fmt.Errorf("%w: weights %v left the simplex", contracts.ErrConvergence, weights)
	}

	daily := risk.PortfolioReturns(returns, weights)
	report, err := o.risk.Report(daily)
	if err != nil {
		return nil, err
	}

	o.logger.Debug().
		Int("symbols", n).
		Int("observations", len(returns)).
		Float64("target_return", targetReturn).
		Float64("volatility", report.Volatility).
		Msg("Portfolio optimized (target return not used by objective)")

	return &contracts.Allocation{
		Symbols:      append([]string(nil), prices.Symbols...),
		Weights:      weights,
		TargetReturn: targetReturn,
		Iterations:   o.config.Iterations,
		Observations: len(returns),
		Metrics:      report,
	}, nil
}

// descend w ← Project(w − η·Σw), 1/N 에서 시작, 고정 횟수 반복
func (o *Optimizer) descend(cov *mat.SymDense, n int) ([]float64, error) {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	wv := mat.NewVecDense(n, w)
	grad := mat.NewVecDense(n, nil)

	for iter := 0; iter < o.config.Iterations; iter++ {
		grad.MulVec(cov, wv)
		wv.AddScaledVec(wv, -o.config.StepSize, grad)

		if err := o.constraints.Project(w); err != nil {
			o.logger.Warn().Int("iteration", iter).Err(err).Msg("Projection failed")
			return nil, err
		}
	}

	return w, nil
}

// feasibilityTolerance 최종 비중 simplex 검증 허용 오차
const feasibilityTolerance = 1e-9

// annualizedCovariance 표본 공분산 × 252 (행 = 관측치, 열 = 종목)
// 수익률이 1행뿐이면 표본 공분산이 정의되지 않으므로 0 행렬 (기울기 0, 1/N 유지)
func annualizedCovariance(returns [][]float64, n int) *mat.SymDense {
	if len(returns) < 2 {
		return mat.NewSymDense(n, nil)
	}

	data := make([]float64, 0, len(returns)*n)
	for _, row := range returns {
		data = append(data, row...)
	}
	x := mat.NewDense(len(returns), n, data)

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, x, nil)
	cov.ScaleSym(risk.TradingDaysPerYear, cov)
	return cov
}
