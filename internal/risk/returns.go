package risk

import (
	"fmt"

	"github.com/wonny/niftyquant/internal/contracts"
)

// =============================================================================
// Return vectors
// =============================================================================

// Returns 단순 수익률 r_t = p_t/p_{t-1} - 1 (길이 = len(prices)-1)
func Returns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: %d prices, need at least 2", contracts.ErrInsufficientData, len(prices))
	}

	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out, nil
}

// SeriesReturns computes the return vector of a price series
func SeriesReturns(series *contracts.PriceSeries) ([]float64, error) {
	r, err := Returns(series.Prices())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", series.Symbol, err)
	}
	return r, nil
}

// MatrixReturns 정렬된 가격 행렬 -> 수익률 행렬 (행 수 - 1)
// out[t][j] = Rows[t+1][j]/Rows[t][j] - 1
func MatrixReturns(m *contracts.PriceMatrix) ([][]float64, error) {
	if m.Len() < 2 {
		return nil, fmt.Errorf("%w: %d aligned rows", contracts.ErrInsufficientData, m.Len())
	}

	out := make([][]float64, m.Len()-1)
	for t := 1; t < m.Len(); t++ {
		prev, cur := m.Rows[t-1], m.Rows[t]
		row := make([]float64, len(cur))
		for j := range cur {
			row[j] = cur[j]/prev[j] - 1
		}
		out[t-1] = row
	}
	return out, nil
}

// PortfolioReturns 비중 가중 일간 수익률 Σ w_i r_i
func PortfolioReturns(assetReturns [][]float64, weights []float64) []float64 {
	out := make([]float64, len(assetReturns))
	for t, row := range assetReturns {
		var dayReturn float64
		for j, w := range weights {
			dayReturn += w * row[j]
		}
		out[t] = dayReturn
	}
	return out
}

// =============================================================================
// Windowed returns
// =============================================================================

// WindowedReturn price[-1]/price[-rows] - 1 in percent, rounded to 2 places.
// Returns nil (not an error) when fewer than rows prices exist.
func WindowedReturn(prices []float64, rows int) *float64 {
	if rows < 1 || len(prices) < rows {
		return nil
	}

	last := prices[len(prices)-1]
	base := prices[len(prices)-rows]
	v := contracts.RoundPercent((last/base - 1) * 100)
	return &v
}

// WindowedReturns evaluates every lookback bucket
func WindowedReturns(prices []float64) contracts.ReturnBuckets {
	out := make(contracts.ReturnBuckets, len(Lookbacks))
	for _, lb := range Lookbacks {
		out[lb.Label] = WindowedReturn(prices, lb.Rows)
	}
	return out
}
