package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/niftyquant/internal/contracts"
)

func TestReturns(t *testing.T) {
	r, err := Returns([]float64{100, 110, 99})
	require.NoError(t, err)
	require.Len(t, r, 2)
	assert.InDelta(t, 0.1, r[0], 1e-12)
	assert.InDelta(t, -0.1, r[1], 1e-12)

	_, err = Returns([]float64{100})
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	_, err = Returns(nil)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestSeriesReturns_CarriesSymbol(t *testing.T) {
	s := &contracts.PriceSeries{Symbol: "WIPRO", Points: []contracts.PricePoint{{Date: time.Now(), Price: 1}}}
	_, err := SeriesReturns(s)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
	assert.Contains(t, err.Error(), "WIPRO")
}

func TestMatrixReturnsAndPortfolioReturns(t *testing.T) {
	m := &contracts.PriceMatrix{
		Symbols: []string{"A", "B"},
		Rows:    [][]float64{{10, 20}, {11, 18}, {11, 27}},
	}
	r, err := MatrixReturns(m)
	require.NoError(t, err)
	require.Len(t, r, 2)
	assert.InDelta(t, 0.1, r[0][0], 1e-12)
	assert.InDelta(t, -0.1, r[0][1], 1e-12)
	assert.InDelta(t, 0.5, r[1][1], 1e-12)

	p := PortfolioReturns(r, []float64{0.5, 0.5})
	assert.InDelta(t, 0.0, p[0], 1e-12)
	assert.InDelta(t, 0.25, p[1], 1e-12)

	_, err = MatrixReturns(&contracts.PriceMatrix{Rows: [][]float64{{1}}})
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestWindowedReturn(t *testing.T) {
	prices := make([]float64, 300)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	oneYear := WindowedReturn(prices, 252)
	require.NotNil(t, oneYear)
	assert.Equal(t, 169.59, *oneYear)

	oneDay := WindowedReturn(prices, 2)
	require.NotNil(t, oneDay)
	assert.Equal(t, 0.25, *oneDay)

	assert.Nil(t, WindowedReturn(prices, 1260), "not enough rows is absence, not an error")
	assert.Nil(t, WindowedReturn(nil, 2))
}

func TestWindowedReturns_Buckets(t *testing.T) {
	prices := make([]float64, 130)
	for i := range prices {
		prices[i] = 50
	}

	buckets := WindowedReturns(prices)
	assert.Len(t, buckets, 6)
	for _, label := range []string{Lookback1D, Lookback1W, Lookback1M, Lookback6M} {
		require.NotNil(t, buckets[label], label)
		assert.Equal(t, 0.0, *buckets[label], label)
	}
	assert.Nil(t, buckets[Lookback1Y])
	assert.Nil(t, buckets[Lookback5Y])
}

func TestLookbackRows(t *testing.T) {
	want := map[string]int{"1D": 2, "1W": 6, "1M": 21, "6M": 126, "1Y": 252, "5Y": 1260}
	for _, lb := range Lookbacks {
		assert.Equal(t, want[lb.Label], lb.Rows, lb.Label)
	}
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, 0.55, MaxDrawdown([]float64{0.1, -0.5, 0.2}), 1e-12)
	assert.Equal(t, 0.0, MaxDrawdown([]float64{0.01, 0.02, 0.03}))
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

func TestVaRAndCVaR(t *testing.T) {
	returns := []float64{0.05, 0.01, 0.03, 0.02, 0.04}

	v := VaR(returns, VaRPercentile)
	assert.InDelta(t, 0.012, v, 1e-12, "linear interpolation between closest ranks")
	assert.InDelta(t, 0.01, CVaR(returns, v), 1e-12)

	assert.Equal(t, []float64{0.05, 0.01, 0.03, 0.02, 0.04}, returns, "input must not be reordered")
	assert.Equal(t, 0.0, CVaR(returns, -1), "empty tail yields 0")
	assert.Equal(t, 0.0, VaR(nil, VaRPercentile))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 4.0, Percentile(sorted, 100))
	assert.InDelta(t, 2.5, Percentile(sorted, 50), 1e-12)
}

func TestSharpeAndSortino(t *testing.T) {
	assert.Equal(t, 0.0, Sharpe(0.12, 0), "zero volatility")
	assert.InDelta(t, 2.0, Sharpe(0.2, 0.1), 1e-12)

	assert.Equal(t, 0.0, Sortino([]float64{0.01, 0.02}, 1), "no negative returns")
	assert.Equal(t, 0.0, Sortino([]float64{0.01, -0.02}, 1), "single negative return")

	returns := []float64{-0.01, -0.03, 0.02}
	annual := AnnualizedReturn(returns)
	want := annual / (math.Sqrt(0.0002) * math.Sqrt(TradingDaysPerYear))
	assert.InDelta(t, want, Sortino(returns, annual), 1e-9)
}

func TestEngineReport(t *testing.T) {
	e := NewEngine()

	_, err := e.Report(nil)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	report, err := e.Report([]float64{0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 126.0, report.ExpectedReturn, 1e-9)
	assert.InDelta(t, 0.0, report.Volatility, 1e-12)
	assert.Equal(t, 0.0, report.Sharpe)
	assert.Equal(t, 0.0, report.Sortino)
	assert.Equal(t, 0.0, report.MaxDrawdown)
	assert.Equal(t, 0.5, report.VaR)
	assert.Equal(t, 0.5, report.CVaR)
}

func TestEngineSeriesReport(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s, err := contracts.NewPriceSeries("HDFC", []contracts.PricePoint{
		{Date: base, Price: 100},
		{Date: base.AddDate(0, 0, 1), Price: 110},
		{Date: base.AddDate(0, 0, 2), Price: 99},
	})
	require.NoError(t, err)

	report, err := NewEngine().SeriesReport(s)
	require.NoError(t, err)
	assert.InDelta(t, 0.11, report.MaxDrawdown, 1e-12)
	assert.Less(t, report.VaR, 0.0)
}

func TestEngineSeriesReport_ConstantPrices(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := make([]contracts.PricePoint, 40)
	for i := range points {
		points[i] = contracts.PricePoint{Date: base.AddDate(0, 0, i), Price: 1520.5}
	}
	s, err := contracts.NewPriceSeries("ITC", points)
	require.NoError(t, err)

	returns, err := SeriesReturns(s)
	require.NoError(t, err)
	for _, r := range returns {
		assert.Equal(t, 0.0, r)
	}

	report, err := NewEngine().SeriesReport(s)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.ExpectedReturn)
	assert.Equal(t, 0.0, report.Volatility)
	assert.Equal(t, 0.0, report.Sharpe)
	assert.Equal(t, 0.0, report.Sortino)
	assert.Equal(t, 0.0, report.MaxDrawdown)
	assert.Equal(t, 0.0, report.VaR)
	assert.Equal(t, 0.0, report.CVaR)

	buckets := WindowedReturns(s.Prices())
	for _, label := range []string{Lookback1D, Lookback1W, Lookback1M} {
		require.NotNil(t, buckets[label], label)
		assert.Equal(t, 0.0, *buckets[label], label)
	}
}
