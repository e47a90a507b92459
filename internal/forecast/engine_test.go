package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/niftyquant/internal/contracts"
)

// stepPredictor returns the last window value plus step and records windows
type stepPredictor struct {
	step    float64
	err     error
	windows [][]float64
}

func (p *stepPredictor) PredictNext(_ context.Context, window []float64) (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.windows = append(p.windows, append([]float64(nil), window...))
	return window[len(window)-1] + p.step, nil
}

type identityScaler struct{}

func (identityScaler) Transform(v []float64) []float64        { return append([]float64(nil), v...) }
func (identityScaler) InverseTransform(v []float64) []float64 { return append([]float64(nil), v...) }

// 2024-01-04 is a Thursday
var thursday = time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

func makeSeries(t *testing.T, symbol string, n int, last time.Time) *contracts.PriceSeries {
	t.Helper()
	points := make([]contracts.PricePoint, n)
	for i := range points {
		points[i] = contracts.PricePoint{
			Date:  last.AddDate(0, 0, i-n+1),
			Price: 100 + float64(i),
		}
	}
	s, err := contracts.NewPriceSeries(symbol, points)
	require.NoError(t, err)
	return s
}

func newTestEngine(t *testing.T, models ...*contracts.Model) *Engine {
	t.Helper()
	reg := NewStaticRegistry()
	for _, m := range models {
		require.NoError(t, reg.Register(m))
	}
	return NewEngine(DefaultConfig(), reg, zerolog.Nop())
}

func TestForecast_PathAndDates(t *testing.T) {
	pred := &stepPredictor{step: 1}
	e := newTestEngine(t, &contracts.Model{Symbol: "TCS", Version: "v3", Predictor: pred, Scaler: identityScaler{}})

	path, err := e.Forecast(context.Background(), makeSeries(t, "TCS", 80, thursday), 5)
	require.NoError(t, err)

	require.Len(t, path.Points, 5)
	assert.Equal(t, "v3", path.ModelVersion)
	assert.Equal(t, thursday, path.LastDate)

	wantDates := []time.Time{
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
	}
	for i, p := range path.Points {
		assert.Equal(t, wantDates[i], p.Date)
		assert.InDelta(t, 180+float64(i), p.Price, 1e-9)
	}
}

func TestForecast_WindowSlides(t *testing.T) {
	pred := &stepPredictor{step: 0.5}
	e := newTestEngine(t, &contracts.Model{Symbol: "INFY", Predictor: pred, Scaler: identityScaler{}})

	_, err := e.Forecast(context.Background(), makeSeries(t, "INFY", 100, thursday), 3)
	require.NoError(t, err)

	require.Len(t, pred.windows, 3)
	for _, w := range pred.windows {
		assert.Len(t, w, 60)
	}
	assert.Equal(t, 140.0, pred.windows[0][0], "window starts at the last 60 observations")
	assert.Equal(t, 199.0, pred.windows[0][59])
	assert.Equal(t, 141.0, pred.windows[1][0], "oldest element dropped")
	assert.Equal(t, 199.5, pred.windows[1][59], "prediction appended")
	assert.Equal(t, 200.0, pred.windows[2][59])
}

func TestForecast_ScalerRoundTrip(t *testing.T) {
	series := makeSeries(t, "SBIN", 60, thursday)
	scaler := NewMinMaxScaler(series.Prices())
	pred := &stepPredictor{step: 0}
	e := newTestEngine(t, &contracts.Model{Symbol: "SBIN", Predictor: pred, Scaler: scaler})

	path, err := e.Forecast(context.Background(), series, 2)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, pred.windows[0][59], 1e-12, "predictor sees scaled values")
	for _, p := range path.Points {
		assert.InDelta(t, 159.0, p.Price, 1e-9, "output is back in native scale")
	}
}

func TestForecast_ModelResolvedBeforeHistoryCheck(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Forecast(context.Background(), makeSeries(t, "NOPE", 10, thursday), 5)
	assert.ErrorIs(t, err, contracts.ErrModelNotAvailable)
}

func TestForecast_Errors(t *testing.T) {
	pred := &stepPredictor{step: 1}
	e := newTestEngine(t, &contracts.Model{Symbol: "TCS", Predictor: pred, Scaler: identityScaler{}})
	ctx := context.Background()

	_, err := e.Forecast(ctx, makeSeries(t, "TCS", 59, thursday), 5)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)

	_, err = e.Forecast(ctx, makeSeries(t, "TCS", 60, thursday), 0)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = e.Forecast(ctx, makeSeries(t, "TCS", 60, thursday), 366)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Forecast(cancelled, makeSeries(t, "TCS", 60, thursday), 3)
	assert.ErrorIs(t, err, context.Canceled)

	boom := errors.New("model server down")
	failing := newTestEngine(t, &contracts.Model{Symbol: "TCS", Predictor: &stepPredictor{err: boom}, Scaler: identityScaler{}})
	_, err = failing.Forecast(ctx, makeSeries(t, "TCS", 60, thursday), 3)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, contracts.KindInternal, contracts.ErrorKind(err))
}

func TestTradingDays(t *testing.T) {
	friday := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	days := TradingDays(friday, 3)
	require.Len(t, days, 3)
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, time.Wednesday, days[2].Weekday())

	saturday := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), TradingDays(saturday, 1)[0])

	for _, d := range TradingDays(thursday, 30) {
		assert.True(t, IsTradingDay(d))
	}
	assert.Nil(t, TradingDays(thursday, 0))
}

func TestScalers_RoundTrip(t *testing.T) {
	values := []float64{101.5, 99.25, 120, 87.75}

	scalers := []contracts.Scaler{
		NewMinMaxScaler(values),
		&StandardScaler{Mean: 100, Scale: 12.5},
		&StandardScaler{Mean: 3, Scale: 0},
		NewMinMaxScaler([]float64{5, 5}),
	}
	for _, s := range scalers {
		back := s.InverseTransform(s.Transform(values))
		assert.InDeltaSlice(t, values, back, 1e-9)
	}

	mm := NewMinMaxScaler(values)
	assert.InDeltaSlice(t, []float64{0, 1}, mm.Transform([]float64{87.75, 120}), 1e-12)
}

func TestScalerParams_Build(t *testing.T) {
	s, err := ScalerParams{Kind: ScalerMinMax, A: 10, B: 20}.Build()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, s.Transform([]float64{15})[0], 1e-12)

	s, err = ScalerParams{Kind: ScalerStandard, A: 10, B: 2}.Build()
	require.NoError(t, err)
	assert.InDelta(t, 2.5, s.Transform([]float64{15})[0], 1e-12)

	_, err = ScalerParams{Kind: "robust"}.Build()
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestStaticRegistry(t *testing.T) {
	reg := NewStaticRegistry()

	assert.ErrorIs(t, reg.Register(&contracts.Model{Symbol: "X"}), contracts.ErrInvalidInput)
	require.NoError(t, reg.Register(&contracts.Model{Symbol: "B", Predictor: &stepPredictor{}, Scaler: identityScaler{}}))
	require.NoError(t, reg.Register(&contracts.Model{Symbol: "A", Predictor: &stepPredictor{}, Scaler: identityScaler{}}))

	assert.Equal(t, []string{"A", "B"}, reg.Symbols())

	m, err := reg.Resolve(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", m.Symbol)

	_, err = reg.Resolve(context.Background(), "C")
	assert.ErrorIs(t, err, contracts.ErrModelNotAvailable)
}
