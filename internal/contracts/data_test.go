package contracts

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestNewPriceSeries_Validation(t *testing.T) {
	_, err := NewPriceSeries("TCS", []PricePoint{{day(0), 10}, {day(1), 11}})
	require.NoError(t, err)

	_, err = NewPriceSeries("TCS", []PricePoint{{day(1), 10}, {day(1), 11}})
	assert.ErrorIs(t, err, ErrInvalidInput, "duplicate dates")

	_, err = NewPriceSeries("TCS", []PricePoint{{day(2), 10}, {day(1), 11}})
	assert.ErrorIs(t, err, ErrInvalidInput, "decreasing dates")

	_, err = NewPriceSeries("TCS", []PricePoint{{day(0), -1}})
	assert.ErrorIs(t, err, ErrInvalidInput, "negative price")

	_, err = NewPriceSeries("TCS", []PricePoint{{day(0), math.Inf(1)}})
	assert.ErrorIs(t, err, ErrInvalidInput, "infinite price")
}

func TestPriceSeries_TailAndLastDate(t *testing.T) {
	s, err := NewPriceSeries("INFY", []PricePoint{{day(0), 1}, {day(1), 2}, {day(2), 3}})
	require.NoError(t, err)

	assert.Equal(t, day(2), s.LastDate())
	assert.Equal(t, []float64{2, 3}, s.Tail(2).Prices())
	assert.Equal(t, 3, s.Tail(10).Len())
	assert.True(t, (&PriceSeries{}).LastDate().IsZero())
}

func newTable(t *testing.T) *PriceTable {
	t.Helper()
	nan := math.NaN()
	table, err := NewPriceTable(
		[]time.Time{day(0), day(1), day(2), day(3)},
		[]string{"A", "B", "C"},
		map[string][]float64{
			"A": {10, 11, 12, 13},
			"B": {nan, 21, 22, 23},
			"C": {30, nan, 32, 33},
		},
	)
	require.NoError(t, err)
	return table
}

func TestPriceTable_Series(t *testing.T) {
	table := newTable(t)

	s, err := table.Series("B")
	require.NoError(t, err)
	assert.Equal(t, []float64{21, 22, 23}, s.Prices())
	assert.Equal(t, day(1), s.Points[0].Date)

	_, err = table.Series("ZZZ")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestPriceTable_AlignInnerJoin(t *testing.T) {
	table := newTable(t)

	m, err := table.Align([]string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []time.Time{day(2), day(3)}, m.Dates)
	assert.Equal(t, []float64{22, 23}, m.Column(1))
	assert.NoError(t, m.RequireRows(2))
	assert.ErrorIs(t, m.RequireRows(3), ErrEmptyPriceData)

	m, err = table.Align([]string{"A"})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())
}

func TestPriceTable_AlignErrors(t *testing.T) {
	table := newTable(t)

	_, err := table.Align(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = table.Align([]string{"A", "A"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = table.Align([]string{"A", "NOPE"})
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestNewPriceTable_Validation(t *testing.T) {
	_, err := NewPriceTable([]time.Time{day(1), day(0)}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewPriceTable([]time.Time{day(0)}, []string{"A"}, map[string][]float64{"A": {1, 2}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewPriceTable([]time.Time{day(0)}, []string{"A"}, map[string][]float64{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSectorMap_DefaultsToUnknown(t *testing.T) {
	m := NewSectorMap([]StockInfo{
		{Symbol: "TCS", Sector: "IT"},
		{Symbol: "XYZ", Sector: ""},
	})

	assert.Equal(t, "IT", m.SectorOf("TCS"))
	assert.Equal(t, UnknownSector, m.SectorOf("XYZ"))
	assert.Equal(t, UnknownSector, m.SectorOf("MISSING"))
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: 1 row", ErrEmptyPriceData), KindEmptyPriceData},
		{fmt.Errorf("wrapped: %w", fmt.Errorf("%w: x", ErrConvergence)), KindConvergence},
		{ErrModelNotAvailable, KindModelNotAvailable},
		{ErrInsufficientHistory, KindInsufficientHistory},
		{ErrSymbolNotFound, KindSymbolNotFound},
		{ErrInsufficientData, KindInsufficientData},
		{ErrInvalidInput, KindInvalidInput},
		{errors.New("disk on fire"), KindInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), tt.err.Error())
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 169.59, RoundPercent(169.5945945945946))
	assert.Equal(t, 0.1235, RoundRatio(0.12345678))
	assert.Equal(t, -1.25, RoundPercent(-1.2499999))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestAllocation_Helpers(t *testing.T) {
	a := &Allocation{
		Symbols: []string{"A", "B"},
		Weights: []float64{0.25, 0.75},
		Metrics: RiskReport{ExpectedReturn: 0.123456789, Sharpe: 1.5},
	}

	assert.InDelta(t, 1.0, a.TotalWeight(), 1e-12)
	w, ok := a.Weight("B")
	assert.True(t, ok)
	assert.Equal(t, 0.75, w)
	_, ok = a.Weight("C")
	assert.False(t, ok)

	assert.Equal(t, map[string]float64{"A": 25, "B": 75}, a.WeightsPercent())
	pct := a.Metrics.Percent()
	assert.Equal(t, 12.3457, pct["expected_return"])
	assert.Equal(t, 150.0, pct["sharpe"])
}
