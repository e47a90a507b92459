package contracts

import (
	"fmt"
	"math"
	"time"
)

// DateLayout ISO 날짜 포맷 (모든 출력 경계에서 사용)
const DateLayout = "2006-01-02"

// UnknownSector 섹터 매핑이 없는 종목의 기본 섹터
const UnknownSector = "Unknown"

// PricePoint 일별 종가
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries 단일 종목 종가 시계열
// ⭐ 날짜 오름차순, 중복 없음, 가격은 유한한 비음수. 로드 이후 불변
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// NewPriceSeries validates points and returns a series
func NewPriceSeries(symbol string, points []PricePoint) (*PriceSeries, error) {
	for i, p := range points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
			return nil, fmt.Errorf("%w: %s has invalid price %v on %s",
				ErrInvalidInput, symbol, p.Price, p.Date.Format(DateLayout))
		}
		if i > 0 && !p.Date.After(points[i-1].Date) {
			return nil, fmt.Errorf("%w: %s dates not strictly increasing at %s",
				ErrInvalidInput, symbol, p.Date.Format(DateLayout))
		}
	}
	return &PriceSeries{Symbol: symbol, Points: points}, nil
}

// Len returns the number of observations
func (s *PriceSeries) Len() int {
	return len(s.Points)
}

// Prices returns the price column
func (s *PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// LastDate returns the date of the last observation (zero time if empty)
func (s *PriceSeries) LastDate() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// Tail returns the last n observations sharing the underlying array
func (s *PriceSeries) Tail(n int) *PriceSeries {
	if n >= len(s.Points) {
		return s
	}
	return &PriceSeries{Symbol: s.Symbol, Points: s.Points[len(s.Points)-n:]}
}

// PriceTable 날짜 × 종목 wide 테이블 (NaN = 결측)
// ⭐ 로드 후 읽기 전용. 동시 요청 간 참조 공유 가능
type PriceTable struct {
	Dates   []time.Time
	Symbols []string
	columns map[string][]float64
}

// NewPriceTable validates the date axis and column lengths.
// symbols fixes the column order; every symbol must have a column.
func NewPriceTable(dates []time.Time, symbols []string, columns map[string][]float64) (*PriceTable, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: dates not strictly increasing at %s",
				ErrInvalidInput, dates[i].Format(DateLayout))
		}
	}

	for _, sym := range symbols {
		col, ok := columns[sym]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrInvalidInput, sym)
		}
		if len(col) != len(dates) {
			return nil, fmt.Errorf("%w: column %s has %d values for %d dates",
				ErrInvalidInput, sym, len(col), len(dates))
		}
		for _, v := range col {
			if math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("%w: column %s has invalid price %v", ErrInvalidInput, sym, v)
			}
		}
	}

	return &PriceTable{Dates: dates, Symbols: symbols, columns: columns}, nil
}

// Has reports whether the table carries a column for symbol
func (t *PriceTable) Has(symbol string) bool {
	_, ok := t.columns[symbol]
	return ok
}

// Len returns the number of rows on the date axis
func (t *PriceTable) Len() int {
	return len(t.Dates)
}

// Series returns the symbol's observations with missing values dropped
func (t *PriceTable) Series(symbol string) (*PriceSeries, error) {
	col, ok := t.columns[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	points := make([]PricePoint, 0, len(col))
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		points = append(points, PricePoint{Date: t.Dates[i], Price: v})
	}
	return &PriceSeries{Symbol: symbol, Points: points}, nil
}

// Align inner-joins the requested symbols on the date axis:
// only rows where every symbol has a value survive.
func (t *PriceTable) Align(symbols []string) (*PriceMatrix, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols requested", ErrInvalidInput)
	}

	seen := make(map[string]bool, len(symbols))
	cols := make([][]float64, len(symbols))
	for j, sym := range symbols {
		if seen[sym] {
			return nil, fmt.Errorf("%w: duplicate symbol %s", ErrInvalidInput, sym)
		}
		seen[sym] = true

		col, ok := t.columns[sym]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, sym)
		}
		cols[j] = col
	}

	m := &PriceMatrix{
		Symbols: append([]string(nil), symbols...),
	}
	for i, date := range t.Dates {
		row := make([]float64, len(symbols))
		complete := true
		for j, col := range cols {
			if math.IsNaN(col[i]) {
				complete = false
				break
			}
			row[j] = col[i]
		}
		if complete {
			m.Dates = append(m.Dates, date)
			m.Rows = append(m.Rows, row)
		}
	}
	return m, nil
}

// PriceMatrix 공통 날짜축에 정렬된 종목별 가격 (inner join 결과)
// Rows[i][j] = Dates[i] 의 Symbols[j] 가격
type PriceMatrix struct {
	Symbols []string
	Dates   []time.Time
	Rows    [][]float64
}

// Len returns the number of aligned rows
func (m *PriceMatrix) Len() int {
	return len(m.Rows)
}

// Column returns the aligned prices of the j-th symbol
func (m *PriceMatrix) Column(j int) []float64 {
	out := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		out[i] = row[j]
	}
	return out
}

// RequireRows fails with ErrEmptyPriceData when fewer than min aligned rows exist
func (m *PriceMatrix) RequireRows(min int) error {
	if len(m.Rows) < min {
		return fmt.Errorf("%w: %d aligned rows for %d symbols, need at least %d",
			ErrEmptyPriceData, len(m.Rows), len(m.Symbols), min)
	}
	return nil
}

// Bar 지수 OHLC 일봉
type Bar struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// StockInfo 유니버스 종목 정보
type StockInfo struct {
	Symbol  string `json:"symbol"`
	Company string `json:"company"`
	Sector  string `json:"sector"`
}

// SectorMap symbol -> sector
type SectorMap map[string]string

// NewSectorMap builds the mapping from the universe listing
func NewSectorMap(stocks []StockInfo) SectorMap {
	m := make(SectorMap, len(stocks))
	for _, s := range stocks {
		if s.Sector != "" {
			m[s.Symbol] = s.Sector
		}
	}
	return m
}

// SectorOf returns the mapped sector or UnknownSector
func (m SectorMap) SectorOf(symbol string) string {
	if sector, ok := m[symbol]; ok && sector != "" {
		return sector
	}
	return UnknownSector
}
