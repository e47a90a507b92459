package overview

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/internal/risk"
)

// Aggregator ReturnStatistics 를 섹터/지수/종목 단위로 조립
// 순수 조립 레이어. 상태 없음
type Aggregator struct {
	log zerolog.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(log zerolog.Logger) *Aggregator {
	return &Aggregator{
		log: log.With().Str("component", "overview").Logger(),
	}
}

// =============================================================================
// Sector
// =============================================================================

// Sector 섹터별 누적 수익률 (%)
// 종목 수익률을 행 단위로 섹터 평균 -> 기간 합산 -> ×100, 2자리 반올림
// 섹터 매핑이 없는 종목은 제외 (에러 아님)
func (a *Aggregator) Sector(table *contracts.PriceTable, sectors contracts.SectorMap) (contracts.SectorPerformance, error) {
	mapped := make([]string, 0, len(table.Symbols))
	for _, sym := range table.Symbols {
		if sectors[sym] != "" {
			mapped = append(mapped, sym)
		}
	}
	if len(mapped) == 0 {
		return contracts.SectorPerformance{}, nil
	}

	prices, err := table.Align(mapped)
	if err != nil {
		return nil, err
	}
	if err := prices.RequireRows(2); err != nil {
		return nil, err
	}
	returns, err := risk.MatrixReturns(prices)
	if err != nil {
		return nil, err
	}

	members := make(map[string][]int)
	for j, sym := range mapped {
		sector := sectors.SectorOf(sym)
		members[sector] = append(members[sector], j)
	}

	out := make(contracts.SectorPerformance, len(members))
	for sector, cols := range members {
		var total float64
		for _, row := range returns {
			var sum float64
			for _, j := range cols {
				sum += row[j]
			}
			total += sum / float64(len(cols))
		}
		out[sector] = contracts.RoundPercent(total * 100)
	}

	a.log.Debug().
		Int("sectors", len(out)).
		Int("symbols", len(mapped)).
		Int("rows", len(returns)).
		Msg("Sector performance aggregated")

	return out, nil
}

// =============================================================================
// Stock
// =============================================================================

// Stock 종목 개요: 결측 제거 후 히스토리 + 기간 수익률
func (a *Aggregator) Stock(table *contracts.PriceTable, symbol string) (*contracts.StockAnalysis, error) {
	series, err := table.Series(symbol)
	if err != nil {
		return nil, err
	}

	return &contracts.StockAnalysis{
		Symbol:  symbol,
		History: History(series.Points),
		Returns: risk.WindowedReturns(series.Prices()),
	}, nil
}

// History 출력용 (ISO 날짜, 2자리 가격)
func History(points []contracts.PricePoint) []contracts.HistoryPoint {
	out := make([]contracts.HistoryPoint, len(points))
	for i, p := range points {
		out[i] = contracts.HistoryPoint{
			Date:  p.Date.Format(contracts.DateLayout),
			Price: contracts.RoundPercent(p.Price),
		}
	}
	return out
}

// =============================================================================
// Index
// =============================================================================

// WeekRows 52주 고가/저가 계산 구간 (거래일 행 수)
const WeekRows = 252

// Index 지수 개요: 히스토리, 당일/전일 통계, 52주 범위, 기간 수익률
func (a *Aggregator) Index(bars []contracts.Bar) (*contracts.IndexOverview, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: index overview needs 2 bars, got %d", contracts.ErrInsufficientData, len(bars))
	}

	sorted := make([]contracts.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	closes := make([]float64, len(sorted))
	points := make([]contracts.PricePoint, len(sorted))
	for i, b := range sorted {
		closes[i] = b.Close
		points[i] = contracts.PricePoint{Date: b.Date, Price: b.Close}
	}

	last, prev := sorted[len(sorted)-1], sorted[len(sorted)-2]

	high, low := math.Inf(-1), math.Inf(1)
	start := len(sorted) - WeekRows
	if start < 0 {
		start = 0
	}
	for _, b := range sorted[start:] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}

	change := last.Close - prev.Close
	stats := contracts.IndexStats{
		LastClose:  contracts.RoundPercent(last.Close),
		PrevClose:  contracts.RoundPercent(prev.Close),
		Change:     contracts.RoundPercent(change),
		ChangePct:  contracts.RoundPercent(change / prev.Close * 100),
		TodayOpen:  contracts.RoundPercent(last.Open),
		TodayHigh:  contracts.RoundPercent(last.High),
		TodayLow:   contracts.RoundPercent(last.Low),
		Week52High: contracts.RoundPercent(high),
		Week52Low:  contracts.RoundPercent(low),
	}

	return &contracts.IndexOverview{
		History: History(points),
		Stats:   stats,
		Returns: risk.WindowedReturns(closes),
	}, nil
}
