package contracts

import "time"

// =============================================================================
// Correlation network
// =============================================================================

// NetworkNode 그래프 노드 (섹터 라벨은 항상 존재, 기본값 Unknown)
type NetworkNode struct {
	Symbol string `json:"symbol"`
	Sector string `json:"sector"`
}

// NetworkEdge 무향 가중 엣지. Weight 는 상관계수 부호를 그대로 유지
type NetworkEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// CorrelationGraph 상관관계 네트워크 (self-loop, 다중 엣지 없음)
type CorrelationGraph struct {
	Nodes     []NetworkNode `json:"nodes"`
	Edges     []NetworkEdge `json:"edges"`
	Threshold float64       `json:"threshold"`
}

// Centrality metric names
const (
	CentralityDegree      = "degree"
	CentralityBetweenness = "betweenness"
	CentralityEigenvector = "eigenvector"
	CentralityPageRank    = "pagerank"
)

// NetworkResult 그래프 + 4개 중심성 (metric -> symbol -> score)
type NetworkResult struct {
	Graph      CorrelationGraph              `json:"graph"`
	Centrality map[string]map[string]float64 `json:"centrality"`
}

// =============================================================================
// Forecast
// =============================================================================

// ForecastPoint 예측 (거래일, 가격)
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// ForecastPath 다일 예측 경로. 날짜는 증가, 주말 제외
type ForecastPath struct {
	Symbol       string          `json:"symbol"`
	ModelVersion string          `json:"model_version,omitempty"`
	LastDate     time.Time       `json:"last_date"`
	Points       []ForecastPoint `json:"points"`
}

// =============================================================================
// Overviews
// =============================================================================

// Lookback 고정 거래일 수 기반 기간 버킷
type Lookback struct {
	Label string
	Rows  int
}

// ReturnBuckets 1D~5Y 기간 수익률 (%). 데이터 부족 시 nil
type ReturnBuckets map[string]*float64

// HistoryPoint 출력용 (ISO 날짜, 2자리 반올림 가격)
type HistoryPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// StockAnalysis 종목 개요
type StockAnalysis struct {
	Symbol  string         `json:"symbol"`
	History []HistoryPoint `json:"history"`
	Returns ReturnBuckets  `json:"returns"`
}

// IndexStats 지수 요약 통계
type IndexStats struct {
	LastClose  float64 `json:"last_close"`
	PrevClose  float64 `json:"prev_close"`
	Change     float64 `json:"change"`
	ChangePct  float64 `json:"change_pct"`
	TodayOpen  float64 `json:"today_open"`
	TodayHigh  float64 `json:"today_high"`
	TodayLow   float64 `json:"today_low"`
	Week52High float64 `json:"week52_high"`
	Week52Low  float64 `json:"week52_low"`
}

// IndexOverview 지수 개요
type IndexOverview struct {
	History []HistoryPoint `json:"history"`
	Stats   IndexStats     `json:"stats"`
	Returns ReturnBuckets  `json:"returns"`
}

// SectorPerformance sector -> 누적 수익률 (%)
type SectorPerformance map[string]float64
