package network

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/niftyquant/internal/contracts"
)

// Config 중심성 계산 파라미터
type Config struct {
	EigenMaxIterations int     // eigenvector power iteration 상한 (기본 500)
	EigenTolerance     float64 // 수렴 판정: L1 변화량 < n*tol
	Damping            float64 // PageRank damping
	PageRankTolerance  float64
}

// DefaultConfig returns the reference parameters
func DefaultConfig() Config {
	return Config{
		EigenMaxIterations: 500,
		EigenTolerance:     1e-6,
		Damping:            0.85,
		PageRankTolerance:  1e-10,
	}
}

// Builder 상관관계 네트워크 빌더
// ⭐ 상관계수는 가격 수준(level)으로 계산 (수익률 아님). 기존 동작 호환
type Builder struct {
	config Config
	logger zerolog.Logger
}

// NewBuilder creates a new network builder
func NewBuilder(config Config, logger zerolog.Logger) *Builder {
	return &Builder{
		config: config,
		logger: logger.With().Str("component", "network_builder").Logger(),
	}
}

// Build 정렬된 가격 행렬 -> 상관 그래프 + 4개 중심성
func (b *Builder) Build(prices *contracts.PriceMatrix, sectors contracts.SectorMap, threshold float64) (*contracts.NetworkResult, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v must be within [0, 1]", contracts.ErrInvalidInput, threshold)
	}
	if err := prices.RequireRows(2); err != nil {
		return nil, err
	}

	graph := b.buildGraph(prices, sectors, threshold)

	centrality, err := b.centralities(graph)
	if err != nil {
		return nil, err
	}

	b.logger.Debug().
		Int("nodes", len(graph.Nodes)).
		Int("edges", len(graph.Edges)).
		Float64("threshold", threshold).
		Int("rows", prices.Len()).
		Msg("Correlation network built")

	return &contracts.NetworkResult{
		Graph:      *graph,
		Centrality: centrality,
	}, nil
}

// buildGraph |corr| >= threshold 인 쌍마다 무향 엣지 (부호 유지)
func (b *Builder) buildGraph(prices *contracts.PriceMatrix, sectors contracts.SectorMap, threshold float64) *contracts.CorrelationGraph {
	n := len(prices.Symbols)

	graph := &contracts.CorrelationGraph{
		Nodes:     make([]contracts.NetworkNode, n),
		Edges:     make([]contracts.NetworkEdge, 0),
		Threshold: threshold,
	}

	columns := make([][]float64, n)
	for j, sym := range prices.Symbols {
		columns[j] = prices.Column(j)
		graph.Nodes[j] = contracts.NetworkNode{Symbol: sym, Sector: sectors.SectorOf(sym)}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			corr := stat.Correlation(columns[i], columns[j], nil)
			// 상수 시계열은 NaN: 엣지 없음
			if math.IsNaN(corr) || math.Abs(corr) < threshold {
				continue
			}
			graph.Edges = append(graph.Edges, contracts.NetworkEdge{
				Source: prices.Symbols[i],
				Target: prices.Symbols[j],
				Weight: corr,
			})
		}
	}

	return graph
}
