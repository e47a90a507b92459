package network

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	gnetwork "gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/niftyquant/internal/contracts"
)

// =============================================================================
// Centrality
// =============================================================================

// 모든 중심성은 비가중 (엣지 부호는 렌더링 전용)
func (b *Builder) centralities(graph *contracts.CorrelationGraph) (map[string]map[string]float64, error) {
	n := len(graph.Nodes)
	index := make(map[string]int64, n)
	for i, node := range graph.Nodes {
		index[node.Symbol] = int64(i)
	}

	undirected := simple.NewUndirectedGraph()
	directed := simple.NewDirectedGraph()
	for i := 0; i < n; i++ {
		undirected.AddNode(simple.Node(i))
		directed.AddNode(simple.Node(i))
	}
	for _, e := range graph.Edges {
		u, v := simple.Node(index[e.Source]), simple.Node(index[e.Target])
		undirected.SetEdge(simple.Edge{F: u, T: v})
		directed.SetEdge(simple.Edge{F: u, T: v})
		directed.SetEdge(simple.Edge{F: v, T: u})
	}

	eigen, err := b.eigenvector(undirected, n)
	if err != nil {
		return nil, err
	}

	scores := map[string][]float64{
		contracts.CentralityDegree:      degree(undirected, n),
		contracts.CentralityBetweenness: betweenness(undirected, n),
		contracts.CentralityEigenvector: eigen,
		contracts.CentralityPageRank:    b.pagerank(directed, n),
	}

	out := make(map[string]map[string]float64, len(scores))
	for metric, values := range scores {
		bySymbol := make(map[string]float64, n)
		for i, node := range graph.Nodes {
			bySymbol[node.Symbol] = values[i]
		}
		out[metric] = bySymbol
	}
	return out, nil
}

// degree 연결된 다른 노드 비율 deg/(n-1). 단일 노드는 1
func degree(g *simple.UndirectedGraph, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = 1
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = float64(g.From(int64(i)).Len()) / float64(n-1)
	}
	return out
}

// betweenness 정규화 최단경로 betweenness
// gonum 은 무향 그래프에서 (s,t) 순서쌍을 모두 합산하므로 (n-1)(n-2) 로 나눔
func betweenness(g *simple.UndirectedGraph, n int) []float64 {
	out := make([]float64, n)
	if n <= 2 {
		return out
	}

	raw := gnetwork.Betweenness(g)
	scale := 1 / float64((n-1)*(n-2))
	for id, v := range raw {
		out[id] = v * scale
	}
	return out
}

// pagerank 양방향 arc 그래프 위 damped random walk, 합계 1로 정규화
func (b *Builder) pagerank(g *simple.DirectedGraph, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = 1
		return out
	}

	raw := gnetwork.PageRank(g, b.config.Damping, b.config.PageRankTolerance)
	for id, v := range raw {
		out[id] = v
	}
	if sum := floats.Sum(out); sum > 0 {
		floats.Scale(1/sum, out)
	}
	return out
}

// eigenvector (A+I) power iteration, 균등 시작, 매 스텝 L2 정규화
// L1 변화량 < n*tol 이면 수렴. 상한 초과 시 ErrConvergence (이전 값 반환하지 않음)
func (b *Builder) eigenvector(g *simple.UndirectedGraph, n int) ([]float64, error) {
	shifted := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		shifted.Set(i, i, 1)
		nodes := g.From(int64(i))
		for nodes.Next() {
			shifted.Set(i, int(nodes.Node().ID()), 1)
		}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}

	next := mat.NewVecDense(n, nil)
	for iter := 0; iter < b.config.EigenMaxIterations; iter++ {
		next.MulVec(shifted, mat.NewVecDense(n, x))

		values := next.RawVector().Data
		norm := floats.Norm(values, 2)
		if norm == 0 {
			norm = 1
		}
		floats.Scale(1/norm, values)

		delta := floats.Distance(values, x, 1)
		copy(x, values)
		if delta < float64(n)*b.config.EigenTolerance {
			b.logger.Debug().Int("iterations", iter+1).Msg("Eigenvector centrality converged")
			return x, nil
		}
	}

	return nil, fmt.Errorf("%w: eigenvector centrality did not converge in %d iterations",
		contracts.ErrConvergence, b.config.EigenMaxIterations)
}
