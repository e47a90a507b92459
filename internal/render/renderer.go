package render

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"github.com/vicanso/go-charts/v2"

	"github.com/wonny/niftyquant/internal/contracts"
)

// Config chart sizing
type Config struct {
	Width       int
	Height      int
	TopN        int // 네트워크 차트에 표시할 최대 노드 수 (PageRank 순)
	HistoryTail int // 예측 차트에 함께 그릴 과거 거래일 수
}

// DefaultConfig returns default chart sizing
func DefaultConfig() Config {
	return Config{
		Width:       1000,
		Height:      600,
		TopN:        20,
		HistoryTail: 120,
	}
}

// Renderer PNG renderer for network and forecast results
// ⭐ SSOT: 이미지 생성은 여기서만 (엔진은 렌더링하지 않음)
type Renderer struct {
	config Config
	log    zerolog.Logger
}

// NewRenderer creates a renderer
func NewRenderer(config Config, log zerolog.Logger) *Renderer {
	return &Renderer{
		config: config,
		log:    log.With().Str("component", "render").Logger(),
	}
}

var _ contracts.Renderer = (*Renderer)(nil)

// RenderNetwork 원형 배치 노드-링크 다이어그램
// 노드 반지름 = PageRank, 노드 색 = 섹터, 엣지 색 = 상관계수 부호
func (r *Renderer) RenderNetwork(result *contracts.NetworkResult) ([]byte, error) {
	if result == nil || len(result.Graph.Nodes) == 0 {
		return nil, fmt.Errorf("%w: empty network", contracts.ErrInvalidInput)
	}

	nodes := r.topNodes(result)
	layout := circularLayout(nodes, result.Centrality[contracts.CentralityPageRank], r.config.Width, r.config.Height)

	p, err := charts.NewPainter(charts.PainterOptions{
		Type:   charts.ChartOutputPNG,
		Width:  r.config.Width,
		Height: r.config.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create painter: %w", err)
	}
	p.SetBackground(r.config.Width, r.config.Height, colorBackground)

	// 제목
	p.SetTextStyle(charts.Style{FontColor: colorText, FontSize: 16})
	p.Text("Correlation Network", 20, 30)
	p.SetTextStyle(charts.Style{FontColor: colorMuted, FontSize: 11})
	p.Text(fmt.Sprintf("%d nodes • %d edges • |corr| >= %.2f",
		len(result.Graph.Nodes), len(result.Graph.Edges), result.Graph.Threshold), 20, 50)

	// 엣지 먼저 (노드가 위에 그려지도록)
	drawn := 0
	for _, e := range result.Graph.Edges {
		src, ok1 := layout[e.Source]
		dst, ok2 := layout[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		p.OverrideDrawingStyle(charts.Style{
			StrokeColor: edgeColor(e.Weight),
			StrokeWidth: edgeWidth(e.Weight),
		})
		p.MoveTo(src.X, src.Y)
		p.LineTo(dst.X, dst.Y)
		p.Stroke()
		drawn++
	}

	// 노드 + 라벨
	sectors := sectorColors(nodes)
	for _, n := range nodes {
		pos := layout[n.Symbol]
		fill := sectors[n.Sector]
		p.OverrideDrawingStyle(charts.Style{
			FillColor:   fill,
			StrokeColor: colorBackground,
			StrokeWidth: 1,
		})
		p.Circle(pos.Radius, pos.X, pos.Y)
		p.FillStroke()

		p.SetTextStyle(charts.Style{FontColor: colorText, FontSize: 10})
		p.Text(n.Symbol, pos.X+int(pos.Radius)+3, pos.Y+4)
	}

	// 섹터 범례
	p.SetTextStyle(charts.Style{FontColor: colorText, FontSize: 10})
	legendY := 75
	for _, sector := range sortedKeys(sectors) {
		p.OverrideDrawingStyle(charts.Style{FillColor: sectors[sector], StrokeColor: sectors[sector]})
		p.Circle(5, 26, legendY-4)
		p.FillStroke()
		p.Text(sector, 38, legendY)
		legendY += 16
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	r.log.Debug().
		Int("nodes", len(nodes)).
		Int("edges", drawn).
		Int("bytes", len(buf)).
		Msg("Network chart rendered")
	return buf, nil
}

// topNodes PageRank 내림차순 상위 TopN 노드 (동률은 입력 순서 유지)
func (r *Renderer) topNodes(result *contracts.NetworkResult) []contracts.NetworkNode {
	ranks := result.Centrality[contracts.CentralityPageRank]
	nodes := append([]contracts.NetworkNode(nil), result.Graph.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool {
		return ranks[nodes[i].Symbol] > ranks[nodes[j].Symbol]
	})
	if r.config.TopN > 0 && len(nodes) > r.config.TopN {
		nodes = nodes[:r.config.TopN]
	}
	return nodes
}

// =============================================================================
// Layout
// =============================================================================

const (
	minNodeRadius = 6.0
	maxNodeRadius = 24.0
)

// nodePosition 캔버스 좌표 + 반지름
type nodePosition struct {
	X      int
	Y      int
	Radius float64
}

// circularLayout 노드를 원 위에 균등 배치. 첫 노드는 12시 방향
// 반지름은 최대 PageRank 대비 비율로 [minNodeRadius, maxNodeRadius] 구간에 매핑
func circularLayout(nodes []contracts.NetworkNode, ranks map[string]float64, width, height int) map[string]nodePosition {
	out := make(map[string]nodePosition, len(nodes))
	if len(nodes) == 0 {
		return out
	}

	cx, cy := float64(width)/2, float64(height)/2+20
	ring := math.Min(float64(width), float64(height))/2 - maxNodeRadius - 50
	if ring < maxNodeRadius {
		ring = maxNodeRadius
	}

	maxRank := 0.0
	for _, n := range nodes {
		maxRank = math.Max(maxRank, ranks[n.Symbol])
	}

	for i, n := range nodes {
		radius := minNodeRadius
		if maxRank > 0 {
			radius += (maxNodeRadius - minNodeRadius) * ranks[n.Symbol] / maxRank
		}
		if len(nodes) == 1 {
			out[n.Symbol] = nodePosition{X: int(cx), Y: int(cy), Radius: radius}
			continue
		}
		angle := 2*math.Pi*float64(i)/float64(len(nodes)) - math.Pi/2
		out[n.Symbol] = nodePosition{
			X:      int(math.Round(cx + ring*math.Cos(angle))),
			Y:      int(math.Round(cy + ring*math.Sin(angle))),
			Radius: radius,
		}
	}
	return out
}

// =============================================================================
// Colors
// =============================================================================

var (
	colorBackground = charts.Color{R: 255, G: 255, B: 255, A: 255}
	colorText       = charts.Color{R: 70, G: 70, B: 70, A: 255}
	colorMuted      = charts.Color{R: 140, G: 140, B: 140, A: 255}
	colorPositive   = charts.Color{R: 46, G: 160, B: 67, A: 255}
	colorNegative   = charts.Color{R: 215, G: 58, B: 73, A: 255}
)

// sectorPalette ThemeLight 계열 시리즈 색
var sectorPalette = []charts.Color{
	{R: 84, G: 112, B: 198, A: 255},
	{R: 145, G: 204, B: 117, A: 255},
	{R: 250, G: 200, B: 88, A: 255},
	{R: 238, G: 102, B: 102, A: 255},
	{R: 115, G: 192, B: 222, A: 255},
	{R: 59, G: 162, B: 114, A: 255},
	{R: 252, G: 132, B: 82, A: 255},
	{R: 154, G: 96, B: 180, A: 255},
	{R: 234, G: 124, B: 204, A: 255},
}

// edgeColor 양의 상관 = 초록, 음의 상관 = 빨강. |w| 가 작을수록 옅게
func edgeColor(weight float64) charts.Color {
	c := colorPositive
	if weight < 0 {
		c = colorNegative
	}
	c.A = uint8(80 + 175*math.Min(math.Abs(weight), 1))
	return c
}

// edgeWidth |w| 비례 선 굵기 (1~3px)
func edgeWidth(weight float64) float64 {
	return 1 + 2*math.Min(math.Abs(weight), 1)
}

// sectorColors 섹터명 정렬 순서대로 팔레트 색 배정 (렌더링마다 동일한 색)
func sectorColors(nodes []contracts.NetworkNode) map[string]charts.Color {
	seen := make(map[string]charts.Color)
	for _, n := range nodes {
		seen[n.Sector] = charts.Color{}
	}
	for i, sector := range sortedKeys(seen) {
		seen[sector] = sectorPalette[i%len(sectorPalette)]
	}
	return seen
}

func sortedKeys(m map[string]charts.Color) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderForecast 최근 가격 + 예측 경로 라인 차트
func (r *Renderer) RenderForecast(history *contracts.PriceSeries, path *contracts.ForecastPath) ([]byte, error) {
	if path == nil || len(path.Points) == 0 {
		return nil, fmt.Errorf("%w: empty forecast", contracts.ErrInvalidInput)
	}

	var tail []contracts.PricePoint
	if history != nil {
		tail = history.Tail(r.config.HistoryTail).Points
	}

	values := make([]float64, 0, len(tail)+len(path.Points))
	labels := make([]string, 0, cap(values))
	for _, p := range tail {
		values = append(values, p.Price)
		labels = append(labels, p.Date.Format(contracts.DateLayout))
	}
	for _, p := range path.Points {
		values = append(values, p.Price)
		labels = append(labels, p.Date.Format(contracts.DateLayout))
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points to draw", contracts.ErrInsufficientData)
	}

	yMin, yMax := values[0], values[0]
	for _, v := range values[1:] {
		yMin = math.Min(yMin, v)
		yMax = math.Max(yMax, v)
	}
	pad := (yMax - yMin) * 0.05
	if pad < yMax*0.002 {
		pad = yMax * 0.002
	}
	yMin -= pad
	if yMin < 0 {
		yMin = 0
	}
	yMax += pad

	split := len(labels) / 10
	if split < 3 {
		split = 3
	}

	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(
			path.Symbol+" • forecast",
			fmt.Sprintf("%d history + %d forecast days from %s",
				len(tail), len(path.Points), path.LastDate.Format(contracts.DateLayout)),
		),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: split,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(r.config.Width),
		charts.HeightOptionFunc(r.config.Height),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render forecast chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	r.log.Debug().Str("symbol", path.Symbol).Int("bytes", len(buf)).Msg("Forecast chart rendered")
	return buf, nil
}
