package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/internal/risk"
)

// =============================================================================
// optimize
// =============================================================================

var optimizeCmd = &cobra.Command{
	Use:   "optimize [symbols...]",
	Short: "최소분산 포트폴리오 최적화",
	Long: `종목 목록에 대해 long-only 최소분산 비중을 계산합니다.

--target 은 결과에 그대로 기록되지만 목적함수에는 사용되지 않습니다.

Example:
  go run ./cmd/quant optimize TCS INFY HDFCBANK --target 0.12`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOptimize,
}

var targetReturn float64

func runOptimize(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		report, err := a.service.Optimize(ctx, args, targetReturn)
		if err != nil {
			return err
		}
		if jsonOutput {
			return PrintJSON(report)
		}

		PrintHeader("Portfolio Optimization", args)
		PrintKeyValue("Target", fmt.Sprintf("%.4f (not used by objective)", report.TargetReturn), 14)
		PrintKeyValue("Observations", fmt.Sprintf("%d daily returns", report.Observations), 14)
		PrintScores("Weights (%)", report.WeightsPercent, "%.2f")
		PrintScores("Metrics (%)", report.MetricsPercent, "%.4f")
		return nil
	})
}

// =============================================================================
// network
// =============================================================================

var networkCmd = &cobra.Command{
	Use:   "network [symbols...]",
	Short: "상관 네트워크 + 중심성",
	Long: `가격 상관계수 |corr| >= threshold 인 쌍을 엣지로 하는 네트워크와
degree / betweenness / eigenvector / pagerank 중심성을 계산합니다.

Example:
  go run ./cmd/quant network TCS INFY HDFCBANK RELIANCE --threshold 0.7`,
	Args: cobra.MinimumNArgs(2),
	RunE: runNetwork,
}

var (
	threshold  float64
	networkOut string
)

func runNetwork(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		var th *float64
		if cmd.Flags().Changed("threshold") {
			th = &threshold
		}

		report, err := a.service.Network(ctx, args, th)
		if err != nil {
			return err
		}
		if jsonOutput {
			return PrintJSON(report)
		}

		PrintHeader("Correlation Network", args)
		PrintKeyValue("Threshold", fmt.Sprintf("%.2f", report.Graph.Threshold), 10)
		PrintKeyValue("Edges", fmt.Sprintf("%d", len(report.Graph.Edges)), 10)
		for _, e := range report.Graph.Edges {
			fmt.Printf("   %s <-> %s  %+.4f\n", e.Source, e.Target, e.Weight)
		}
		for _, metric := range []string{
			contracts.CentralityDegree,
			contracts.CentralityBetweenness,
			contracts.CentralityEigenvector,
			contracts.CentralityPageRank,
		} {
			PrintScores(metric, report.Centrality[metric], "%.6f")
		}
		return writePlot(ctx, a, report.PlotKey, networkOut)
	})
}

// =============================================================================
// forecast
// =============================================================================

var forecastCmd = &cobra.Command{
	Use:   "forecast [symbol]",
	Short: "원격 모델 기반 가격 예측",
	Long: `최근 W 거래일 창을 모델 서버에 반복 질의해 days 거래일을 예측합니다.

Example:
  go run ./cmd/quant forecast TCS --days 10`,
	Args: cobra.ExactArgs(1),
	RunE: runForecast,
}

var (
	forecastDays int
	forecastOut  string
)

func runForecast(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		report, err := a.service.Forecast(ctx, args[0], forecastDays, forecastOut != "")
		if err != nil {
			return err
		}
		if jsonOutput {
			return PrintJSON(report)
		}

		PrintHeader("Forecast • "+report.Symbol, nil)
		PrintKeyValue("Last date", report.LastDate, 10)
		PrintKeyValue("Model", report.ModelVersion, 10)
		fmt.Println()
		PrintTableHeader([]string{"Date", "Price"}, []int{12, 12})
		for _, p := range report.Predictions {
			PrintTableRow([]string{p.Date, fmt.Sprintf("%.2f", p.Price)}, []int{12, 12})
		}
		return writePlot(ctx, a, report.PlotKey, forecastOut)
	})
}

// =============================================================================
// overviews
// =============================================================================

var sectorCmd = &cobra.Command{
	Use:   "sector",
	Short: "섹터별 누적 수익률",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			perf, err := a.service.Sector(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return PrintJSON(perf)
			}
			PrintScores("Sector performance (%)", perf, "%.2f")
			return nil
		})
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "지수 개요",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			ov, err := a.service.Index(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return PrintJSON(ov)
			}

			s := ov.Stats
			PrintHeader("Nifty 50 Index", nil)
			PrintKeyValue("Last close", fmt.Sprintf("%.2f (%+.2f, %+.2f%%)", s.LastClose, s.Change, s.ChangePct), 12)
			PrintKeyValue("Prev close", fmt.Sprintf("%.2f", s.PrevClose), 12)
			PrintKeyValue("Today", fmt.Sprintf("O %.2f  H %.2f  L %.2f", s.TodayOpen, s.TodayHigh, s.TodayLow), 12)
			PrintKeyValue("52W range", fmt.Sprintf("%.2f ~ %.2f", s.Week52Low, s.Week52High), 12)
			printBuckets(ov.Returns)
			return nil
		})
	},
}

var stockCmd = &cobra.Command{
	Use:   "stock [symbol]",
	Short: "종목 개요",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			st, err := a.service.Stock(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return PrintJSON(st)
			}

			PrintHeader("Stock • "+st.Symbol, nil)
			if n := len(st.History); n > 0 {
				last := st.History[n-1]
				PrintKeyValue("Last", fmt.Sprintf("%.2f (%s)", last.Price, last.Date), 10)
				PrintKeyValue("History", fmt.Sprintf("%d days", n), 10)
			}
			printBuckets(st.Returns)
			return nil
		})
	},
}

var stocksCmd = &cobra.Command{
	Use:   "stocks",
	Short: "종목 목록",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			stocks, err := a.service.Universe(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return PrintJSON(stocks)
			}

			widths := []int{12, 40, 28}
			PrintTableHeader([]string{"Symbol", "Company", "Sector"}, widths)
			for _, s := range stocks {
				PrintTableRow([]string{s.Symbol, s.Company, s.Sector}, widths)
			}
			return nil
		})
	},
}

func printBuckets(b contracts.ReturnBuckets) {
	fmt.Println()
	PrintTableHeader([]string{"Period", "Return"}, []int{8, 12})
	for _, lb := range risk.Lookbacks {
		PrintTableRow([]string{lb.Label, formatBucket(b[lb.Label])}, []int{8, 12})
	}
}

// writePlot 저장된 PNG 를 파일로 (out 미지정 시 skip)
func writePlot(ctx context.Context, a *app, key, out string) error {
	if out == "" {
		return nil
	}
	if key == "" {
		PrintWarning("플롯 렌더링 실패, 파일을 쓰지 않습니다")
		return nil
	}

	png, err := a.service.Plot(ctx, key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	if !jsonOutput {
		PrintSuccess(fmt.Sprintf("plot saved: %s (%d bytes)", out, len(png)))
	}
	return nil
}

// withApp runs fn with a wired app and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		return fmt.Errorf("[%s] %w", contracts.ErrorKind(err), err)
	}
	return nil
}

func init() {
	optimizeCmd.Flags().Float64Var(&targetReturn, "target", 0.1, "목표 연 수익률 (기록용)")
	networkCmd.Flags().Float64Var(&threshold, "threshold", 0.6, "|corr| 엣지 임계값 [0, 1]")
	networkCmd.Flags().StringVar(&networkOut, "out", "", "PageRank 차트 PNG 저장 경로")
	forecastCmd.Flags().IntVar(&forecastDays, "days", 5, "예측 거래일 수 [1, 365]")
	forecastCmd.Flags().StringVar(&forecastOut, "out", "", "예측 차트 PNG 저장 경로")

	rootCmd.AddCommand(optimizeCmd, networkCmd, forecastCmd, sectorCmd, indexCmd, stockCmd, stocksCmd)
}
