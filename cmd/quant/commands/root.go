package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "niftyquant - Nifty 50 분석 엔진",
	Long: `niftyquant Unified CLI

Nifty 50 종목 데이터 위의 분석 엔진.
포트폴리오 최적화, 상관 네트워크, 가격 예측, 지수/섹터 개요.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant api
  go run ./cmd/quant optimize TCS INFY HDFCBANK --target 0.12
  go run ./cmd/quant network TCS INFY HDFCBANK RELIANCE --threshold 0.7
  go run ./cmd/quant forecast TCS --days 10
  go run ./cmd/quant data import`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "결과를 JSON 으로 출력")
}
