package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyquant/internal/api"
	"github.com/wonny/niftyquant/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 데이터셋 스냅샷 로드
- HTTP API 서버 시작
- 데이터셋 재로딩 / 플롯 정리 스케줄러 시작

Endpoints:
  GET  /health                      - Health check
  POST /api/auth/signup             - 회원가입
  POST /api/auth/login              - 로그인 (JWT + 세션 쿠키)
  POST /api/auth/logout             - 로그아웃
  GET  /api/dashboard               - 로그인 사용자 정보 (로그인 필요)
  POST /api/portfolio/optimize      - 최소분산 포트폴리오
  POST /api/correlation/network     - 상관 네트워크 + 중심성
  GET  /api/correlation/plot/{key}  - 네트워크/예측 PNG
  POST /api/predict                 - 가격 예측 (로그인 필요)
  GET  /api/index/overview          - 지수 개요
  GET  /api/stock/{symbol}          - 종목 개요
  GET  /api/stocks/list             - 종목 목록
  GET  /api/sector/overview         - 섹터 수익률

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
	apiCmd.Flags().BoolVar(&withScheduler, "scheduler", true, "재로딩/정리 스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== niftyquant API Server ===")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Wire components (config, logger, db, redis, dataset, engines)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	// auth.users 등 테이블 보장 (멱등)
	if a.db != nil {
		if err := a.db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	log := a.log
	log.WithFields(map[string]interface{}{
		"port":        a.cfg.Port,
		"env":         a.cfg.Env,
		"data_source": a.cfg.Data.Source,
	}).Info("Initializing API server")

	// 2. Scheduler
	var sched *scheduler.Scheduler
	if withScheduler {
		sched, err = newScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// 3. Router + server
	router := api.NewRouter(api.NewHandlers(a.service, a.accounts, log, a.cfg.IsProduction()), log)
	server := api.New(a.cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
