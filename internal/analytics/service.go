package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/niftyquant/internal/artifact"
	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/internal/dataset"
	"github.com/wonny/niftyquant/internal/forecast"
	"github.com/wonny/niftyquant/internal/network"
	"github.com/wonny/niftyquant/internal/overview"
	"github.com/wonny/niftyquant/internal/portfolio"
)

// Config service level defaults
type Config struct {
	DefaultThreshold float64
}

// Service DataSource 스냅샷 위의 분석 facade (CLI / API 공용)
// ⭐ SSOT: 요청 -> 엔진 -> 출력 형태 변환은 여기서만
type Service struct {
	config     Config
	store      *dataset.Store
	optimizer  *portfolio.Optimizer
	builder    *network.Builder
	forecaster *forecast.Engine
	aggregator *overview.Aggregator
	renderer   contracts.Renderer
	artifacts  artifact.Store
	log        zerolog.Logger
}

// NewService creates the analytics service.
// renderer and artifacts may be nil; plots are then skipped.
func NewService(
	config Config,
	store *dataset.Store,
	optimizer *portfolio.Optimizer,
	builder *network.Builder,
	forecaster *forecast.Engine,
	aggregator *overview.Aggregator,
	renderer contracts.Renderer,
	artifacts artifact.Store,
	log zerolog.Logger,
) *Service {
	return &Service{
		config:     config,
		store:      store,
		optimizer:  optimizer,
		builder:    builder,
		forecaster: forecaster,
		aggregator: aggregator,
		renderer:   renderer,
		artifacts:  artifacts,
		log:        log.With().Str("component", "analytics").Logger(),
	}
}

// =============================================================================
// Portfolio / Network
// =============================================================================

// Optimize 종목 목록 -> 최소분산 비중 + 위험 지표
func (s *Service) Optimize(_ context.Context, symbols []string, targetReturn float64) (*PortfolioReport, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}

	prices, err := snap.Stocks.Align(symbols)
	if err != nil {
		return nil, err
	}

	alloc, err := s.optimizer.Optimize(prices, targetReturn)
	if err != nil {
		return nil, err
	}

	return newPortfolioReport(alloc), nil
}

// Network 상관 네트워크 + 중심성. threshold 가 nil 이면 기본값
func (s *Service) Network(ctx context.Context, symbols []string, threshold *float64) (*NetworkReport, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}

	th := s.config.DefaultThreshold
	if threshold != nil {
		th = *threshold
	}

	prices, err := snap.Stocks.Align(symbols)
	if err != nil {
		return nil, err
	}

	result, err := s.builder.Build(prices, snap.Sectors, th)
	if err != nil {
		return nil, err
	}

	report := &NetworkReport{NetworkResult: result}
	if s.renderer != nil && s.artifacts != nil {
		key := artifact.NetworkKey(symbols, th)
		if err := s.storePlot(ctx, key, func() ([]byte, error) {
			return s.renderer.RenderNetwork(result)
		}); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Network plot skipped")
		} else {
			report.PlotKey = key
		}
	}

	return report, nil
}

// Plot returns a stored plot (artifact.ErrNotFound if unknown or expired)
func (s *Service) Plot(ctx context.Context, key string) ([]byte, error) {
	if s.artifacts == nil {
		return nil, artifact.ErrNotFound
	}
	return s.artifacts.Get(ctx, key)
}

// =============================================================================
// Forecast
// =============================================================================

// Forecast horizon 거래일 가격 예측. plot=true 이면 차트도 저장
func (s *Service) Forecast(ctx context.Context, symbol string, horizon int, plot bool) (*ForecastReport, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}

	series, err := snap.Stocks.Series(symbol)
	if err != nil {
		return nil, err
	}

	path, err := s.forecaster.Forecast(ctx, series, horizon)
	if err != nil {
		return nil, err
	}

	report := newForecastReport(path)
	if plot && s.renderer != nil && s.artifacts != nil {
		key := artifact.ForecastKey(symbol, horizon, path.LastDate)
		if err := s.storePlot(ctx, key, func() ([]byte, error) {
			return s.renderer.RenderForecast(series, path)
		}); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Forecast plot skipped")
		} else {
			report.PlotKey = key
		}
	}

	return report, nil
}

// =============================================================================
// Overviews
// =============================================================================

// Sector 섹터별 누적 수익률 (%)
func (s *Service) Sector(_ context.Context) (contracts.SectorPerformance, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.aggregator.Sector(snap.Stocks, snap.Sectors)
}

// Index 지수 개요
func (s *Service) Index(_ context.Context) (*contracts.IndexOverview, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.aggregator.Index(snap.Index)
}

// Stock 종목 개요
func (s *Service) Stock(_ context.Context, symbol string) (*contracts.StockAnalysis, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.aggregator.Stock(snap.Stocks, symbol)
}

// Universe 종목 목록 (symbol, company, sector)
func (s *Service) Universe(_ context.Context) ([]contracts.StockInfo, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Universe, nil
}

// =============================================================================
// Maintenance
// =============================================================================

// Reload 데이터셋 스냅샷 재로딩
func (s *Service) Reload(ctx context.Context) (time.Time, error) {
	snap, err := s.store.Reload(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return snap.LoadedAt, nil
}

// SweepArtifacts 만료된 플롯 정리
func (s *Service) SweepArtifacts(ctx context.Context) (int, error) {
	if s.artifacts == nil {
		return 0, nil
	}
	return s.artifacts.Sweep(ctx)
}

// storePlot renders and stores under key (overwrites the previous render)
func (s *Service) storePlot(ctx context.Context, key string, render func() ([]byte, error)) error {
	img, err := render()
	if err != nil {
		return err
	}
	return s.artifacts.Put(ctx, key, img)
}
