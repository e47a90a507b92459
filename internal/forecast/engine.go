package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/wonny/niftyquant/internal/contracts"
)

// Config 예측 엔진 파라미터
type Config struct {
	Window     int // 슬라이딩 윈도우 길이 W (기본 60)
	MaxHorizon int // 요청 가능한 최대 예측 일수
}

// DefaultConfig returns the reference parameters
func DefaultConfig() Config {
	return Config{
		Window:     60,
		MaxHorizon: 365,
	}
}

// Engine 롤링 윈도우 다일 예측
// ⭐ 상태 머신: 최근 W개 스케일 값 -> predictor -> append, 가장 오래된 값 drop -> horizon 반복
type Engine struct {
	config   Config
	registry contracts.PredictorRegistry
	log      zerolog.Logger
}

// NewEngine creates a forecast engine over a predictor registry
func NewEngine(config Config, registry contracts.PredictorRegistry, log zerolog.Logger) *Engine {
	return &Engine{
		config:   config,
		registry: registry,
		log:      log.With().Str("component", "forecast.engine").Logger(),
	}
}

// Forecast horizon 거래일 예측 경로 생성
// 실패: ErrModelNotAvailable (모델 없음), ErrInsufficientHistory (W개 미만)
func (e *Engine) Forecast(ctx context.Context, series *contracts.PriceSeries, horizon int) (*contracts.ForecastPath, error) {
	if horizon < 1 || horizon > e.config.MaxHorizon {
		return nil, fmt.Errorf("%w: horizon %d must be within [1, %d]",
			contracts.ErrInvalidInput, horizon, e.config.MaxHorizon)
	}

	model, err := e.registry.Resolve(ctx, series.Symbol)
	if err != nil {
		return nil, err
	}

	if series.Len() < e.config.Window {
		return nil, fmt.Errorf("%w: %s has %d observations, need %d",
			contracts.ErrInsufficientHistory, series.Symbol, series.Len(), e.config.Window)
	}

	scaled := model.Scaler.Transform(series.Prices())
	window := make([]float64, e.config.Window)
	copy(window, scaled[len(scaled)-e.config.Window:])

	future := make([]float64, 0, horizon)
	for step := 0; step < horizon; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := model.Predictor.PredictNext(ctx, window)
		if err != nil {
			return nil, fmt.Errorf("predict %s step %d: %w", series.Symbol, step+1, err)
		}
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return nil, fmt.Errorf("predict %s step %d: non-finite output %v", series.Symbol, step+1, next)
		}

		future = append(future, next)
		copy(window, window[1:])
		window[len(window)-1] = next
	}

	prices := model.Scaler.InverseTransform(future)
	dates := TradingDays(series.LastDate(), horizon)

	path := &contracts.ForecastPath{
		Symbol:       series.Symbol,
		ModelVersion: model.Version,
		LastDate:     series.LastDate(),
		Points:       make([]contracts.ForecastPoint, horizon),
	}
	for i := range path.Points {
		path.Points[i] = contracts.ForecastPoint{Date: dates[i], Price: prices[i]}
	}

	e.log.Debug().
		Str("symbol", series.Symbol).
		Str("model_version", model.Version).
		Int("horizon", horizon).
		Msg("Forecast generated")

	return path, nil
}
