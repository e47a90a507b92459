package contracts

import "context"

// Dataset identifiers
const (
	DatasetStocks = "stocks"
	DatasetIndex  = "index"
)

// DataSource loads raw tables for the analytics engine
// ⭐ SSOT: 날짜 정렬, 숫자 타입 보장은 구현체 책임
type DataSource interface {
	LoadPriceTable(ctx context.Context, dataset string) (*PriceTable, error)
	LoadIndexBars(ctx context.Context, dataset string) ([]Bar, error)
	LoadUniverse(ctx context.Context) ([]StockInfo, error)
	LoadSectorMap(ctx context.Context) (SectorMap, error)
}

// Predictor 외부 단일 스텝 예측 모델 (고정 길이 윈도우 -> 다음 값)
type Predictor interface {
	PredictNext(ctx context.Context, window []float64) (float64, error)
}

// Scaler 외부 fit 변환 (min-max, standard 등)
// ⭐ 계약: InverseTransform(Transform(x)) == x (부동소수 오차 내)
type Scaler interface {
	Transform(values []float64) []float64
	InverseTransform(values []float64) []float64
}

// Model 종목별 예측 capability
type Model struct {
	Symbol    string
	Version   string
	Predictor Predictor
	Scaler    Scaler
}

// PredictorRegistry resolves the model for a symbol.
// Implementations fail with ErrModelNotAvailable when none exists.
type PredictorRegistry interface {
	Resolve(ctx context.Context, symbol string) (*Model, error)
}

// Renderer 그래프/예측을 이미지로 변환 (엔진은 렌더링하지 않음)
type Renderer interface {
	RenderNetwork(result *NetworkResult) ([]byte, error)
	RenderForecast(history *PriceSeries, path *ForecastPath) ([]byte, error)
}
