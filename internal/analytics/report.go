package analytics

import (
	"github.com/wonny/niftyquant/internal/contracts"
)

// PortfolioReport 최적화 결과 출력 형태 (퍼센트 단위)
type PortfolioReport struct {
	Symbols        []string           `json:"symbols"`
	TargetReturn   float64            `json:"target_return"`
	WeightsPercent map[string]float64 `json:"weights_percent"`
	MetricsPercent map[string]float64 `json:"metrics_percent"`
	Observations   int                `json:"observations"`

	Allocation *contracts.Allocation `json:"-"`
}

// NetworkReport 그래프 + 중심성 + 렌더링 키
type NetworkReport struct {
	*contracts.NetworkResult
	PlotKey string `json:"plot_key,omitempty"`
}

// ForecastReport 예측 경로 출력 형태 (가격 2자리)
type ForecastReport struct {
	Symbol       string                   `json:"symbol"`
	Horizon      int                      `json:"forecast_days"`
	LastDate     string                   `json:"last_date"`
	ModelVersion string                   `json:"model_version,omitempty"`
	Predictions  []contracts.HistoryPoint `json:"predictions"`
	PlotKey      string                   `json:"plot_key,omitempty"`

	Path *contracts.ForecastPath `json:"-"`
}

func newPortfolioReport(a *contracts.Allocation) *PortfolioReport {
	return &PortfolioReport{
		Symbols:        a.Symbols,
		TargetReturn:   a.TargetReturn,
		WeightsPercent: a.WeightsPercent(),
		MetricsPercent: a.Metrics.Percent(),
		Observations:   a.Observations,
		Allocation:     a,
	}
}

func newForecastReport(path *contracts.ForecastPath) *ForecastReport {
	preds := make([]contracts.HistoryPoint, len(path.Points))
	for i, p := range path.Points {
		preds[i] = contracts.HistoryPoint{
			Date:  p.Date.Format(contracts.DateLayout),
			Price: contracts.RoundPercent(p.Price),
		}
	}
	return &ForecastReport{
		Symbol:       path.Symbol,
		Horizon:      len(path.Points),
		LastDate:     path.LastDate.Format(contracts.DateLayout),
		ModelVersion: path.ModelVersion,
		Predictions:  preds,
		Path:         path,
	}
}
