package forecast

import (
	"fmt"
	"math"

	"github.com/wonny/niftyquant/internal/contracts"
)

// Scaler kinds
const (
	ScalerMinMax   = "minmax"
	ScalerStandard = "standard"
)

// MinMaxScaler x' = (x - DataMin)/(DataMax - DataMin) * (FeatureMax - FeatureMin) + FeatureMin
type MinMaxScaler struct {
	DataMin    float64
	DataMax    float64
	FeatureMin float64
	FeatureMax float64
}

// NewMinMaxScaler fits a [0, 1] scaler on values
func NewMinMaxScaler(values []float64) *MinMaxScaler {
	s := &MinMaxScaler{FeatureMin: 0, FeatureMax: 1}
	if len(values) == 0 {
		return s
	}
	s.DataMin, s.DataMax = values[0], values[0]
	for _, v := range values[1:] {
		s.DataMin = math.Min(s.DataMin, v)
		s.DataMax = math.Max(s.DataMax, v)
	}
	return s
}

// 범위가 0 이면 1로 대체 (상수 시계열)
func (s *MinMaxScaler) scale() float64 {
	dataRange := s.DataMax - s.DataMin
	if dataRange == 0 {
		dataRange = 1
	}
	return (s.FeatureMax - s.FeatureMin) / dataRange
}

// Transform scales values into the feature range
func (s *MinMaxScaler) Transform(values []float64) []float64 {
	scale := s.scale()
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v-s.DataMin)*scale + s.FeatureMin
	}
	return out
}

// InverseTransform maps scaled values back to native prices
func (s *MinMaxScaler) InverseTransform(values []float64) []float64 {
	scale := s.scale()
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v-s.FeatureMin)/scale + s.DataMin
	}
	return out
}

// StandardScaler x' = (x - Mean) / Scale
type StandardScaler struct {
	Mean  float64
	Scale float64
}

func (s *StandardScaler) std() float64 {
	if s.Scale == 0 {
		return 1
	}
	return s.Scale
}

// Transform standardizes values
func (s *StandardScaler) Transform(values []float64) []float64 {
	std := s.std()
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.Mean) / std
	}
	return out
}

// InverseTransform maps standardized values back to native prices
func (s *StandardScaler) InverseTransform(values []float64) []float64 {
	std := s.std()
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*std + s.Mean
	}
	return out
}

// ScalerParams 저장용 scaler 파라미터 (DB / 설정)
type ScalerParams struct {
	Kind string  `json:"kind"`
	A    float64 `json:"a"` // minmax: data_min, standard: mean
	B    float64 `json:"b"` // minmax: data_max, standard: scale
}

// Build returns the concrete scaler for the stored parameters
func (p ScalerParams) Build() (contracts.Scaler, error) {
	switch p.Kind {
	case ScalerMinMax:
		return &MinMaxScaler{DataMin: p.A, DataMax: p.B, FeatureMin: 0, FeatureMax: 1}, nil
	case ScalerStandard:
		return &StandardScaler{Mean: p.A, Scale: p.B}, nil
	default:
		return nil, fmt.Errorf("%w: unknown scaler kind %q", contracts.ErrInvalidInput, p.Kind)
	}
}
