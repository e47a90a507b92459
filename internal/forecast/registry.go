package forecast

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/niftyquant/internal/contracts"
)

// StaticRegistry 메모리 기반 symbol -> Model 테이블
// 파일시스템 경로 규칙 없음. 등록된 것만 Resolve 가능
type StaticRegistry struct {
	mu     sync.RWMutex
	models map[string]*contracts.Model
}

// NewStaticRegistry creates an empty registry
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{models: make(map[string]*contracts.Model)}
}

// Register adds or replaces the model for model.Symbol
func (r *StaticRegistry) Register(model *contracts.Model) error {
	if model == nil || model.Symbol == "" || model.Predictor == nil || model.Scaler == nil {
		return fmt.Errorf("%w: model requires symbol, predictor and scaler", contracts.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[model.Symbol] = model
	return nil
}

// Resolve returns the model for symbol or ErrModelNotAvailable
func (r *StaticRegistry) Resolve(_ context.Context, symbol string) (*contracts.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	model, ok := r.models[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrModelNotAvailable, symbol)
	}
	return model, nil
}

// Symbols lists registered symbols in sorted order
func (r *StaticRegistry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.models))
	for s := range r.models {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
