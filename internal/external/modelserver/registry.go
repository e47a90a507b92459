package modelserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/internal/forecast"
)

// ModelStore 모델 메타데이터 조회 (forecast.Repository)
type ModelStore interface {
	GetModel(ctx context.Context, symbol string) (*forecast.ModelRecord, error)
}

// Registry resolves symbols to remote predictors.
// Metadata comes from the store. Resolved models are cached until Invalidate.
type Registry struct {
	client *Client
	store  ModelStore
	prefix string
	log    zerolog.Logger

	mu    sync.RWMutex
	cache map[string]*contracts.Model
}

// NewRegistry creates a registry. prefix is used when a record has no model name.
func NewRegistry(client *Client, store ModelStore, prefix string, log zerolog.Logger) *Registry {
	return &Registry{
		client: client,
		store:  store,
		prefix: prefix,
		log:    log.With().Str("component", "modelserver.registry").Logger(),
		cache:  make(map[string]*contracts.Model),
	}
}

// Resolve implements contracts.PredictorRegistry
func (r *Registry) Resolve(ctx context.Context, symbol string) (*contracts.Model, error) {
	r.mu.RLock()
	model, ok := r.cache[symbol]
	r.mu.RUnlock()
	if ok {
		return model, nil
	}

	if r.store == nil {
		return nil, fmt.Errorf("%w: %s", contracts.ErrModelNotAvailable, symbol)
	}

	rec, err := r.store.GetModel(ctx, symbol)
	if err != nil {
		return nil, err
	}

	scaler, err := rec.Scaler.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contracts.ErrModelNotAvailable, symbol, err)
	}

	name := rec.ModelName
	if name == "" {
		name = r.prefix + symbol
	}

	model = &contracts.Model{
		Symbol:    symbol,
		Version:   rec.ModelVersion,
		Predictor: &Predictor{client: r.client, model: name},
		Scaler:    scaler,
	}

	r.mu.Lock()
	r.cache[symbol] = model
	r.mu.Unlock()

	r.log.Debug().
		Str("symbol", symbol).
		Str("model", name).
		Str("version", rec.ModelVersion).
		Msg("Model resolved")

	return model, nil
}

// Invalidate drops cached models (after a redeploy)
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*contracts.Model)
}
