package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/niftyquant/internal/contracts"
)

// ErrNotLoaded is returned before the first successful reload
var ErrNotLoaded = errors.New("dataset snapshot not loaded")

// Snapshot 한 번 로드된 읽기 전용 데이터 묶음
// ⭐ 로드 후 불변. 동시 요청 간 참조 공유
type Snapshot struct {
	Stocks   *contracts.PriceTable
	Index    []contracts.Bar
	Universe []contracts.StockInfo
	Sectors  contracts.SectorMap
	LoadedAt time.Time
}

// Store DataSource 위의 스냅샷 캐시. Reload 는 원자적으로 교체
type Store struct {
	source  contracts.DataSource
	current atomic.Pointer[Snapshot]
	reload  sync.Mutex
	log     zerolog.Logger
}

// NewStore creates a store over source (nothing is loaded yet)
func NewStore(source contracts.DataSource, log zerolog.Logger) *Store {
	return &Store{
		source: source,
		log:    log.With().Str("component", "dataset.store").Logger(),
	}
}

// Reload loads every dataset and swaps the snapshot in one step.
// On failure the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.reload.Lock()
	defer s.reload.Unlock()

	start := time.Now()

	stocks, err := s.source.LoadPriceTable(ctx, contracts.DatasetStocks)
	if err != nil {
		return nil, fmt.Errorf("load stock prices: %w", err)
	}
	index, err := s.source.LoadIndexBars(ctx, contracts.DatasetIndex)
	if err != nil {
		return nil, fmt.Errorf("load index bars: %w", err)
	}
	universe, err := s.source.LoadUniverse(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	sectors, err := s.source.LoadSectorMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sector map: %w", err)
	}

	snap := &Snapshot{
		Stocks:   stocks,
		Index:    index,
		Universe: universe,
		Sectors:  sectors,
		LoadedAt: time.Now(),
	}
	s.current.Store(snap)

	s.log.Info().
		Int("symbols", len(stocks.Symbols)).
		Int("rows", stocks.Len()).
		Int("index_bars", len(index)).
		Int("universe", len(universe)).
		Dur("duration", time.Since(start)).
		Msg("Dataset snapshot loaded")

	return snap, nil
}

// Snapshot returns the current snapshot
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}
