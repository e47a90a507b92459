package dataset

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/niftyquant/internal/contracts"
)

// PostgresSource PostgreSQL 기반 DataSource
// ⭐ SSOT: market.* 테이블 읽기/쓰기는 여기서만
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a new postgres data source
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// LoadPriceTable pivots long (symbol, date, close) rows into a wide table
func (s *PostgresSource) LoadPriceTable(ctx context.Context, dataset string) (*contracts.PriceTable, error) {
	query := `
		SELECT symbol, trade_date, close_price
		FROM market.daily_prices
		WHERE dataset = $1
		ORDER BY trade_date ASC, symbol ASC
	`

	rows, err := s.pool.Query(ctx, query, dataset)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	dateIdx := make(map[time.Time]int)
	values := make(map[string]map[int]float64)

	for rows.Next() {
		var (
			sym   string
			date  time.Time
			price float64
		)
		if err := rows.Scan(&sym, &date, &price); err != nil {
			return nil, err
		}
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

		idx, ok := dateIdx[date]
		if !ok {
			idx = len(dates)
			dates = append(dates, date)
			dateIdx[date] = idx
		}
		if values[sym] == nil {
			values[sym] = make(map[int]float64)
		}
		values[sym][idx] = price
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: dataset %s has no prices", ErrUnknownSet, dataset)
	}

	symbols := make([]string, 0, len(values))
	columns := make(map[string][]float64, len(values))
	for sym, byDate := range values {
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		for idx, v := range byDate {
			col[idx] = v
		}
		symbols = append(symbols, sym)
		columns[sym] = col
	}
	sort.Strings(symbols)

	return contracts.NewPriceTable(dates, symbols, columns)
}

// LoadIndexBars returns OHLC bars ordered by date
func (s *PostgresSource) LoadIndexBars(ctx context.Context, dataset string) ([]contracts.Bar, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price
		FROM market.index_bars
		WHERE dataset = $1
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, dataset)
	if err != nil {
		return nil, fmt.Errorf("query index bars: %w", err)
	}
	defer rows.Close()

	var bars []contracts.Bar
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LoadUniverse returns the stock listing ordered by symbol
func (s *PostgresSource) LoadUniverse(ctx context.Context) ([]contracts.StockInfo, error) {
	rows, err := s.pool.Query(ctx, `SELECT symbol, company, sector FROM market.stocks ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []contracts.StockInfo
	for rows.Next() {
		var st contracts.StockInfo
		if err := rows.Scan(&st.Symbol, &st.Company, &st.Sector); err != nil {
			return nil, err
		}
		stocks = append(stocks, st)
	}
	return stocks, rows.Err()
}

// LoadSectorMap derives symbol -> sector from market.stocks
func (s *PostgresSource) LoadSectorMap(ctx context.Context) (contracts.SectorMap, error) {
	stocks, err := s.LoadUniverse(ctx)
	if err != nil {
		return nil, err
	}
	return contracts.NewSectorMap(stocks), nil
}

// =============================================================================
// Import (CSV -> PostgreSQL)
// =============================================================================

// ImportPriceTable replaces dataset prices with the table contents (missing cells skipped)
func (s *PostgresSource) ImportPriceTable(ctx context.Context, dataset string, table *contracts.PriceTable) (int64, error) {
	var rows [][]any
	for _, sym := range table.Symbols {
		series, err := table.Series(sym)
		if err != nil {
			return 0, err
		}
		for _, p := range series.Points {
			rows = append(rows, []any{dataset, sym, p.Date, p.Price})
		}
	}

	return s.replace(ctx, `DELETE FROM market.daily_prices WHERE dataset = $1`, dataset,
		pgx.Identifier{"market", "daily_prices"},
		[]string{"dataset", "symbol", "trade_date", "close_price"}, rows)
}

// ImportIndexBars replaces dataset index bars
func (s *PostgresSource) ImportIndexBars(ctx context.Context, dataset string, bars []contracts.Bar) (int64, error) {
	rows := make([][]any, len(bars))
	for i, b := range bars {
		rows[i] = []any{dataset, b.Date, b.Open, b.High, b.Low, b.Close}
	}

	return s.replace(ctx, `DELETE FROM market.index_bars WHERE dataset = $1`, dataset,
		pgx.Identifier{"market", "index_bars"},
		[]string{"dataset", "trade_date", "open_price", "high_price", "low_price", "close_price"}, rows)
}

// ImportUniverse upserts the stock listing
func (s *PostgresSource) ImportUniverse(ctx context.Context, stocks []contracts.StockInfo) error {
	if len(stocks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO market.stocks (symbol, company, sector)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE SET
			company = EXCLUDED.company,
			sector = EXCLUDED.sector`

	for _, st := range stocks {
		batch.Queue(query, st.Symbol, st.Company, st.Sector)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range stocks {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// replace delete + COPY 를 하나의 트랜잭션으로
func (s *PostgresSource) replace(ctx context.Context, deleteSQL, dataset string, table pgx.Identifier, cols []string, rows [][]any) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteSQL, dataset); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table.Sanitize(), err)
	}

	n, err := tx.CopyFrom(ctx, table, cols, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table.Sanitize(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return n, nil
}
