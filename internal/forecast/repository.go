package forecast

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/niftyquant/internal/contracts"
)

// ModelRecord 종목별 배포 모델 메타데이터 + scaler 파라미터
type ModelRecord struct {
	Symbol       string
	ModelName    string // model server 상의 모델 이름
	ModelVersion string
	Scaler       ScalerParams
}

// Repository forecast 모델 메타데이터 저장소
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository 새 저장소 생성
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveModel 모델 레코드 upsert
func (r *Repository) SaveModel(ctx context.Context, rec ModelRecord) error {
	query := `
		INSERT INTO analytics.forecast_models
			(symbol, model_name, model_version, scaler_kind, scaler_a, scaler_b)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol)
		DO UPDATE SET
			model_name = EXCLUDED.model_name,
			model_version = EXCLUDED.model_version,
			scaler_kind = EXCLUDED.scaler_kind,
			scaler_a = EXCLUDED.scaler_a,
			scaler_b = EXCLUDED.scaler_b,
			updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query,
		rec.Symbol, rec.ModelName, rec.ModelVersion,
		rec.Scaler.Kind, rec.Scaler.A, rec.Scaler.B,
	)
	return err
}

// GetModel 종목 모델 조회. 없으면 ErrModelNotAvailable
func (r *Repository) GetModel(ctx context.Context, symbol string) (*ModelRecord, error) {
	query := `
		SELECT symbol, model_name, model_version, scaler_kind, scaler_a, scaler_b
		FROM analytics.forecast_models
		WHERE symbol = $1`

	var rec ModelRecord
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&rec.Symbol, &rec.ModelName, &rec.ModelVersion,
		&rec.Scaler.Kind, &rec.Scaler.A, &rec.Scaler.B,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", contracts.ErrModelNotAvailable, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("get forecast model %s: %w", symbol, err)
	}

	return &rec, nil
}

// ListSymbols 모델이 배포된 종목 목록
func (r *Repository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT symbol FROM analytics.forecast_models ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}

	return symbols, rows.Err()
}
