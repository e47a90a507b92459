package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/niftyquant/internal/forecast"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "예측 모델 메타데이터 관리",
	Long: `종목별 원격 모델 이름 / 버전 / scaler 파라미터를 관리합니다.
analytics.forecast_models 테이블 (DATABASE_URL 필요).

Example:
  go run ./cmd/quant models register TCS --kind minmax --a 2800 --b 4200 --version v3
  go run ./cmd/quant models register INFY --fit
  go run ./cmd/quant models list`,
}

var (
	modelName    string
	modelVersion string
	scalerKind   string
	scalerA      float64
	scalerB      float64
	fitScaler    bool
)

var modelsRegisterCmd = &cobra.Command{
	Use:   "register [symbol]",
	Short: "모델 등록 / 갱신",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsRegister,
}

func runModelsRegister(cmd *cobra.Command, args []string) error {
	rec := forecast.ModelRecord{
		Symbol:       args[0],
		ModelName:    modelName,
		ModelVersion: modelVersion,
		Scaler:       forecast.ScalerParams{Kind: scalerKind, A: scalerA, B: scalerB},
	}

	// --fit: 현재 데이터셋 종가 범위로 minmax 파라미터 산출
	if fitScaler {
		err := withApp(cmd, func(ctx context.Context, a *app) error {
			snap, err := a.store.Snapshot()
			if err != nil {
				return err
			}
			series, err := snap.Stocks.Series(rec.Symbol)
			if err != nil {
				return err
			}
			fitted := forecast.NewMinMaxScaler(series.Prices())
			rec.Scaler = forecast.ScalerParams{Kind: forecast.ScalerMinMax, A: fitted.DataMin, B: fitted.DataMax}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if _, err := rec.Scaler.Build(); err != nil {
		return err
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if rec.ModelName == "" {
		rec.ModelName = cfg.ModelServer.ModelPrefix + rec.Symbol
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	if err := forecast.NewRepository(db.Pool).SaveModel(ctx, rec); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"symbol":  rec.Symbol,
		"model":   rec.ModelName,
		"version": rec.ModelVersion,
		"scaler":  rec.Scaler.Kind,
	}).Info("Forecast model registered")

	if jsonOutput {
		return PrintJSON(rec)
	}
	PrintSuccess(fmt.Sprintf("%s -> %s (%s, %s a=%.4f b=%.4f)",
		rec.Symbol, rec.ModelName, rec.ModelVersion, rec.Scaler.Kind, rec.Scaler.A, rec.Scaler.B))
	return nil
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "등록된 모델 목록",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := forecast.NewRepository(db.Pool)
		symbols, err := repo.ListSymbols(ctx)
		if err != nil {
			return err
		}

		records := make([]*forecast.ModelRecord, 0, len(symbols))
		for _, sym := range symbols {
			rec, err := repo.GetModel(ctx, sym)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		if jsonOutput {
			return PrintJSON(records)
		}

		widths := []int{12, 20, 10, 10, 12, 12}
		PrintTableHeader([]string{"Symbol", "Model", "Version", "Scaler", "A", "B"}, widths)
		for _, r := range records {
			PrintTableRow([]string{
				r.Symbol, r.ModelName, r.ModelVersion, r.Scaler.Kind,
				fmt.Sprintf("%.4f", r.Scaler.A), fmt.Sprintf("%.4f", r.Scaler.B),
			}, widths)
		}
		if len(records) == 0 {
			PrintInfo("등록된 모델이 없습니다")
		}
		return nil
	},
}

func init() {
	modelsRegisterCmd.Flags().StringVar(&modelName, "name", "", "모델 서버 상 이름 (기본: MODEL_PREFIX + symbol)")
	modelsRegisterCmd.Flags().StringVar(&modelVersion, "version", "v1", "모델 버전 라벨")
	modelsRegisterCmd.Flags().StringVar(&scalerKind, "kind", forecast.ScalerMinMax, "scaler 종류 (minmax | standard)")
	modelsRegisterCmd.Flags().Float64Var(&scalerA, "a", 0, "minmax: data_min, standard: mean")
	modelsRegisterCmd.Flags().Float64Var(&scalerB, "b", 1, "minmax: data_max, standard: scale")
	modelsRegisterCmd.Flags().BoolVar(&fitScaler, "fit", false, "데이터셋 종가로 minmax 파라미터 산출")

	modelsCmd.AddCommand(modelsRegisterCmd, modelsListCmd)
	rootCmd.AddCommand(modelsCmd)
}
