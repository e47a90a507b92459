package commands

import (
	"context"
	"fmt"

	"github.com/wonny/niftyquant/internal/analytics"
	"github.com/wonny/niftyquant/internal/artifact"
	"github.com/wonny/niftyquant/internal/auth"
	"github.com/wonny/niftyquant/internal/contracts"
	"github.com/wonny/niftyquant/internal/dataset"
	"github.com/wonny/niftyquant/internal/external/modelserver"
	"github.com/wonny/niftyquant/internal/forecast"
	"github.com/wonny/niftyquant/internal/network"
	"github.com/wonny/niftyquant/internal/overview"
	"github.com/wonny/niftyquant/internal/portfolio"
	"github.com/wonny/niftyquant/internal/render"
	"github.com/wonny/niftyquant/internal/risk"
	"github.com/wonny/niftyquant/pkg/config"
	"github.com/wonny/niftyquant/pkg/database"
	"github.com/wonny/niftyquant/pkg/httputil"
	"github.com/wonny/niftyquant/pkg/logger"
	"github.com/wonny/niftyquant/pkg/redis"
)

// app 커맨드 공용 의존성 그래프
// ⭐ SSOT: 컴포넌트 조립은 여기서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB // DATABASE_URL 미설정 시 nil
	redis    *redis.Client
	store    *dataset.Store
	registry *modelserver.Registry
	service  *analytics.Service
	accounts *auth.Service
}

// loadConfig config + logger (verbose 플래그 반영)
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// newApp wires every component and loads the first dataset snapshot
func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}
	zl := log.Zerolog()

	// 1. Database (postgres source 또는 모델 메타데이터)
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			if cfg.Data.Source == config.DataSourcePostgres {
				return nil, fmt.Errorf("connect to database: %w", err)
			}
			log.WithError(err).Warn("Database unavailable, forecast models disabled")
		} else {
			a.db = db
		}
	}

	// 2. Redis (artifact cache)
	a.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}

	// 3. Dataset snapshot
	var source contracts.DataSource
	switch cfg.Data.Source {
	case config.DataSourcePostgres:
		source = dataset.NewPostgresSource(a.db.Pool)
	default:
		source = dataset.NewCSVSource(cfg.Data.StockDataPath, cfg.Data.IndexDataPath, cfg.Data.SectorMapPath)
	}
	a.store = dataset.NewStore(source, zl)
	if _, err := a.store.Reload(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	// 4. Forecast models (remote predictor)
	var models modelserver.ModelStore
	if a.db != nil {
		models = forecast.NewRepository(a.db.Pool)
	}
	httpClient := httputil.New(log, cfg.ModelServer.Timeout).
		WithRateLimit(cfg.ModelServer.RequestsPerSec, 1)
	client := modelserver.NewClient(httpClient, log, cfg.ModelServer.BaseURL)
	a.registry = modelserver.NewRegistry(client, models, cfg.ModelServer.ModelPrefix, zl)

	// 5. Artifact store
	var artifacts artifact.Store
	if a.redis.Enabled() {
		artifacts = artifact.NewRedisStore(redis.NewCache(a.redis, "niftyquant"), cfg.ArtifactTTL, zl)
	} else {
		artifacts = artifact.NewMemoryStore(cfg.ArtifactTTL)
	}

	// 6. Engines
	netCfg := network.DefaultConfig()
	netCfg.EigenMaxIterations = cfg.Analytics.EigenMaxIterations
	netCfg.EigenTolerance = cfg.Analytics.EigenTolerance

	fcCfg := forecast.DefaultConfig()
	fcCfg.Window = cfg.Analytics.ForecastWindow

	optimizer := portfolio.NewOptimizer(
		portfolio.Config{Iterations: cfg.Analytics.OptimizerIterations, StepSize: cfg.Analytics.OptimizerStep},
		portfolio.DefaultConstraints(),
		risk.NewEngine(),
		zl,
	)

	a.service = analytics.NewService(
		analytics.Config{DefaultThreshold: cfg.Analytics.DefaultThreshold},
		a.store,
		optimizer,
		network.NewBuilder(netCfg, zl),
		forecast.NewEngine(fcCfg, a.registry, zl),
		overview.NewAggregator(zl),
		render.NewRenderer(render.DefaultConfig(), zl),
		artifacts,
		zl,
	)

	// 7. Accounts (POST /api/predict 로그인 필요)
	var users auth.UserStore
	if a.db != nil {
		users = auth.NewRepository(a.db.Pool)
	} else {
		log.Warn("Database unavailable, user accounts are kept in memory")
		users = auth.NewMemoryUserStore()
	}
	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		log.Warn("JWT_SECRET not set, tokens will not survive a restart")
		if secret, err = auth.RandomSecret(); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.accounts, err = auth.NewService(auth.Config{Secret: secret, TokenTTL: cfg.Auth.TokenTTL}, users, zl)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init auth: %w", err)
	}

	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
