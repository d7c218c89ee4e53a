package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/external/naver"
	"github.com/wonny/frontier/internal/marketdata"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/internal/profile"
	"github.com/wonny/frontier/internal/repository"
	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/internal/stats"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/database"
	"github.com/wonny/frontier/pkg/httputil"
	"github.com/wonny/frontier/pkg/logger"
	"github.com/wonny/frontier/pkg/redis"
)

// runtime holds the wired dependencies of one command
// ⭐ SSOT: 의존성 조립은 여기서만
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	profile *profile.Snapshot // --profile 없으면 nil

	db    *database.DB  // DATABASE_URL 없으면 nil
	redis *redis.Client // REDIS_ENABLED=false면 no-op 클라이언트

	breaker *marketdata.BreakerProvider
	loader  *marketdata.Loader
	runs    contracts.RunRepository // db 없으면 nil
}

// newRuntime loads config and wires storage and market data
// requireDB: DB 없으면 실패 (scheduler 등)
func newRuntime(ctx context.Context, requireDB bool) (*runtime, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Profile → global flag 순서로 override
	var prof *profile.Profile
	var profYAML []byte
	if profilePath != "" {
		if prof, profYAML, err = profile.Load(profilePath); err != nil {
			return nil, fmt.Errorf("load profile %s: %w", profilePath, err)
		}
		prof.ApplyTo(cfg)
	}
	if periodsPerYear > 0 {
		cfg.Engine.PeriodsPerYear = periodsPerYear
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	rt := &runtime{cfg: cfg, log: log}

	if prof != nil {
		if rt.profile, err = profile.NewSnapshot(prof, profYAML); err != nil {
			return nil, err
		}
		log.WithFields(map[string]interface{}{
			"profile_id": prof.Meta.ProfileID,
			"version":    prof.Meta.Version,
			"hash":       rt.profile.Hash,
			"codes":      len(prof.Universe.Codes),
		}).Info("Profile applied")
		for _, w := range profile.Warn(prof) {
			log.WithField("code", w.Code).Warn(w.Message)
		}
	}

	// 3. Connect to database (선택)
	db, err := database.New(cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured) && !requireDB:
		log.Debug("DATABASE_URL not set, persistence disabled")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		rt.db = db
		rt.runs = repository.NewRunRepository(db.Pool)
	}

	// 4. Connect to Redis (실패해도 캐시 없이 진행)
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rc = &redis.Client{}
	}
	rt.redis = rc

	// 5. Market data: naver → breaker → cache → loader (DB store-through)
	httpClient := httputil.New(log, cfg.Naver.Timeout).WithRateLimit(cfg.Naver.RequestsPerSec)
	naverClient := naver.NewClient(httpClient, cfg.Naver, log)
	rt.breaker = marketdata.NewBreakerProvider("naver", naverClient, marketdata.DefaultBreakerConfig(), log)

	var provider contracts.MarketDataProvider = rt.breaker
	if rc.Enabled() {
		provider = marketdata.NewCachedProvider(rt.breaker, redis.NewCache(rc, "frontier"), cfg.Naver.RiskFreeCode, log)
	}

	var prices contracts.PriceRepository
	if rt.db != nil {
		prices = repository.NewPriceRepository(rt.db.Pool)
	}
	rt.loader = marketdata.NewLoader(provider, prices, log)

	return rt, nil
}

// Close releases storage connections
func (rt *runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
}

// newOptimizer builds the statistics basis and its optimizer
func (rt *runtime) newOptimizer(series *returns.Series, annualRF float64, opts ...optimizer.Option) (*optimizer.Optimizer, error) {
	st, err := stats.New(series, annualRF, stats.FromEngine(rt.cfg.Engine))
	if err != nil {
		return nil, err
	}
	opts = append([]optimizer.Option{optimizer.WithLogger(rt.log)}, opts...)
	return optimizer.New(st, optimizer.FromEngine(rt.cfg.Engine), opts...), nil
}
