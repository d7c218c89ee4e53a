package marketdata

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/logger"
	"github.com/wonny/frontier/pkg/redis"
)

// Cache is the subset of redis.Cache the provider needs
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedProvider caches closes (1 day) and the risk-free rate (10 min)
// 캐시 오류는 조회 실패로 취급하지 않음 (원본 제공자로 진행)
// 같은 키의 동시 miss는 singleflight로 한 번만 조회
type CachedProvider struct {
	next      contracts.MarketDataProvider
	cache     Cache
	indicator string
	logger    *logger.Logger
	group     singleflight.Group
}

// flightTimeout 공유 조회 한 번의 상한 (호출자 취소와 무관)
const flightTimeout = 30 * time.Second

// NewCachedProvider wraps next with a cache
// indicator: 무위험수익률 캐시 키 구분자 (예: IRR_GOVT03Y)
func NewCachedProvider(next contracts.MarketDataProvider, cache Cache, indicator string, log *logger.Logger) *CachedProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedProvider{
		next:      next,
		cache:     cache,
		indicator: indicator,
		logger:    log,
	}
}

// FetchCloses implements contracts.MarketDataProvider
func (p *CachedProvider) FetchCloses(ctx context.Context, code string, from, to time.Time) ([]contracts.ClosePrice, error) {
	key := redis.ClosesKey(code, from, to)

	var cached []contracts.ClosePrice
	hit, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("closes cache read failed")
	}
	if hit {
		return cached, nil
	}

	v, err := p.flight(ctx, key, func(ctx context.Context) (interface{}, error) {
		closes, err := p.next.FetchCloses(ctx, code, from, to)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, closes, redis.TTLDaily); err != nil {
			p.logger.WithError(err).WithField("key", key).Warn("closes cache write failed")
		}
		return closes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]contracts.ClosePrice), nil
}

// RiskFreeRate implements contracts.MarketDataProvider
func (p *CachedProvider) RiskFreeRate(ctx context.Context) (float64, error) {
	key := redis.RiskFreeKey(p.indicator)

	var cached float64
	hit, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("risk-free cache read failed")
	}
	if hit {
		return cached, nil
	}

	v, err := p.flight(ctx, key, func(ctx context.Context) (interface{}, error) {
		rate, err := p.next.RiskFreeRate(ctx)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, key, rate, redis.TTLShort); err != nil {
			p.logger.WithError(err).WithField("key", key).Warn("risk-free cache write failed")
		}
		return rate, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// flight runs fn once per key for all concurrent callers
// 조회는 첫 호출자의 취소와 분리되고, 각 호출자는 자기 ctx가 끝나면 먼저 반환
func (p *CachedProvider) flight(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := p.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return fn(fctx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
