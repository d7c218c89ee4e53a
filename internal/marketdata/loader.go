package marketdata

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/pkg/logger"
)

// Loader assembles return series from a market data provider
// ⭐ SSOT: 종가 → 수익률 변환 진입점
type Loader struct {
	provider contracts.MarketDataProvider
	prices   contracts.PriceRepository // nil이면 저장 안 함
	workers  int
	logger   *logger.Logger
}

// NewLoader creates a loader
// prices가 nil이 아니면 조회한 종가를 저장함 (store-through)
func NewLoader(provider contracts.MarketDataProvider, prices contracts.PriceRepository, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{
		provider: provider,
		prices:   prices,
		workers:  4,
		logger:   log,
	}
}

// WithWorkers sets the fetch concurrency
func (l *Loader) WithWorkers(n int) *Loader {
	if n > 0 {
		l.workers = n
	}
	return l
}

// LoadCloses fetches every code concurrently
// 하나라도 실패하면 전체 실패
func (l *Loader) LoadCloses(ctx context.Context, codes []string, from, to time.Time) (map[string][]contracts.ClosePrice, error) {
	var mu sync.Mutex
	out := make(map[string][]contracts.ClosePrice, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for _, code := range codes {
		g.Go(func() error {
			closes, err := l.provider.FetchCloses(gctx, code, from, to)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", code, err)
			}

			if l.prices != nil && len(closes) > 0 {
				if err := l.prices.SaveCloses(gctx, closes); err != nil {
					l.logger.WithError(err).WithField("code", code).Warn("save closes failed")
				}
			}

			mu.Lock()
			out[code] = closes
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.WithFields(map[string]interface{}{
		"codes": len(codes),
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
	}).Info("closes loaded")
	return out, nil
}

// LoadSeries fetches closes and converts them to a return series on common dates
func (l *Loader) LoadSeries(ctx context.Context, codes []string, from, to time.Time) (*returns.Series, error) {
	closes, err := l.LoadCloses(ctx, codes, from, to)
	if err != nil {
		return nil, err
	}
	return returns.FromCloses(codes, closes)
}

// LoadWithMarket loads the assets and a market proxy on the same date grid
func (l *Loader) LoadWithMarket(ctx context.Context, codes []string, marketCode string, from, to time.Time) (*returns.Series, []float64, error) {
	if slices.Contains(codes, marketCode) {
		return nil, nil, fmt.Errorf("%w: market proxy %s is also an asset", returns.ErrDuplicateAsset, marketCode)
	}

	all := append(slices.Clone(codes), marketCode)
	series, err := l.LoadSeries(ctx, all, from, to)
	if err != nil {
		return nil, nil, err
	}

	market, err := series.ColumnByName(marketCode)
	if err != nil {
		return nil, nil, err
	}
	assets, err := series.Select(codes...)
	if err != nil {
		return nil, nil, err
	}
	return assets, market, nil
}

// RiskFreeRate returns the provider's rate, or fallback when it fails
// 원본과 동일하게 조회 실패 시 기본값 사용 (0.045)
func (l *Loader) RiskFreeRate(ctx context.Context, fallback float64) float64 {
	rate, err := l.provider.RiskFreeRate(ctx)
	if err != nil {
		l.logger.WithError(err).WithField("fallback", fallback).Warn("risk-free rate unavailable, using fallback")
		return fallback
	}
	return rate
}
