package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/logger"
)

// ErrProviderUnavailable 회로 차단 중 (연속 실패 후 쿨다운)
var ErrProviderUnavailable = errors.New("market data provider unavailable")

// BreakerConfig controls the circuit breaker
type BreakerConfig struct {
	MaxFailures uint32        // 연속 실패 N회면 open
	OpenTimeout time.Duration // open → half-open 대기
	HalfOpenMax uint32        // half-open 시 허용 요청 수
}

// DefaultBreakerConfig returns 5 failures / 30s
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
		HalfOpenMax: 1,
	}
}

// BreakerProvider fails fast while the upstream keeps failing
type BreakerProvider struct {
	next   contracts.MarketDataProvider
	cb     *gobreaker.CircuitBreaker
	logger *logger.Logger
}

// NewBreakerProvider wraps next with a circuit breaker
func NewBreakerProvider(name string, next contracts.MarketDataProvider, cfg BreakerConfig, log *logger.Logger) *BreakerProvider {
	if log == nil {
		log = logger.Nop()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMax,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// 호출자 취소는 upstream 장애가 아님
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}

	return &BreakerProvider{
		next:   next,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: log,
	}
}

// State returns the breaker state name (closed, half-open, open)
func (p *BreakerProvider) State() string {
	return p.cb.State().String()
}

// FetchCloses implements contracts.MarketDataProvider
func (p *BreakerProvider) FetchCloses(ctx context.Context, code string, from, to time.Time) ([]contracts.ClosePrice, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		return p.next.FetchCloses(ctx, code, from, to)
	})
	if err != nil {
		return nil, p.wrap(err)
	}
	return out.([]contracts.ClosePrice), nil
}

// RiskFreeRate implements contracts.MarketDataProvider
func (p *BreakerProvider) RiskFreeRate(ctx context.Context) (float64, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		return p.next.RiskFreeRate(ctx)
	})
	if err != nil {
		return 0, p.wrap(err)
	}
	return out.(float64), nil
}

func (p *BreakerProvider) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return err
}
