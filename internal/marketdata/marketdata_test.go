package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/returns"
)

var errUpstream = errors.New("upstream down")

// fakeProvider serves closes from memory
type fakeProvider struct {
	closes  map[string][]contracts.ClosePrice
	rate    float64
	err     error
	rateErr error
	calls   atomic.Int32
	rfCalls atomic.Int32
}

func (f *fakeProvider) FetchCloses(ctx context.Context, code string, from, to time.Time) ([]contracts.ClosePrice, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.closes[code], nil
}

func (f *fakeProvider) RiskFreeRate(ctx context.Context) (float64, error) {
	f.rfCalls.Add(1)
	if f.rateErr != nil {
		return 0, f.rateErr
	}
	return f.rate, nil
}

// memCache mimics redis.Cache with JSON round-trips
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

type memPrices struct {
	mu    sync.Mutex
	saved int
}

func (m *memPrices) GetCloses(ctx context.Context, code string, from, to time.Time) ([]contracts.ClosePrice, error) {
	return nil, nil
}

func (m *memPrices) SaveCloses(ctx context.Context, closes []contracts.ClosePrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved += len(closes)
	return nil
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func history(code string, prices map[int]float64) []contracts.ClosePrice {
	var out []contracts.ClosePrice
	for d := 1; d <= 31; d++ {
		if p, ok := prices[d]; ok {
			out = append(out, contracts.ClosePrice{Code: code, Date: day(d), Close: p})
		}
	}
	return out
}

func sampleProvider() *fakeProvider {
	return &fakeProvider{
		closes: map[string][]contracts.ClosePrice{
			"A":   history("A", map[int]float64{2: 100, 3: 110, 4: 99, 5: 108.9}),
			"B":   history("B", map[int]float64{2: 50, 3: 50, 4: 55, 5: 44}),
			"MKT": history("MKT", map[int]float64{1: 10, 2: 10, 3: 10.5, 4: 10.5, 5: 10.5}),
		},
		rate: 0.031,
	}
}

// =============================================================================
// Loader
// =============================================================================

func TestLoader_LoadSeries(t *testing.T) {
	prices := &memPrices{}
	l := NewLoader(sampleProvider(), prices, nil).WithWorkers(2)

	series, err := l.LoadSeries(context.Background(), []string{"A", "B"}, day(1), day(31))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, series.Assets())
	assert.Equal(t, 3, series.Len())
	assert.InDeltaSlice(t, []float64{0.10, -0.10, 0.10}, series.Column(0), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.10, -0.20}, series.Column(1), 1e-12)
	assert.Equal(t, 8, prices.saved)
}

func TestLoader_LoadWithMarket(t *testing.T) {
	l := NewLoader(sampleProvider(), nil, nil)

	series, market, err := l.LoadWithMarket(context.Background(), []string{"A", "B"}, "MKT", day(1), day(31))
	require.NoError(t, err)

	// 공통 날짜 2~5일 → 3개 수익률
	assert.Equal(t, []string{"A", "B"}, series.Assets())
	require.Len(t, market, series.Len())
	assert.InDeltaSlice(t, []float64{0.05, 0, 0}, market, 1e-12)
}

func TestLoader_LoadWithMarketDuplicate(t *testing.T) {
	l := NewLoader(sampleProvider(), nil, nil)

	_, _, err := l.LoadWithMarket(context.Background(), []string{"A", "MKT"}, "MKT", day(1), day(31))
	assert.ErrorIs(t, err, returns.ErrDuplicateAsset)
}

func TestLoader_FetchError(t *testing.T) {
	p := sampleProvider()
	p.err = errUpstream
	l := NewLoader(p, nil, nil)

	_, err := l.LoadSeries(context.Background(), []string{"A", "B"}, day(1), day(31))
	assert.ErrorIs(t, err, errUpstream)
}

func TestLoader_RiskFreeRateFallback(t *testing.T) {
	p := sampleProvider()
	l := NewLoader(p, nil, nil)
	assert.Equal(t, 0.031, l.RiskFreeRate(context.Background(), 0.045))

	p.rateErr = errUpstream
	assert.Equal(t, 0.045, l.RiskFreeRate(context.Background(), 0.045))
}

// =============================================================================
// Cache
// =============================================================================

func TestCachedProvider(t *testing.T) {
	p := sampleProvider()
	c := NewCachedProvider(p, newMemCache(), "IRR_GOVT03Y", nil)
	ctx := context.Background()

	first, err := c.FetchCloses(ctx, "A", day(1), day(31))
	require.NoError(t, err)
	second, err := c.FetchCloses(ctx, "A", day(1), day(31))
	require.NoError(t, err)

	assert.Equal(t, int32(1), p.calls.Load())
	require.Len(t, second, len(first))
	assert.True(t, first[0].Date.Equal(second[0].Date))
	assert.Equal(t, first[0].Close, second[0].Close)

	// 다른 기간은 다른 키
	_, err = c.FetchCloses(ctx, "A", day(2), day(31))
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())

	for i := 0; i < 3; i++ {
		rate, err := c.RiskFreeRate(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0.031, rate)
	}
	assert.Equal(t, int32(1), p.rfCalls.Load())
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	p := sampleProvider()
	p.err = errUpstream
	c := NewCachedProvider(p, newMemCache(), "IRR_GOVT03Y", nil)

	_, err := c.FetchCloses(context.Background(), "A", day(1), day(31))
	assert.ErrorIs(t, err, errUpstream)

	p.err = nil
	closes, err := c.FetchCloses(context.Background(), "A", day(1), day(31))
	require.NoError(t, err)
	assert.Len(t, closes, 4)
}

// blockingProvider holds every FetchCloses until release is closed
type blockingProvider struct {
	fakeProvider
	release chan struct{}
}

func (b *blockingProvider) FetchCloses(ctx context.Context, code string, from, to time.Time) ([]contracts.ClosePrice, error) {
	b.calls.Add(1)
	select {
	case <-b.release:
		return history(code, map[int]float64{2: 100, 3: 101}), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCachedProvider_CoalescesConcurrentMisses(t *testing.T) {
	p := &blockingProvider{release: make(chan struct{})}
	c := NewCachedProvider(p, newMemCache(), "IRR_GOVT03Y", nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]contracts.ClosePrice, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			closes, err := c.FetchCloses(context.Background(), "A", day(1), day(31))
			assert.NoError(t, err)
			results[i] = closes
		}(i)
	}

	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond) // 나머지 호출자가 대기열에 합류
	close(p.release)
	wg.Wait()

	assert.Equal(t, int32(1), p.calls.Load())
	for _, r := range results {
		assert.Len(t, r, 2)
	}
}

func TestCachedProvider_FirstCallerCancelDoesNotFailOthers(t *testing.T) {
	p := &blockingProvider{release: make(chan struct{})}
	cache := newMemCache()
	c := NewCachedProvider(p, cache, "IRR_GOVT03Y", nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.FetchCloses(firstCtx, "A", day(1), day(31))
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		closes []contracts.ClosePrice
		err    error
	}
	second := make(chan result, 1)
	go func() {
		closes, err := c.FetchCloses(context.Background(), "A", day(1), day(31))
		second <- result{closes, err}
	}()
	time.Sleep(50 * time.Millisecond) // 두 번째 호출자가 같은 조회에 합류

	// 첫 호출자 취소: 자신만 즉시 반환, 공유 조회는 계속
	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(p.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.closes, 2)
	assert.Equal(t, int32(1), p.calls.Load())

	// 캐시 기록도 완료
	closes, err := c.FetchCloses(context.Background(), "A", day(1), day(31))
	require.NoError(t, err)
	assert.Len(t, closes, 2)
	assert.Equal(t, int32(1), p.calls.Load())
}

// =============================================================================
// Circuit breaker
// =============================================================================

func TestBreakerProvider_OpensAfterFailures(t *testing.T) {
	p := sampleProvider()
	p.err = errUpstream

	b := NewBreakerProvider("naver", p, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute, HalfOpenMax: 1}, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.FetchCloses(ctx, "A", day(1), day(31))
		assert.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.FetchCloses(ctx, "A", day(1), day(31))
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, int32(2), p.calls.Load())

	_, err = b.RiskFreeRate(ctx)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestBreakerProvider_CancellationDoesNotTrip(t *testing.T) {
	p := sampleProvider()
	p.err = context.Canceled

	b := NewBreakerProvider("naver", p, BreakerConfig{MaxFailures: 1, OpenTimeout: time.Minute}, nil)
	for i := 0; i < 3; i++ {
		_, err := b.FetchCloses(context.Background(), "A", day(1), day(31))
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreakerProvider_PassesThrough(t *testing.T) {
	b := NewBreakerProvider("naver", sampleProvider(), DefaultBreakerConfig(), nil)

	closes, err := b.FetchCloses(context.Background(), "B", day(1), day(31))
	require.NoError(t, err)
	assert.Len(t, closes, 4)

	rate, err := b.RiskFreeRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.031, rate)
}
