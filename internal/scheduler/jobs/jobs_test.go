package jobs

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC)

type fakeLoader struct {
	err        error
	codes      []string
	marketCode string
	from, to   time.Time
}

func (f *fakeLoader) rows() [][]float64 {
	rows := make([][]float64, 120)
	for i := range rows {
		x := float64(i)
		rows[i] = []float64{
			0.0010 + 0.010*math.Sin(x),
			0.0008 + 0.012*math.Cos(1.3*x),
			0.0012 + 0.015*math.Sin(0.7*x+1),
		}
	}
	return rows
}

func (f *fakeLoader) LoadSeries(_ context.Context, codes []string, from, to time.Time) (*returns.Series, error) {
	f.codes, f.from, f.to = codes, from, to
	if f.err != nil {
		return nil, f.err
	}
	return returns.NewSeries(codes, nil, f.rows())
}

func (f *fakeLoader) LoadWithMarket(ctx context.Context, codes []string, marketCode string, from, to time.Time) (*returns.Series, []float64, error) {
	f.marketCode = marketCode
	series, err := f.LoadSeries(ctx, codes, from, to)
	if err != nil {
		return nil, nil, err
	}
	market := make([]float64, series.Len())
	for i, row := range f.rows() {
		market[i] = (row[0] + row[1] + row[2]) / 3
	}
	return series, market, nil
}

func (f *fakeLoader) RiskFreeRate(context.Context, float64) float64 { return 0.035 }

func (f *fakeLoader) LoadCloses(_ context.Context, codes []string, from, to time.Time) (map[string][]contracts.ClosePrice, error) {
	f.codes, f.from, f.to = codes, from, to
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][]contracts.ClosePrice, len(codes))
	for _, c := range codes {
		out[c] = []contracts.ClosePrice{{Code: c, Date: to, Close: 100}}
	}
	return out, nil
}

type memRuns struct {
	runs []contracts.OptimizationRun
	err  error
}

func (m *memRuns) SaveRun(_ context.Context, run *contracts.OptimizationRun) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.runs = append(m.runs, *run)
	return int64(len(m.runs)), nil
}

func (m *memRuns) ListRuns(context.Context, int) ([]contracts.OptimizationRun, error) {
	return m.runs, nil
}

func testConfig(codes []string, market string) *config.Config {
	return &config.Config{
		Engine: config.DefaultEngine(),
		Schedule: config.ScheduleConfig{
			Cron:         "0 30 18 * * 1-5",
			Codes:        codes,
			MarketCode:   market,
			LookbackDays: 365,
		},
	}
}

// =============================================================================
// ReoptimizeJob
// =============================================================================

func TestReoptimizeJob_SavesBothPortfolios(t *testing.T) {
	loader := &fakeLoader{}
	runs := &memRuns{}
	job := NewReoptimizeJob(loader, runs, testConfig([]string{"A", "B", "C"}, ""), logger.Nop())
	job.now = func() time.Time { return fixedNow }

	assert.Equal(t, "reoptimize", job.Name())
	assert.Equal(t, "0 30 18 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, fixedNow, loader.to)
	assert.Equal(t, fixedNow.AddDate(0, 0, -365), loader.from)
	assert.Empty(t, loader.marketCode)

	require.Len(t, runs.runs, 2)
	assert.Equal(t, contracts.ProblemMaxSharpe, runs.runs[0].Result.Problem)
	assert.Equal(t, contracts.ProblemMinVariance, runs.runs[1].Result.Problem)
	for _, r := range runs.runs {
		assert.Equal(t, 0.035, r.RiskFreeRate)
		assert.Equal(t, 252.0, r.PeriodsPerYear)
		assert.InDelta(t, 1.0, r.Result.TotalWeight(), 1e-6)
	}
}

func TestReoptimizeJob_WithMarket(t *testing.T) {
	loader := &fakeLoader{}
	job := NewReoptimizeJob(loader, nil, testConfig([]string{"A", "B", "C"}, "KOSPI"), logger.Nop())
	job.now = func() time.Time { return fixedNow }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "KOSPI", loader.marketCode)
}

func TestReoptimizeJob_Errors(t *testing.T) {
	job := NewReoptimizeJob(&fakeLoader{}, nil, testConfig(nil, ""), logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), ErrNoCodes)

	boom := errors.New("naver down")
	job = NewReoptimizeJob(&fakeLoader{err: boom}, nil, testConfig([]string{"A", "B"}, ""), logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), boom)

	dbErr := errors.New("db down")
	job = NewReoptimizeJob(&fakeLoader{}, &memRuns{err: dbErr}, testConfig([]string{"A", "B", "C"}, ""), logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), dbErr)
}

// =============================================================================
// PriceSyncJob
// =============================================================================

func TestPriceSyncJob(t *testing.T) {
	loader := &fakeLoader{}
	job := NewPriceSyncJob(loader, testConfig([]string{"A", "B"}, "KOSPI"), logger.Nop())
	job.now = func() time.Time { return fixedNow }

	assert.Equal(t, "price_sync", job.Name())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{"A", "B", "KOSPI"}, loader.codes)
	assert.Equal(t, fixedNow.AddDate(0, 0, -syncWindowDays), loader.from)
}

func TestPriceSyncJob_Errors(t *testing.T) {
	job := NewPriceSyncJob(&fakeLoader{}, testConfig(nil, ""), logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), ErrNoCodes)

	boom := errors.New("naver down")
	job = NewPriceSyncJob(&fakeLoader{err: boom}, testConfig([]string{"A"}, ""), logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), boom)
}
