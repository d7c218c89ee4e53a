package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/frontier/internal/analysis"
	"github.com/wonny/frontier/internal/capm"
	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/internal/stats"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/logger"
)

// ErrNoCodes 재계산 대상 종목이 설정되지 않음
var ErrNoCodes = errors.New("no codes configured")

// SeriesLoader loads aligned return series (*marketdata.Loader)
type SeriesLoader interface {
	LoadSeries(ctx context.Context, codes []string, from, to time.Time) (*returns.Series, error)
	LoadWithMarket(ctx context.Context, codes []string, marketCode string, from, to time.Time) (*returns.Series, []float64, error)
	RiskFreeRate(ctx context.Context, fallback float64) float64
}

// ReoptimizeJob recomputes the optimal portfolios of the configured universe
// ⭐ SSOT: 정기 재최적화는 이 Job에서만
type ReoptimizeJob struct {
	loader   SeriesLoader
	runs     contracts.RunRepository // nil이면 저장 생략
	engine   config.EngineConfig
	schedule config.ScheduleConfig
	observer optimizer.Observer
	logger   *logger.Logger
	now      func() time.Time
}

// NewReoptimizeJob creates a new re-optimization job
func NewReoptimizeJob(loader SeriesLoader, runs contracts.RunRepository, cfg *config.Config, log *logger.Logger) *ReoptimizeJob {
	return &ReoptimizeJob{
		loader:   loader,
		runs:     runs,
		engine:   cfg.Engine,
		schedule: cfg.Schedule,
		logger:   log,
		now:      time.Now,
	}
}

// WithObserver attaches a solve observer (metrics)
func (j *ReoptimizeJob) WithObserver(obs optimizer.Observer) *ReoptimizeJob {
	j.observer = obs
	return j
}

// Name returns the job name
func (j *ReoptimizeJob) Name() string {
	return "reoptimize"
}

// Schedule returns the cron schedule (SCHEDULE_CRON, 기본 평일 18:30)
func (j *ReoptimizeJob) Schedule() string {
	return j.schedule.Cron
}

// Run loads the lookback window and saves the max-Sharpe and min-variance runs
func (j *ReoptimizeJob) Run(ctx context.Context) error {
	codes := j.schedule.Codes
	if len(codes) == 0 {
		return ErrNoCodes
	}

	to := j.now()
	from := to.AddDate(0, 0, -j.schedule.LookbackDays)

	j.logger.WithFields(map[string]interface{}{
		"codes": len(codes),
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
	}).Info("Starting scheduled re-optimization")

	var series *returns.Series
	var market []float64
	var err error
	if j.schedule.MarketCode != "" {
		series, market, err = j.loader.LoadWithMarket(ctx, codes, j.schedule.MarketCode, from, to)
	} else {
		series, err = j.loader.LoadSeries(ctx, codes, from, to)
	}
	if err != nil {
		return fmt.Errorf("load series: %w", err)
	}

	rf := j.loader.RiskFreeRate(ctx, j.engine.RiskFreeRate)

	st, err := stats.New(series, rf, stats.FromEngine(j.engine))
	if err != nil {
		return fmt.Errorf("statistics: %w", err)
	}

	opts := []optimizer.Option{optimizer.WithLogger(j.logger)}
	if j.observer != nil {
		opts = append(opts, optimizer.WithObserver(j.observer))
	}
	opt := optimizer.New(st, optimizer.FromEngine(j.engine), opts...)

	maxSharpe, err := opt.MaxSharpe()
	if err != nil {
		return fmt.Errorf("max sharpe: %w", err)
	}
	minVar, err := opt.MinVariance()
	if err != nil {
		return fmt.Errorf("min variance: %w", err)
	}

	for _, res := range []*contracts.PortfolioResult{maxSharpe, minVar} {
		if err := j.save(ctx, res, rf); err != nil {
			return err
		}
	}

	annual := maxSharpe.Annualized(j.engine.PeriodsPerYear)
	fields := map[string]interface{}{
		"assets":         len(codes),
		"periods":        series.Len(),
		"risk_free_rate": rf,
		"annual_return":  annual.Return,
		"annual_vol":     annual.Volatility,
		"annual_sharpe":  annual.Sharpe,
		"recommendation": analysis.ClassifySharpe(annual.Sharpe),
	}

	if market != nil {
		undervalued, err := j.countUndervalued(series, market, st.PeriodRiskFreeRate())
		if err != nil {
			return fmt.Errorf("sml: %w", err)
		}
		fields["undervalued"] = undervalued
	}

	j.logger.WithFields(fields).Info("Scheduled re-optimization completed")
	return nil
}

func (j *ReoptimizeJob) save(ctx context.Context, res *contracts.PortfolioResult, rf float64) error {
	if j.runs == nil {
		return nil
	}
	run := &contracts.OptimizationRun{
		Result:         *res,
		RiskFreeRate:   rf,
		PeriodsPerYear: j.engine.PeriodsPerYear,
	}
	if _, err := j.runs.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save %s run: %w", res.Problem, err)
	}
	return nil
}

// countUndervalued runs the SML over the universe (기간 단위)
func (j *ReoptimizeJob) countUndervalued(series *returns.Series, market []float64, periodRF float64) (int, error) {
	marketReturn, marketVol := stat.MeanStdDev(market, nil)
	sml := capm.NewSecurityMarketLine(marketReturn, marketVol, periodRF, j.engine.MarketVarianceFloor)

	records, err := sml.AnalyzeAssets(series, market)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range records {
		if r.Valuation == contracts.Undervalued {
			count++
		}
	}
	return count, nil
}
