package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/frontier/internal/capm"
	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/internal/risk"
	"github.com/wonny/frontier/pkg/logger"
)

const (
	// MinReportedWeight 이 비중 이하는 배분 목록에서 생략 (0.1%)
	MinReportedWeight = 0.001
	// FrontierSampleCount 리포트에 싣는 frontier 샘플 수
	FrontierSampleCount = 5

	defaultMarketVarianceFloor = 1e-10
)

// CMLRiskLevels 리포트의 CML 변동성 단계 (연율)
var CMLRiskLevels = []float64{0.10, 0.15, 0.20, 0.25, 0.30}

// =============================================================================
// Report model
// =============================================================================

// Report is the full analysis of one asset universe
// 수익률/변동성/Sharpe는 모두 연율 (원본 기간 값은 AssetStat에 함께 보관)
type Report struct {
	Name           string    `json:"name"`
	GeneratedAt    time.Time `json:"generated_at"`
	PeriodsPerYear float64   `json:"periods_per_year"`
	RiskFreeRate   float64   `json:"risk_free_rate"`
	Periods        int       `json:"periods"`

	Assets           []AssetStat        `json:"assets"`
	Correlation      CorrelationSummary `json:"correlation"`
	AnnualCovariance [][]float64        `json:"annual_covariance"`
	ConditionNumber  float64            `json:"condition_number"`

	MaxSharpe   PortfolioSummary `json:"max_sharpe"`
	MinVariance PortfolioSummary `json:"min_variance"`

	CML       *capm.CapitalMarketLine `json:"cml"`
	CMLPoints []contracts.CMLPoint    `json:"cml_points"`

	Frontier       contracts.Frontier `json:"frontier"` // 연율, 전체
	FrontierSample contracts.Frontier `json:"frontier_sample"`

	SML []contracts.SMLRecord `json:"sml,omitempty"`

	Insights Insights `json:"insights"`
}

// AssetStat is one asset's return/risk in both units
type AssetStat struct {
	Asset            string  `json:"asset"`
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	PeriodReturn     float64 `json:"period_return"`
	PeriodVolatility float64 `json:"period_volatility"`
}

// CorrelationSummary is taken over the upper triangle (i < j)
type CorrelationSummary struct {
	Matrix  [][]float64 `json:"matrix"`
	Highest float64     `json:"highest"`
	Lowest  float64     `json:"lowest"`
	Average float64     `json:"average"`
}

// PortfolioSummary is an optimal portfolio for display
type PortfolioSummary struct {
	Problem     contracts.Problem      `json:"problem"`
	Allocations []contracts.Allocation `json:"allocations"` // > MinReportedWeight, 내림차순
	Weights     map[string]float64     `json:"weights"`
	Annual      contracts.Performance  `json:"annual"`
	Risk        *risk.Assessment       `json:"risk,omitempty"` // 기간 단위 VaR
}

// =============================================================================
// Analyzer
// =============================================================================

// Options controls one analysis run
type Options struct {
	Name                string
	FrontierPoints      int
	MarketProxy         []float64 // nil이면 SML 생략, series와 같은 기간 수
	MarketVarianceFloor float64   // 0이면 1e-10
	Confidences         []float64 // nil이면 risk.DefaultConfidenceLevels
}

// Analyzer assembles reports from an optimizer and its return series
type Analyzer struct {
	opt    *optimizer.Optimizer
	series *returns.Series
	logger *logger.Logger
	now    func() time.Time
}

// NewAnalyzer creates an analyzer; series must be the one the optimizer's statistics came from
func NewAnalyzer(opt *optimizer.Optimizer, series *returns.Series, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{
		opt:    opt,
		series: series,
		logger: log,
		now:    time.Now,
	}
}

// Run builds the full report
// Fail-closed: max-Sharpe/min-variance 미수렴은 에러 (frontier 점 실패는 생략)
func (a *Analyzer) Run(ctx context.Context, opts Options) (*Report, error) {
	s := a.opt.Statistics()
	p := s.PeriodsPerYear()

	maxSharpe, err := a.opt.MaxSharpe()
	if err != nil {
		return nil, fmt.Errorf("max sharpe: %w", err)
	}
	minVar, err := a.opt.MinVariance()
	if err != nil {
		return nil, fmt.Errorf("min variance: %w", err)
	}

	frontier, err := a.opt.EfficientFrontier(ctx, opts.FrontierPoints)
	if err != nil {
		return nil, fmt.Errorf("efficient frontier: %w", err)
	}

	cml := capm.NewCapitalMarketLine(maxSharpe.Performance, s.RiskFreeRate(), p)

	report := &Report{
		Name:             opts.Name,
		GeneratedAt:      a.now(),
		PeriodsPerYear:   p,
		RiskFreeRate:     s.RiskFreeRate(),
		Assets:           assetStats(s.Assets(), s.Mean(), s.StdDev(), p),
		Correlation:      summarizeCorrelation(toRows(s.Correlation())),
		AnnualCovariance: toRows(s.AnnualizedCovariance()),
		ConditionNumber:  s.ConditionNumber(),
		CML:              cml,
		CMLPoints:        cml.Points(CMLRiskLevels),
		Frontier:         frontier.Annualized(p),
	}
	report.FrontierSample = report.Frontier.Sample(FrontierSampleCount)

	if a.series != nil {
		report.Periods = a.series.Len()
	}

	if report.MaxSharpe, err = a.summarize(maxSharpe, p, opts.Confidences); err != nil {
		return nil, err
	}
	if report.MinVariance, err = a.summarize(minVar, p, opts.Confidences); err != nil {
		return nil, err
	}

	if opts.MarketProxy != nil && a.series != nil {
		// 시장 = 대리지표의 평균/표준편차, 무위험수익률도 기간 단위 (alpha도 기간 단위)
		marketReturn, marketVol := stat.MeanStdDev(opts.MarketProxy, nil)
		floor := opts.MarketVarianceFloor
		if floor <= 0 {
			floor = defaultMarketVarianceFloor
		}
		sml := capm.NewSecurityMarketLine(marketReturn, marketVol, s.PeriodRiskFreeRate(), floor)
		report.SML, err = sml.AnalyzeAssets(a.series, opts.MarketProxy)
		if err != nil {
			return nil, fmt.Errorf("sml: %w", err)
		}
	}

	report.Insights = buildInsights(report)

	a.logger.WithFields(map[string]interface{}{
		"name":            opts.Name,
		"assets":          len(report.Assets),
		"frontier_points": len(report.Frontier),
		"max_sharpe":      report.MaxSharpe.Annual.Sharpe,
	}).Info("analysis report built")

	return report, nil
}

func (a *Analyzer) summarize(r *contracts.PortfolioResult, p float64, confidences []float64) (PortfolioSummary, error) {
	summary := PortfolioSummary{
		Problem:     r.Problem,
		Allocations: r.Allocations(MinReportedWeight),
		Weights:     r.WeightMap(),
		Annual:      r.Performance.Annualized(p),
	}

	if a.series != nil {
		assessment, err := risk.Assess(a.series, r.Weights, confidences)
		if err != nil {
			return summary, fmt.Errorf("%s risk: %w", r.Problem, err)
		}
		summary.Risk = assessment
	}
	return summary, nil
}

func assetStats(assets []string, mean, std []float64, p float64) []AssetStat {
	out := make([]AssetStat, len(assets))
	for i, asset := range assets {
		out[i] = AssetStat{
			Asset:            asset,
			AnnualReturn:     mean[i] * p,
			AnnualVolatility: std[i] * math.Sqrt(p),
			PeriodReturn:     mean[i],
			PeriodVolatility: std[i],
		}
	}
	return out
}

// summarizeCorrelation 상삼각(i<j) 원소의 최대/최소/평균
// 자산이 하나면 모두 0
func summarizeCorrelation(corr [][]float64) CorrelationSummary {
	summary := CorrelationSummary{Matrix: corr}

	count := 0
	sum := 0.0
	for i := range corr {
		for j := i + 1; j < len(corr); j++ {
			v := corr[i][j]
			if count == 0 || v > summary.Highest {
				summary.Highest = v
			}
			if count == 0 || v < summary.Lowest {
				summary.Lowest = v
			}
			sum += v
			count++
		}
	}
	if count > 0 {
		summary.Average = sum / float64(count)
	}
	return summary
}

// toRows copies a symmetric matrix into nested slices (JSON 직렬화용)
func toRows(m mat.Symmetric) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
