package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/pkg/config"
)

var (
	// ErrIllConditionedAssets 공분산 조건수가 임계값 초과 (중복/완전 공선 자산)
	ErrIllConditionedAssets = errors.New("ill-conditioned assets")
	ErrInsufficientData     = errors.New("insufficient data for statistics")
	ErrInvalidInput         = errors.New("invalid input")
)

// Config holds the numeric constants of the statistics basis
// ⭐ SSOT: 하드코딩 금지, config.EngineConfig에서 주입
type Config struct {
	PeriodsPerYear     float64 // P: 252 (일간), 12 (월간)
	ConditionThreshold float64 // 1e10
	VolatilityFloor    float64 // 1e-10
}

// DefaultConfig returns the daily-data defaults
func DefaultConfig() Config {
	return FromEngine(config.DefaultEngine())
}

// FromEngine extracts the statistics constants from the engine config
func FromEngine(e config.EngineConfig) Config {
	return Config{
		PeriodsPerYear:     e.PeriodsPerYear,
		ConditionThreshold: e.ConditionThreshold,
		VolatilityFloor:    e.VolatilityFloor,
	}
}

// Statistics is the immutable statistics basis of one asset universe
// ⭐ SSOT: 생성 시 한 번 계산, 이후 불변 (동시 읽기 안전)
// mean/cov/std는 입력 수익률과 같은 주기 (연율화는 표시 단계에서)
type Statistics struct {
	assets   []string
	mean     []float64
	cov      *mat.SymDense
	std      []float64
	corr     *mat.SymDense
	cond     float64
	annualRF float64
	periodRF float64
	cfg      Config
}

// New derives statistics from a return series
// annualRiskFree: 연율 무위험수익률 (0.045 = 4.5%), 기간 수익률 = annual / P
func New(series *returns.Series, annualRiskFree float64, cfg Config) (*Statistics, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", ErrInvalidInput)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if series.Len() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 periods, got %d", ErrInsufficientData, series.Len())
	}

	x := series.Matrix()
	n := series.NumAssets()

	mean := make([]float64, n)
	for i := 0; i < n; i++ {
		mean[i] = stat.Mean(series.Column(i), nil)
	}

	// 표본 공분산 (n-1)
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, x, nil)

	return build(series.Assets(), mean, cov, annualRiskFree, cfg)
}

// FromMoments builds statistics from precomputed moments (same periodicity as P implies)
// 테스트/외부 추정치 입력용: 연율 입력이면 P=1 사용
func FromMoments(assets []string, mean []float64, cov *mat.SymDense, annualRiskFree float64, cfg Config) (*Statistics, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	n := len(assets)
	if n == 0 || len(mean) != n || cov == nil || cov.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: %d assets, %d means", ErrInvalidInput, n, len(mean))
	}
	for i, m := range mean {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, fmt.Errorf("%w: mean of %s is %v", ErrInvalidInput, assets[i], m)
		}
	}

	c := mat.NewSymDense(n, nil)
	c.CopySym(cov)
	return build(append([]string(nil), assets...), append([]float64(nil), mean...), c, annualRiskFree, cfg)
}

func build(assets []string, mean []float64, cov *mat.SymDense, annualRiskFree float64, cfg Config) (*Statistics, error) {
	n := len(assets)

	// Fail-closed: 조건수 검사 (특이행렬이면 +Inf)
	cond := mat.Cond(cov, 2)
	if math.IsNaN(cond) || cond > cfg.ConditionThreshold {
		return nil, fmt.Errorf("%w: condition number %.3g exceeds %.3g", ErrIllConditionedAssets, cond, cfg.ConditionThreshold)
	}

	std := make([]float64, n)
	for i := 0; i < n; i++ {
		std[i] = math.Sqrt(math.Max(cov.At(i, i), 0))
	}

	// 조건수 검사를 통과했으므로 분산 > 0
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			corr.SetSym(i, j, cov.At(i, j)/(std[i]*std[j]))
		}
	}

	return &Statistics{
		assets:   assets,
		mean:     mean,
		cov:      cov,
		std:      std,
		corr:     corr,
		cond:     cond,
		annualRF: annualRiskFree,
		periodRF: annualRiskFree / cfg.PeriodsPerYear,
		cfg:      cfg,
	}, nil
}

func (c Config) validate() error {
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("%w: periods per year must be > 0, got %v", ErrInvalidInput, c.PeriodsPerYear)
	}
	if c.ConditionThreshold <= 1 {
		return fmt.Errorf("%w: condition threshold must be > 1, got %v", ErrInvalidInput, c.ConditionThreshold)
	}
	if c.VolatilityFloor < 0 {
		return fmt.Errorf("%w: volatility floor must be >= 0", ErrInvalidInput)
	}
	return nil
}

// =============================================================================
// Accessors (모두 복사본 반환)
// =============================================================================

// Assets returns asset names in weight order
func (s *Statistics) Assets() []string { return append([]string(nil), s.assets...) }

// NumAssets returns the number of assets
func (s *Statistics) NumAssets() int { return len(s.assets) }

// Mean returns the per-period mean return vector
func (s *Statistics) Mean() []float64 { return append([]float64(nil), s.mean...) }

// StdDev returns the per-period standard deviations
func (s *Statistics) StdDev() []float64 { return append([]float64(nil), s.std...) }

// Covariance returns a copy of the per-period covariance matrix
func (s *Statistics) Covariance() *mat.SymDense {
	c := mat.NewSymDense(len(s.assets), nil)
	c.CopySym(s.cov)
	return c
}

// Correlation returns a copy of the correlation matrix
func (s *Statistics) Correlation() *mat.SymDense {
	c := mat.NewSymDense(len(s.assets), nil)
	c.CopySym(s.corr)
	return c
}

// ConditionNumber returns the 2-norm condition number of the covariance
func (s *Statistics) ConditionNumber() float64 { return s.cond }

// RiskFreeRate returns the annual risk-free rate
func (s *Statistics) RiskFreeRate() float64 { return s.annualRF }

// PeriodRiskFreeRate returns the risk-free rate per period (annual / P)
func (s *Statistics) PeriodRiskFreeRate() float64 { return s.periodRF }

// PeriodsPerYear returns P
func (s *Statistics) PeriodsPerYear() float64 { return s.cfg.PeriodsPerYear }

// VolatilityFloor returns the Sharpe degeneracy floor
func (s *Statistics) VolatilityFloor() float64 { return s.cfg.VolatilityFloor }

// =============================================================================
// Annualized views (표시용)
// =============================================================================

// AnnualizedMean returns mean × P
func (s *Statistics) AnnualizedMean() []float64 {
	out := s.Mean()
	for i := range out {
		out[i] *= s.cfg.PeriodsPerYear
	}
	return out
}

// AnnualizedStdDev returns std × √P
func (s *Statistics) AnnualizedStdDev() []float64 {
	root := math.Sqrt(s.cfg.PeriodsPerYear)
	out := s.StdDev()
	for i := range out {
		out[i] *= root
	}
	return out
}

// AnnualizedCovariance returns cov × P
func (s *Statistics) AnnualizedCovariance() *mat.SymDense {
	c := s.Covariance()
	c.ScaleSym(s.cfg.PeriodsPerYear, c)
	return c
}
