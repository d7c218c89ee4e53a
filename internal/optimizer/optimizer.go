package optimizer

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/nlp"
	"github.com/wonny/frontier/internal/stats"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/logger"
)

// Config holds solver and frontier settings
// ⭐ SSOT: config.EngineConfig에서 주입
type Config struct {
	MaxIterations   int     // 외부 반복 한도
	FeasibilityTol  float64 // 제약 위반 허용치
	FunctionTol     float64 // 목적함수 수렴 허용치
	FrontierWorkers int     // frontier 병렬 solve 수
}

// FromEngine extracts the optimizer settings from the engine config
func FromEngine(e config.EngineConfig) Config {
	return Config{
		MaxIterations:   e.SolverMaxIterations,
		FeasibilityTol:  e.SolverFeasibilityTol,
		FunctionTol:     e.SolverFunctionTol,
		FrontierWorkers: e.FrontierWorkers,
	}
}

// DefaultConfig returns the optimizer defaults
func DefaultConfig() Config {
	return FromEngine(config.DefaultEngine())
}

// Observer receives one call per solve (frontier points included)
type Observer interface {
	ObserveSolve(problem contracts.Problem, converged bool, elapsed time.Duration)
}

// FrontierObserver is optionally implemented by an Observer
type FrontierObserver interface {
	ObserveFrontier(points int)
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithLogger sets the logger (default: discard)
func WithLogger(l *logger.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver sets the solve observer
func WithObserver(obs Observer) Option {
	return func(o *Optimizer) { o.observer = obs }
}

// Optimizer solves the long-only, fully-invested mean-variance problems
// ⭐ SSOT: 공통 제약 Σw = 1, 0 ≤ w_i ≤ 1
// 시작점은 항상 균등 비중 (1/n, …, 1/n)
// Statistics가 불변이므로 여러 goroutine에서 동시에 호출 가능
type Optimizer struct {
	stats    *stats.Statistics
	cfg      Config
	logger   *logger.Logger
	observer Observer
}

// New creates an optimizer over a statistics basis
func New(s *stats.Statistics, cfg Config, opts ...Option) *Optimizer {
	o := &Optimizer{
		stats:  s,
		cfg:    cfg,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Statistics returns the statistics basis
func (o *Optimizer) Statistics() *stats.Statistics {
	return o.stats
}

// =============================================================================
// Problem families
// =============================================================================

// MaxSharpe minimizes −sharpe(w)
func (o *Optimizer) MaxSharpe() (*contracts.PortfolioResult, error) {
	return o.solve(contracts.ProblemMaxSharpe, 0, o.negSharpe, o.negSharpeGrad, nil)
}

// MinVariance minimizes volatility(w)
func (o *Optimizer) MinVariance() (*contracts.PortfolioResult, error) {
	return o.solve(contracts.ProblemMinVariance, 0, o.volatility, o.volatilityGrad, nil)
}

// TargetReturn minimizes volatility(w) subject to Σ w_i·μ_i = target
func (o *Optimizer) TargetReturn(target float64) (*contracts.PortfolioResult, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, fmt.Errorf("%w: target return %v", ErrInvalidInput, target)
	}

	mean := o.stats.Mean()
	// 제약 스케일링: 일간 수익률 단위(1e-4)에서도 예산 제약과 비슷한 크기가 되도록
	scale := spread(mean)
	if scale <= 0 {
		scale = 1
	}

	targetConstraint := nlp.Constraint{
		Func: func(w []float64) float64 {
			return (o.stats.PortfolioReturn(w) - target) / scale
		},
		Grad: func(grad, w []float64) {
			for i := range grad {
				grad[i] = mean[i] / scale
			}
		},
	}

	return o.solve(contracts.ProblemTargetReturn, target, o.volatility, o.volatilityGrad, []nlp.Constraint{targetConstraint})
}

// =============================================================================
// Solve
// =============================================================================

func (o *Optimizer) solve(
	problem contracts.Problem,
	target float64,
	f func([]float64) float64,
	grad func(grad, w []float64),
	extra []nlp.Constraint,
) (result *contracts.PortfolioResult, err error) {
	start := time.Now()
	defer func() {
		if o.observer != nil {
			o.observer.ObserveSolve(problem, err == nil, time.Since(start))
		}
	}()

	n := o.stats.NumAssets()

	// 자산이 하나면 w = (1) 이 유일한 실현가능해
	if n == 1 {
		w := []float64{1}
		if problem == contracts.ProblemTargetReturn {
			if math.Abs(o.stats.PortfolioReturn(w)-target) > o.cfg.FeasibilityTol*math.Max(1, math.Abs(target)) {
				return nil, &ConvergenceError{
					Problem: problem,
					Target:  target,
					Status:  nlp.Failure.String(),
					Message: "target return is not reachable with a single asset",
				}
			}
		}
		return o.result(problem, w), nil
	}

	x0 := make([]float64, n)
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range x0 {
		x0[i] = 1 / float64(n)
		upper[i] = 1
	}

	budget := nlp.Constraint{
		Func: func(w []float64) float64 {
			sum := 0.0
			for _, v := range w {
				sum += v
			}
			return sum - 1
		},
		Grad: func(grad, w []float64) {
			for i := range grad {
				grad[i] = 1
			}
		},
	}

	p := nlp.Problem{
		Dim:      n,
		Func:     f,
		Grad:     grad,
		Equality: append([]nlp.Constraint{budget}, extra...),
		Lower:    lower,
		Upper:    upper,
	}

	res, err := nlp.Minimize(p, x0, &nlp.Settings{
		MaxIterations:  o.cfg.MaxIterations,
		FeasibilityTol: o.cfg.FeasibilityTol,
		FunctionTol:    o.cfg.FunctionTol,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", problem, err)
	}

	log := o.logger.WithFields(map[string]interface{}{
		"problem":    problem.String(),
		"status":     res.Status.String(),
		"iterations": res.Iterations,
		"inner":      res.InnerIterations,
		"violation":  res.Violation,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if res.Status != nlp.Success {
		log.Debug("optimization did not converge")
		return nil, &ConvergenceError{
			Problem: problem,
			Target:  target,
			Status:  res.Status.String(),
			Message: res.Message,
		}
	}

	log.Debug("optimization converged")
	return o.result(problem, normalize(res.X)), nil
}

// result evaluates the weight vector into a PortfolioResult
func (o *Optimizer) result(problem contracts.Problem, w []float64) *contracts.PortfolioResult {
	return &contracts.PortfolioResult{
		Problem:     problem,
		Assets:      o.stats.Assets(),
		Weights:     w,
		Performance: o.stats.Evaluate(w),
	}
}

// normalize clips to [0, 1] and rescales to Σw = 1
// 수렴한 해의 Σw 오차는 FeasibilityTol 이내이므로 성과 변화는 무시 가능
func normalize(x []float64) []float64 {
	w := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		w[i] = math.Min(math.Max(v, 0), 1)
		sum += w[i]
	}
	if sum > 0 {
		for i := range w {
			w[i] /= sum
		}
	}
	return w
}

func spread(values []float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}
