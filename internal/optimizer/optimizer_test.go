package optimizer

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/stats"
)

const weightTol = 1e-3

// annualStats builds statistics directly from annual moments (P = 1)
func annualStats(t *testing.T, mean []float64, cov []float64, rf float64) *stats.Statistics {
	t.Helper()

	n := len(mean)
	assets := make([]string, n)
	for i := range assets {
		assets[i] = string(rune('A' + i))
	}

	cfg := stats.DefaultConfig()
	cfg.PeriodsPerYear = 1

	s, err := stats.FromMoments(assets, mean, mat.NewSymDense(n, cov), rf, cfg)
	require.NoError(t, err)
	return s
}

func twoAsset(t *testing.T) *Optimizer {
	return New(annualStats(t,
		[]float64{0.12, 0.08},
		[]float64{
			0.04, 0.01,
			0.01, 0.03,
		}, 0), DefaultConfig())
}

func threeAsset(t *testing.T) *Optimizer {
	return New(annualStats(t,
		[]float64{0.06, 0.10, 0.14},
		[]float64{
			0.02, 0.004, 0.002,
			0.004, 0.05, 0.01,
			0.002, 0.01, 0.09,
		}, 0.02), DefaultConfig())
}

func assertFeasible(t *testing.T, r *contracts.PortfolioResult) {
	t.Helper()
	assert.InDelta(t, 1.0, floats.Sum(r.Weights), 1e-9)
	for i, w := range r.Weights {
		assert.GreaterOrEqual(t, w, 0.0, "weight %d", i)
		assert.LessOrEqual(t, w, 1.0, "weight %d", i)
	}
}

func TestMinVariance_TwoAssetClosedForm(t *testing.T) {
	o := twoAsset(t)

	r, err := o.MinVariance()
	require.NoError(t, err)
	assertFeasible(t, r)

	// w1 = (σ2² − σ12) / (σ1² + σ2² − 2σ12) = 0.02 / 0.05
	assert.Equal(t, contracts.ProblemMinVariance, r.Problem)
	assert.InDelta(t, 0.4, r.Weights[0], weightTol)
	assert.InDelta(t, 0.6, r.Weights[1], weightTol)
	assert.Equal(t, []string{"A", "B"}, r.Assets)

	// 성과는 Evaluate 결과와 같아야 함
	assert.Equal(t, o.Statistics().Evaluate(r.Weights), r.Performance)
}

func TestMaxSharpe_TwoAssetTangency(t *testing.T) {
	o := twoAsset(t)

	r, err := o.MaxSharpe()
	require.NoError(t, err)
	assertFeasible(t, r)

	// Σ⁻¹μ ∝ (0.0028, 0.0020)
	assert.Equal(t, contracts.ProblemMaxSharpe, r.Problem)
	assert.InDelta(t, 7.0/12.0, r.Weights[0], weightTol)
	assert.InDelta(t, 5.0/12.0, r.Weights[1], weightTol)
}

func TestTargetReturn_TwoAsset(t *testing.T) {
	o := twoAsset(t)

	r, err := o.TargetReturn(0.10)
	require.NoError(t, err)
	assertFeasible(t, r)

	assert.Equal(t, contracts.ProblemTargetReturn, r.Problem)
	assert.InDelta(t, 0.5, r.Weights[0], weightTol)
	assert.InDelta(t, 0.10, r.Return, 1e-6)
}

func TestTargetReturn_RejectsNonFinite(t *testing.T) {
	o := twoAsset(t)

	_, err := o.TargetReturn(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = o.TargetReturn(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOptimizer_Dominance(t *testing.T) {
	o := threeAsset(t)

	maxSharpe, err := o.MaxSharpe()
	require.NoError(t, err)
	minVar, err := o.MinVariance()
	require.NoError(t, err)

	assertFeasible(t, maxSharpe)
	assertFeasible(t, minVar)

	uniform := o.Statistics().Evaluate([]float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	assert.GreaterOrEqual(t, maxSharpe.Sharpe, uniform.Sharpe-1e-9)
	assert.GreaterOrEqual(t, maxSharpe.Sharpe, minVar.Sharpe-1e-9)
	assert.LessOrEqual(t, minVar.Volatility, uniform.Volatility+1e-9)
	assert.LessOrEqual(t, minVar.Volatility, maxSharpe.Volatility+1e-9)
}

func TestOptimizer_SingleAsset(t *testing.T) {
	o := New(annualStats(t, []float64{0.08}, []float64{0.04}, 0.02), DefaultConfig())

	r, err := o.MaxSharpe()
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, r.Weights)
	assert.InDelta(t, 0.3, r.Sharpe, 1e-12)

	r, err = o.MinVariance()
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, r.Weights)

	r, err = o.TargetReturn(0.08)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, r.Weights)

	_, err = o.TargetReturn(0.10)
	assert.ErrorIs(t, err, ErrOptimizationDidNotConverge)
}

func TestOptimizer_IterationLimitIsConvergenceError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1

	o := New(twoAsset(t).Statistics(), cfg)

	_, err := o.MinVariance()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOptimizationDidNotConverge)

	var convErr *ConvergenceError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, contracts.ProblemMinVariance, convErr.Problem)
	assert.Equal(t, "IterationLimit", convErr.Status)
	assert.Contains(t, convErr.Error(), "min_variance")
}

func TestConvergenceError_Message(t *testing.T) {
	err := &ConvergenceError{
		Problem: contracts.ProblemTargetReturn,
		Target:  0.25,
		Status:  "failure",
		Message: "boom",
	}
	assert.Contains(t, err.Error(), "target_return")
	assert.Contains(t, err.Error(), "0.25")
	assert.Contains(t, err.Error(), "boom")
}

// =============================================================================
// Efficient Frontier
// =============================================================================

func TestEfficientFrontier(t *testing.T) {
	o := threeAsset(t)
	const n = 12

	frontier, err := o.EfficientFrontier(context.Background(), n)
	require.NoError(t, err)

	// 양 끝점(단일 자산 코너)은 수렴 실패로 빠질 수 있음
	require.GreaterOrEqual(t, len(frontier), n-2)
	require.LessOrEqual(t, len(frontier), n)

	assert.True(t, sort.SliceIsSorted(frontier, func(i, j int) bool {
		return frontier[i].TargetReturn < frontier[j].TargetReturn
	}))

	maxSharpe, err := o.MaxSharpe()
	require.NoError(t, err)
	minVar, err := o.MinVariance()
	require.NoError(t, err)

	for _, p := range frontier {
		assert.InDelta(t, p.TargetReturn, p.Return, 1e-4)
		assert.GreaterOrEqual(t, p.Volatility, minVar.Volatility-1e-6)
		assert.LessOrEqual(t, p.Sharpe, maxSharpe.Sharpe+1e-6)
		assert.GreaterOrEqual(t, p.TargetReturn, 0.06-1e-12)
		assert.LessOrEqual(t, p.TargetReturn, 0.14+1e-12)
	}

	// 최소 분산점 위쪽(효율적 구간)은 변동성 단조 증가, 아래쪽은 단조 감소
	const tol = 1e-6
	for i := 1; i < len(frontier); i++ {
		prev, cur := frontier[i-1], frontier[i]
		switch {
		case prev.Return >= minVar.Return:
			assert.GreaterOrEqual(t, cur.Volatility, prev.Volatility-tol,
				"volatility fell between targets %.4f and %.4f", prev.TargetReturn, cur.TargetReturn)
		case cur.Return <= minVar.Return:
			assert.LessOrEqual(t, cur.Volatility, prev.Volatility+tol,
				"volatility rose between targets %.4f and %.4f", prev.TargetReturn, cur.TargetReturn)
		}
	}
}

func TestFrontierTargets(t *testing.T) {
	o := threeAsset(t)

	targets := o.FrontierTargets(5)
	require.Len(t, targets, 5)
	assert.InDelta(t, 0.06, targets[0], 1e-15)
	assert.InDelta(t, 0.08, targets[1], 1e-15)
	assert.InDelta(t, 0.14, targets[4], 1e-15)

	assert.Equal(t, []float64{0.06}, o.FrontierTargets(1))
}

func TestEfficientFrontier_InvalidPoints(t *testing.T) {
	o := twoAsset(t)

	_, err := o.EfficientFrontier(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEfficientFrontier_Cancelled(t *testing.T) {
	o := twoAsset(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.EfficientFrontier(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamFrontier_CallbackPerPoint(t *testing.T) {
	o := twoAsset(t)

	var mu sync.Mutex
	var streamed []contracts.FrontierPoint

	frontier, err := o.StreamFrontier(context.Background(), 6, func(p contracts.FrontierPoint) {
		mu.Lock()
		defer mu.Unlock()
		streamed = append(streamed, p)
	})
	require.NoError(t, err)
	assert.Len(t, streamed, len(frontier))
	assert.ElementsMatch(t, frontier, streamed)
}

type recordingObserver struct {
	mu    sync.Mutex
	calls map[contracts.Problem]int
}

func (r *recordingObserver) ObserveSolve(problem contracts.Problem, converged bool, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[problem]++
}

func TestOptimizer_Observer(t *testing.T) {
	obs := &recordingObserver{calls: map[contracts.Problem]int{}}
	o := New(twoAsset(t).Statistics(), DefaultConfig(), WithObserver(obs), WithLogger(nil))

	_, err := o.MaxSharpe()
	require.NoError(t, err)
	_, err = o.EfficientFrontier(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, 1, obs.calls[contracts.ProblemMaxSharpe])
	assert.Equal(t, 4, obs.calls[contracts.ProblemTargetReturn])
}

func TestFromEngine(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, cfg.MaxIterations)
	assert.Equal(t, 1e-8, cfg.FeasibilityTol)
	assert.Equal(t, 4, cfg.FrontierWorkers)
}
