package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/frontier/internal/contracts"
)

// =============================================================================
// Portfolio Evaluator (Pure)
// =============================================================================

// Evaluate maps a weight vector to (return, volatility, sharpe)
// ⭐ SSOT: 모든 포트폴리오 성과는 이 함수로 계산
// Σw = 1 을 요구하지 않음 (제약 충족은 호출자 책임)
// len(weights) != NumAssets 이면 panic (gonum shape 규약)
func (s *Statistics) Evaluate(weights []float64) contracts.Performance {
	ret := s.PortfolioReturn(weights)
	vol := s.Volatility(weights)

	sharpe := 0.0
	if vol >= s.cfg.VolatilityFloor {
		sharpe = (ret - s.periodRF) / vol
	}

	return contracts.Performance{
		Return:     ret,
		Volatility: vol,
		Sharpe:     sharpe,
	}
}

// PortfolioReturn returns Σ w_i · μ_i
func (s *Statistics) PortfolioReturn(weights []float64) float64 {
	if len(weights) != len(s.mean) {
		panic(mat.ErrShape)
	}
	ret := 0.0
	for i, w := range weights {
		ret += w * s.mean[i]
	}
	return ret
}

// Variance returns wᵗΣw clipped at 0
// 부동소수점 잡음으로 음수가 나와도 sqrt에 전달하지 않음
func (s *Statistics) Variance(weights []float64) float64 {
	w := mat.NewVecDense(len(weights), weights)
	return math.Max(mat.Inner(w, s.cov, w), 0)
}

// Volatility returns sqrt(Variance)
func (s *Statistics) Volatility(weights []float64) float64 {
	return math.Sqrt(s.Variance(weights))
}

// CovTimes writes Σw into dst (gradient building block)
func (s *Statistics) CovTimes(dst, weights []float64) {
	out := mat.NewVecDense(len(dst), dst)
	out.MulVec(s.cov, mat.NewVecDense(len(weights), weights))
}
