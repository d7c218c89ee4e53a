package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wonny/frontier/internal/returns"
)

var (
	ErrInsufficientData = errors.New("insufficient data for risk assessment")
	ErrInvalidConfig    = errors.New("invalid risk configuration")
)

// =============================================================================
// Portfolio loss risk (Pure)
// =============================================================================

// PortfolioReturns 가중 합 수익률 시계열 r_t = Σ w_i · r_{t,i}
func PortfolioReturns(series *returns.Series, weights []float64) ([]float64, error) {
	if series == nil || series.Len() == 0 {
		return nil, ErrInsufficientData
	}
	if len(weights) != series.NumAssets() {
		return nil, fmt.Errorf("%w: %d weights for %d assets", ErrInvalidConfig, len(weights), series.NumAssets())
	}

	out := make([]float64, series.Len())
	for i, w := range weights {
		if w == 0 {
			continue
		}
		for t, r := range series.Column(i) {
			out[t] += w * r
		}
	}
	return out, nil
}

// Assess 포트폴리오의 과거/모수 VaR·CVaR 계산
// Fail-closed: 2기간 미만이면 에러
func Assess(series *returns.Series, weights []float64, confidences []float64) (*Assessment, error) {
	if len(confidences) == 0 {
		confidences = DefaultConfidenceLevels
	}
	for _, c := range confidences {
		if c <= 0 || c >= 1 {
			return nil, fmt.Errorf("%w: confidence %v outside (0, 1)", ErrInvalidConfig, c)
		}
	}

	pr, err := PortfolioReturns(series, weights)
	if err != nil {
		return nil, err
	}
	if len(pr) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 periods, got %d", ErrInsufficientData, len(pr))
	}

	mean, std := stat.MeanStdDev(pr, nil)

	a := &Assessment{Periods: len(pr)}
	for _, c := range confidences {
		a.Historical = append(a.Historical, CalculateVaR(pr, c))
		a.Parametric = append(a.Parametric, CalculateParametricVaR(mean, std, c))
	}

	worst := pr[0]
	for _, r := range pr[1:] {
		worst = math.Min(worst, r)
	}
	a.WorstLoss = math.Max(-worst, 0)

	return a, nil
}

// CalculateVaR 과거 수익률 기반 VaR 계산 (Historical Simulation)
// 하위 (1-confidence) 백분위수를 손실로 표현
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	// 오름차순: 손실이 앞에
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        math.Max(-sorted[idx], 0),
		CVaR:       tailLoss(sorted, idx),
	}
}

// tailLoss 정렬된 수익률의 [0, idx] 평균 손실 (Expected Shortfall)
func tailLoss(sorted []float64, idx int) float64 {
	if len(sorted) == 0 || idx < 0 {
		return 0
	}
	return math.Max(-stat.Mean(sorted[:idx+1], nil), 0)
}

// CalculateParametricVaR 정규분포 가정 VaR/CVaR
// VaR = −(μ − zσ), CVaR = −(μ − σφ(z)/(1−c))
func CalculateParametricVaR(mean, stdDev, confidence float64) VaRResult {
	z := distuv.UnitNormal.Quantile(confidence)
	phi := distuv.UnitNormal.Prob(z)

	return VaRResult{
		Confidence: confidence,
		VaR:        math.Max(z*stdDev-mean, 0),
		CVaR:       math.Max(stdDev*phi/(1-confidence)-mean, 0),
	}
}
