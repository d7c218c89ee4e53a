package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/returns"
)

func TestCalculateVaR(t *testing.T) {
	// 20개 수익률: -0.10, -0.09, ..., 0.09
	rets := make([]float64, 20)
	for i := range rets {
		rets[i] = -0.10 + 0.01*float64(i)
	}

	res := CalculateVaR(rets, 0.95)
	// floor(0.05 * 20) = 1 → sorted[1] = -0.09
	assert.InDelta(t, 0.09, res.VaR, 1e-12)
	// tail [-0.10, -0.09] 평균
	assert.InDelta(t, 0.095, res.CVaR, 1e-12)
	assert.Equal(t, 0.95, res.Confidence)
}

func TestCalculateVaR_NoLoss(t *testing.T) {
	res := CalculateVaR([]float64{0.01, 0.02, 0.03}, 0.95)
	assert.Equal(t, 0.0, res.VaR)
	assert.Equal(t, 0.0, res.CVaR)

	empty := CalculateVaR(nil, 0.99)
	assert.Equal(t, VaRResult{Confidence: 0.99}, empty)
}

func TestCalculateParametricVaR(t *testing.T) {
	res := CalculateParametricVaR(0, 0.02, 0.95)
	assert.InDelta(t, 1.6449*0.02, res.VaR, 1e-5)
	// φ(1.645)/0.05 ≈ 2.0627
	assert.InDelta(t, 2.0627*0.02, res.CVaR, 1e-4)
	assert.Greater(t, res.CVaR, res.VaR)

	// 평균이 충분히 크면 손실 없음
	res = CalculateParametricVaR(1, 0.02, 0.95)
	assert.Equal(t, 0.0, res.VaR)
}

func TestPortfolioReturns(t *testing.T) {
	series, err := returns.NewSeries([]string{"A", "B"}, nil, [][]float64{
		{0.10, -0.10},
		{0.00, 0.20},
	})
	require.NoError(t, err)

	pr, err := PortfolioReturns(series, []float64{0.5, 0.5})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.10}, pr, 1e-15)

	_, err = PortfolioReturns(series, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAssess(t *testing.T) {
	series, err := returns.NewSeries([]string{"A", "B"}, nil, [][]float64{
		{0.01, 0.02},
		{-0.03, -0.01},
		{0.02, 0.00},
		{-0.01, 0.01},
	})
	require.NoError(t, err)

	a, err := Assess(series, []float64{1, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, a.Periods)
	require.Len(t, a.Historical, 2)
	require.Len(t, a.Parametric, 2)
	assert.InDelta(t, 0.03, a.WorstLoss, 1e-15)
	assert.InDelta(t, 0.03, a.Historical[0].VaR, 1e-15)

	_, err = Assess(series, []float64{1, 0}, []float64{1.5})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	short, err := returns.NewSeries([]string{"A"}, nil, [][]float64{{0.01}})
	require.NoError(t, err)
	_, err = Assess(short, []float64{1}, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
