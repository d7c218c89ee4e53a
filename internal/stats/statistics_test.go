package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/frontier/internal/returns"
)

func twoAssetSeries(t *testing.T) *returns.Series {
	t.Helper()
	s, err := returns.NewSeries([]string{"A", "B"}, nil, [][]float64{
		{0.01, 0.02},
		{0.03, -0.01},
		{-0.01, 0.00},
		{0.05, 0.03},
	})
	require.NoError(t, err)
	return s
}

func TestNew_Moments(t *testing.T) {
	s, err := New(twoAssetSeries(t), 0.0504, DefaultConfig())
	require.NoError(t, err)

	mean := s.Mean()
	assert.InDelta(t, 0.02, mean[0], 1e-12)
	assert.InDelta(t, 0.01, mean[1], 1e-12)

	// 표본 공분산 (n-1 = 3)
	cov := s.Covariance()
	assert.InDelta(t, 0.002/3, cov.At(0, 0), 1e-12)
	assert.InDelta(t, 0.001/3, cov.At(1, 1), 1e-12)
	assert.InDelta(t, 0.0006/3, cov.At(0, 1), 1e-12)

	std := s.StdDev()
	assert.InDelta(t, math.Sqrt(0.002/3), std[0], 1e-12)

	corr := s.Correlation()
	assert.InDelta(t, 1.0, corr.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0002/math.Sqrt(0.002/3*0.001/3), corr.At(0, 1), 1e-9)

	// 무위험수익률: 연율 / P
	assert.Equal(t, 0.0504, s.RiskFreeRate())
	assert.InDelta(t, 0.0504/252, s.PeriodRiskFreeRate(), 1e-15)
	assert.Greater(t, s.ConditionNumber(), 1.0)
}

func TestNew_AccessorsReturnCopies(t *testing.T) {
	s, err := New(twoAssetSeries(t), 0.03, DefaultConfig())
	require.NoError(t, err)

	m := s.Mean()
	m[0] = 99
	assert.NotEqual(t, 99.0, s.Mean()[0])

	c := s.Covariance()
	c.SetSym(0, 0, 99)
	assert.NotEqual(t, 99.0, s.Covariance().At(0, 0))
}

func TestNew_DuplicatedColumnsIllConditioned(t *testing.T) {
	series, err := returns.NewSeries([]string{"A", "A_COPY"}, nil, [][]float64{
		{0.01, 0.01},
		{0.03, 0.03},
		{-0.01, -0.01},
		{0.05, 0.05},
	})
	require.NoError(t, err)

	_, err = New(series, 0.045, DefaultConfig())
	assert.ErrorIs(t, err, ErrIllConditionedAssets)
}

func TestNew_FewerPeriodsThanAssetsIllConditioned(t *testing.T) {
	series, err := returns.NewSeries([]string{"A", "B", "C"}, nil, [][]float64{
		{0.01, 0.02, 0.03},
		{0.02, -0.01, 0.00},
	})
	require.NoError(t, err)

	_, err = New(series, 0.045, DefaultConfig())
	assert.ErrorIs(t, err, ErrIllConditionedAssets)
}

func TestNew_InsufficientData(t *testing.T) {
	series, err := returns.NewSeries([]string{"A"}, nil, [][]float64{{0.01}})
	require.NoError(t, err)

	_, err = New(series, 0.045, DefaultConfig())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PeriodsPerYear = 0

	_, err := New(twoAssetSeries(t), 0.045, cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFromMoments_Validation(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{0.04, 0.01, 0.01, 0.03})

	_, err := FromMoments([]string{"A"}, []float64{0.1}, cov, 0, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = FromMoments([]string{"A", "B"}, []float64{0.1, math.NaN()}, cov, 0, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidInput)

	s, err := FromMoments([]string{"A", "B"}, []float64{0.1, 0.08}, cov, 0, DefaultConfig())
	require.NoError(t, err)

	// 입력 행렬과 독립
	cov.SetSym(0, 0, 1)
	assert.Equal(t, 0.04, s.Covariance().At(0, 0))
}

func TestAnnualizedViews(t *testing.T) {
	s, err := New(twoAssetSeries(t), 0.045, DefaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, 0.02*252, s.AnnualizedMean()[0], 1e-12)
	assert.InDelta(t, s.StdDev()[1]*math.Sqrt(252), s.AnnualizedStdDev()[1], 1e-12)
	assert.InDelta(t, s.Covariance().At(0, 1)*252, s.AnnualizedCovariance().At(0, 1), 1e-12)
}
