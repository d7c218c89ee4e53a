package capm

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/returns"
)

var (
	// ErrMisalignedSeries 자산 수익률과 시장 대리지표의 기간 수 불일치
	ErrMisalignedSeries = errors.New("asset and market series are misaligned")
	ErrInsufficientData = errors.New("insufficient data for beta")
)

// =============================================================================
// Security Market Line / CAPM
// =============================================================================

// SecurityMarketLine prices assets by beta
// 단위 변환 없음: marketReturn, riskFreeRate는 alpha를 원하는 주기와 같아야 함
type SecurityMarketLine struct {
	MarketReturn     float64 `json:"market_return"`
	MarketVolatility float64 `json:"market_volatility"`
	RiskFreeRate     float64 `json:"risk_free_rate"`
	RiskPremium      float64 `json:"market_risk_premium"`

	varianceFloor float64
}

// NewSecurityMarketLine creates an SML
// varianceFloor: 시장 분산이 이 값 미만이면 beta = 0 (기본 1e-10)
func NewSecurityMarketLine(marketReturn, marketVolatility, riskFreeRate, varianceFloor float64) *SecurityMarketLine {
	return &SecurityMarketLine{
		MarketReturn:     marketReturn,
		MarketVolatility: marketVolatility,
		RiskFreeRate:     riskFreeRate,
		RiskPremium:      marketReturn - riskFreeRate,
		varianceFloor:    varianceFloor,
	}
}

// Beta returns cov(asset, market) / var(market), both Bessel-corrected
// 평탄한 시장(분산 < floor)이면 0
func (s *SecurityMarketLine) Beta(asset, market []float64) (float64, error) {
	if len(asset) != len(market) {
		return 0, fmt.Errorf("%w: %d asset periods, %d market periods", ErrMisalignedSeries, len(asset), len(market))
	}
	if len(market) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 periods, got %d", ErrInsufficientData, len(market))
	}

	variance := stat.Variance(market, nil)
	if variance < s.varianceFloor {
		return 0, nil
	}
	return stat.Covariance(asset, market, nil) / variance, nil
}

// RequiredReturn returns r_f + β·(r_m − r_f)
func (s *SecurityMarketLine) RequiredReturn(beta float64) float64 {
	return s.RiskFreeRate + beta*s.RiskPremium
}

// Alpha returns Jensen's alpha: observed − required
func (s *SecurityMarketLine) Alpha(assetReturn, beta float64) float64 {
	return assetReturn - s.RequiredReturn(beta)
}

// AnalyzeAssets returns one record per asset, in series order
func (s *SecurityMarketLine) AnalyzeAssets(series *returns.Series, marketProxy []float64) ([]contracts.SMLRecord, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", ErrInsufficientData)
	}
	if series.Len() != len(marketProxy) {
		return nil, fmt.Errorf("%w: %d asset periods, %d market periods", ErrMisalignedSeries, series.Len(), len(marketProxy))
	}

	assets := series.Assets()
	records := make([]contracts.SMLRecord, 0, len(assets))
	for i, asset := range assets {
		col := series.Column(i)

		beta, err := s.Beta(col, marketProxy)
		if err != nil {
			return nil, fmt.Errorf("beta of %s: %w", asset, err)
		}

		observed := stat.Mean(col, nil)
		alpha := s.Alpha(observed, beta)

		records = append(records, contracts.SMLRecord{
			Asset:          asset,
			Beta:           beta,
			Alpha:          alpha,
			ExpectedReturn: observed,
			RequiredReturn: s.RequiredReturn(beta),
			Valuation:      contracts.ClassifyAlpha(alpha),
		})
	}
	return records, nil
}
