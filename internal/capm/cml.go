package capm

import (
	"math"

	"github.com/wonny/frontier/internal/contracts"
)

// =============================================================================
// Capital Market Line
// =============================================================================

// CapitalMarketLine is anchored at the risk-free rate and the max-Sharpe portfolio
// ⭐ SSOT: 모든 값은 연율 단위 (생성 시 한 번 변환, 이후 불변)
type CapitalMarketLine struct {
	RiskFreeRate     float64 `json:"risk_free_rate"`
	MarketReturn     float64 `json:"market_return"`
	MarketVolatility float64 `json:"market_volatility"`
	MarketSharpe     float64 `json:"market_sharpe"`
}

// NewCapitalMarketLine annualizes a per-period max-Sharpe result
// return ×P, volatility ×√P, sharpe ×√P
func NewCapitalMarketLine(market contracts.Performance, annualRiskFree, periodsPerYear float64) *CapitalMarketLine {
	annual := market.Annualized(periodsPerYear)
	return &CapitalMarketLine{
		RiskFreeRate:     annualRiskFree,
		MarketReturn:     annual.Return,
		MarketVolatility: annual.Volatility,
		MarketSharpe:     annual.Sharpe,
	}
}

// ExpectedReturn returns r_f + S·σ (annual)
func (c *CapitalMarketLine) ExpectedReturn(volatility float64) float64 {
	return c.RiskFreeRate + c.MarketSharpe*volatility
}

// RequiredVolatility returns (target − r_f) / S (annual)
// target ≤ r_f 이면 0 (무위험자산으로 충분)
// S ≤ 0 이면 도달 불가 → +Inf
func (c *CapitalMarketLine) RequiredVolatility(targetReturn float64) float64 {
	if targetReturn <= c.RiskFreeRate {
		return 0
	}
	if c.MarketSharpe <= 0 {
		return math.Inf(1)
	}
	return (targetReturn - c.RiskFreeRate) / c.MarketSharpe
}

// Points evaluates the line at each volatility
func (c *CapitalMarketLine) Points(volatilities []float64) []contracts.CMLPoint {
	points := make([]contracts.CMLPoint, len(volatilities))
	for i, v := range volatilities {
		points[i] = contracts.CMLPoint{
			Volatility:     v,
			ExpectedReturn: c.ExpectedReturn(v),
		}
	}
	return points
}
