package contracts

// Valuation is the CAPM two-way classification
type Valuation string

const (
	// Undervalued alpha > 0
	Undervalued Valuation = "Undervalued"
	// Overvalued alpha <= 0 (alpha == 0 포함)
	Overvalued Valuation = "Overvalued"
)

// ClassifyAlpha applies the literal alpha > 0 rule
func ClassifyAlpha(alpha float64) Valuation {
	if alpha > 0 {
		return Undervalued
	}
	return Overvalued
}

// SMLRecord is the per-asset Security Market Line analysis
type SMLRecord struct {
	Asset          string    `json:"asset"`
	Beta           float64   `json:"beta"`
	Alpha          float64   `json:"alpha"`
	ExpectedReturn float64   `json:"expected_return"` // 관측 평균 수익률
	RequiredReturn float64   `json:"required_return"` // CAPM 요구수익률
	Valuation      Valuation `json:"valuation"`
}

// CMLPoint is one (volatility, expected return) pair on the Capital Market Line
type CMLPoint struct {
	Volatility     float64 `json:"volatility"`
	ExpectedReturn float64 `json:"expected_return"`
}
