package analysis

import "fmt"

// Recommendation is the verdict on the max-Sharpe annual Sharpe ratio
type Recommendation string

const (
	RecommendStrong   Recommendation = "strong"   // Sharpe > 1.0
	RecommendModerate Recommendation = "moderate" // 0.5 < Sharpe ≤ 1.0
	RecommendPoor     Recommendation = "poor"
)

// Insights are the key takeaways of a report
type Insights struct {
	NumAssets          int            `json:"num_assets"`
	AverageCorrelation float64        `json:"average_correlation"`
	SharpeMultiple     float64        `json:"sharpe_multiple,omitempty"` // max-Sharpe / min-variance, 둘 다 양수일 때만
	RiskDifference     float64        `json:"risk_difference"`           // 연율 변동성 차이
	Recommendation     Recommendation `json:"recommendation"`
	Message            string         `json:"message"`
}

// ClassifySharpe maps an annual Sharpe ratio to a recommendation
func ClassifySharpe(annualSharpe float64) Recommendation {
	switch {
	case annualSharpe > 1.0:
		return RecommendStrong
	case annualSharpe > 0.5:
		return RecommendModerate
	default:
		return RecommendPoor
	}
}

func (r Recommendation) Message() string {
	switch r {
	case RecommendStrong:
		return "Strong risk-adjusted returns available in this portfolio"
	case RecommendModerate:
		return "Moderate risk-adjusted returns; consider diversification"
	default:
		return "Poor risk-adjusted returns; portfolio may not be suitable"
	}
}

func buildInsights(r *Report) Insights {
	maxSharpe := r.MaxSharpe.Annual
	minVar := r.MinVariance.Annual

	in := Insights{
		NumAssets:          len(r.Assets),
		AverageCorrelation: r.Correlation.Average,
		RiskDifference:     maxSharpe.Volatility - minVar.Volatility,
		Recommendation:     ClassifySharpe(maxSharpe.Sharpe),
	}
	if minVar.Sharpe > 0 && maxSharpe.Sharpe > minVar.Sharpe {
		in.SharpeMultiple = maxSharpe.Sharpe / minVar.Sharpe
	}
	in.Message = in.Recommendation.Message()
	return in
}

// Summary is the one-line insight used by logs and notifications
func (in Insights) Summary() string {
	if in.SharpeMultiple > 0 {
		return fmt.Sprintf("%s (max Sharpe %.2fx min variance)", in.Message, in.SharpeMultiple)
	}
	return in.Message
}
