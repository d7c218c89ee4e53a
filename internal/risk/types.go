package risk

// VaRConvention VaR 부호 규약
// ⭐ SSOT: Loss를 양수로 표현 (VaR=0.05 → 5% 손실 가능)
const VaRConvention = "loss_positive"

// DefaultConfidenceLevels 리포트 기본 신뢰수준
var DefaultConfidenceLevels = []float64{0.95, 0.99}

// VaRResult VaR 계산 결과
// ⭐ SSOT: VaR/CVaR는 손실을 양수로 표현
// - VaR=0.05 → 95% 신뢰수준에서 1기간 최대 5% 손실 가능
// - CVaR=0.07 → 5% tail에서 평균 7% 손실 예상
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// Assessment 포트폴리오 1기간 손실 위험 (기간 단위, 연율화 안 함)
type Assessment struct {
	Periods    int         `json:"periods"`    // 사용한 과거 기간 수
	Historical []VaRResult `json:"historical"` // 과거 시뮬레이션
	Parametric []VaRResult `json:"parametric"` // 정규분포 가정
	WorstLoss  float64     `json:"worst_loss"` // 최대 1기간 손실 (양수)
}
