package contracts

// FrontierPoint is one solved target-return portfolio (weights omitted)
type FrontierPoint struct {
	TargetReturn float64 `json:"target_return"`
	Performance
}

// Frontier is ordered by ascending TargetReturn
// ⭐ 계약: 실패한 target은 제외됨 (null 채움 없음)
type Frontier []FrontierPoint

// Annualized returns a new frontier in annual units
func (f Frontier) Annualized(periodsPerYear float64) Frontier {
	out := make(Frontier, len(f))
	for i, p := range f {
		out[i] = FrontierPoint{
			TargetReturn: p.TargetReturn * periodsPerYear,
			Performance:  p.Performance.Annualized(periodsPerYear),
		}
	}
	return out
}

// Sample returns every step-th point starting at 0
// 원본 리포트: len/5 간격으로 샘플
func (f Frontier) Sample(count int) Frontier {
	if count <= 0 || len(f) == 0 {
		return nil
	}
	step := len(f) / count
	if step < 1 {
		step = 1
	}
	out := make(Frontier, 0, count+1)
	for i := 0; i < len(f); i += step {
		out = append(out, f[i])
	}
	return out
}

// BestSharpe returns the point with the highest Sharpe ratio
func (f Frontier) BestSharpe() (FrontierPoint, bool) {
	if len(f) == 0 {
		return FrontierPoint{}, false
	}
	best := f[0]
	for _, p := range f[1:] {
		if p.Sharpe > best.Sharpe {
			best = p
		}
	}
	return best, true
}
