package contracts

import (
	"math"
	"sort"
)

// Performance is the (return, volatility, sharpe) triple of a weight vector
// ⭐ SSOT: 입력 수익률과 같은 주기 (일간 입력이면 일간 값)
type Performance struct {
	Return     float64 `json:"return"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`
}

// Annualized returns a new Performance scaled to an annual basis
// return × P, volatility × √P, sharpe × √P (원본은 변경하지 않음)
func (p Performance) Annualized(periodsPerYear float64) Performance {
	root := math.Sqrt(periodsPerYear)
	return Performance{
		Return:     p.Return * periodsPerYear,
		Volatility: p.Volatility * root,
		Sharpe:     p.Sharpe * root,
	}
}

// PortfolioResult is an optimized allocation and its performance
// ⭐ 계약: Weights[i]는 Assets[i]의 비중, 0 ≤ w ≤ 1, Σw = 1 (solver tolerance 내)
type PortfolioResult struct {
	Problem Problem   `json:"problem"`
	Assets  []string  `json:"assets"`
	Weights []float64 `json:"weights"`
	Performance
}

// Allocation is a single asset weight
type Allocation struct {
	Asset  string  `json:"asset"`
	Weight float64 `json:"weight"`
}

// WeightMap returns the weights keyed by asset
func (r PortfolioResult) WeightMap() map[string]float64 {
	m := make(map[string]float64, len(r.Assets))
	for i, a := range r.Assets {
		m[a] = r.Weights[i]
	}
	return m
}

// WeightOf finds the weight of an asset
func (r PortfolioResult) WeightOf(asset string) (float64, bool) {
	for i, a := range r.Assets {
		if a == asset {
			return r.Weights[i], true
		}
	}
	return 0, false
}

// TotalWeight returns the sum of all weights
func (r PortfolioResult) TotalWeight() float64 {
	total := 0.0
	for _, w := range r.Weights {
		total += w
	}
	return total
}

// Allocations returns weights strictly above minWeight, largest first
// 리포트 출력용 (원본 리포트는 0.1% 초과만 표시)
func (r PortfolioResult) Allocations(minWeight float64) []Allocation {
	out := make([]Allocation, 0, len(r.Assets))
	for i, a := range r.Assets {
		if r.Weights[i] > minWeight {
			out = append(out, Allocation{Asset: a, Weight: r.Weights[i]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out
}

// Annualized returns a copy with annualized performance; weights are unchanged
func (r PortfolioResult) Annualized(periodsPerYear float64) PortfolioResult {
	out := PortfolioResult{
		Problem:     r.Problem,
		Assets:      append([]string(nil), r.Assets...),
		Weights:     append([]float64(nil), r.Weights...),
		Performance: r.Performance.Annualized(periodsPerYear),
	}
	return out
}
