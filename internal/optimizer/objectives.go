package optimizer

// =============================================================================
// Objectives and analytic gradients
// =============================================================================

// volatility σ(w) = sqrt(wᵗΣw)
func (o *Optimizer) volatility(w []float64) float64 {
	return o.stats.Volatility(w)
}

// volatilityGrad ∇σ = Σw / σ
func (o *Optimizer) volatilityGrad(grad, w []float64) {
	o.stats.CovTimes(grad, w)
	vol := o.stats.Volatility(w)
	if vol < o.stats.VolatilityFloor() {
		vol = o.stats.VolatilityFloor()
	}
	if vol == 0 {
		return
	}
	for i := range grad {
		grad[i] /= vol
	}
}

// negSharpe −(μᵗw − r_f) / σ, 0 when σ is below the floor
func (o *Optimizer) negSharpe(w []float64) float64 {
	return -o.stats.Evaluate(w).Sharpe
}

// negSharpeGrad −[μ/σ − (μᵗw − r_f)·Σw/σ³]
func (o *Optimizer) negSharpeGrad(grad, w []float64) {
	vol := o.stats.Volatility(w)
	if vol < o.stats.VolatilityFloor() {
		for i := range grad {
			grad[i] = 0
		}
		return
	}

	excess := o.stats.PortfolioReturn(w) - o.stats.PeriodRiskFreeRate()
	mean := o.stats.Mean()
	o.stats.CovTimes(grad, w)

	vol3 := vol * vol * vol
	for i := range grad {
		grad[i] = -(mean[i]/vol - excess*grad[i]/vol3)
	}
}
