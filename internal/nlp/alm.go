package nlp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Settings controls the augmented Lagrangian loop
// 0 값 필드는 DefaultSettings 값으로 대체
type Settings struct {
	MaxIterations  int     // 외부 반복 한도
	FeasibilityTol float64 // 제약 위반 허용치
	FunctionTol    float64 // |f_k − f_{k−1}| ≤ tol·max(1, |f_k|)

	InitialPenalty float64
	PenaltyGrowth  float64
	MaxPenalty     float64

	InnerIterations        int     // BFGS major iteration 한도
	InnerGradientThreshold float64 // BFGS 종료 기울기 (z 공간, ∞-norm)
}

// DefaultSettings returns the solver defaults
func DefaultSettings() Settings {
	return Settings{
		MaxIterations:          100,
		FeasibilityTol:         1e-8,
		FunctionTol:            1e-10,
		InitialPenalty:         10,
		PenaltyGrowth:          10,
		MaxPenalty:             1e10,
		InnerIterations:        1000,
		InnerGradientThreshold: 1e-10,
	}
}

func (s *Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s == nil {
		return d
	}
	out := *s
	if out.MaxIterations <= 0 {
		out.MaxIterations = d.MaxIterations
	}
	if out.FeasibilityTol <= 0 {
		out.FeasibilityTol = d.FeasibilityTol
	}
	if out.FunctionTol <= 0 {
		out.FunctionTol = d.FunctionTol
	}
	if out.InitialPenalty <= 0 {
		out.InitialPenalty = d.InitialPenalty
	}
	if out.PenaltyGrowth <= 1 {
		out.PenaltyGrowth = d.PenaltyGrowth
	}
	if out.MaxPenalty < out.InitialPenalty {
		out.MaxPenalty = math.Max(d.MaxPenalty, out.InitialPenalty)
	}
	if out.InnerIterations <= 0 {
		out.InnerIterations = d.InnerIterations
	}
	if out.InnerGradientThreshold <= 0 {
		out.InnerGradientThreshold = d.InnerGradientThreshold
	}
	return out
}

// =============================================================================
// Augmented Lagrangian (PHR) with box bounds by variable transform
// =============================================================================

// Minimize solves p from x0 (x0 must lie inside the bounds)
//
// 외부 루프: 증강 라그랑지안 승수 갱신 (λ += ρc, μ = max(0, μ − ρg))
// 내부 루프: gonum BFGS로 부등호 없는 부분문제 풀이 (경계는 변수 변환으로 처리)
//
// 잘못된 문제 정의만 error로 반환. 미수렴은 Result.Status로 보고됨.
func Minimize(p Problem, x0 []float64, settings *Settings) (*Result, error) {
	if err := p.validate(x0); err != nil {
		return nil, err
	}
	cfg := settings.withDefaults()

	s := newSolver(&p)
	z := make([]float64, p.Dim)
	s.box.toInternal(z, x0)

	lambda := make([]float64, len(p.Equality))
	mu := make([]float64, len(p.Inequality))
	rho := cfg.InitialPenalty

	res := &Result{X: make([]float64, p.Dim), Status: IterationLimit}
	prevViolation := math.Inf(1)
	prevF := math.NaN()

	for k := 1; k <= cfg.MaxIterations; k++ {
		res.Iterations = k

		inner := optimize.Problem{
			Func: func(zz []float64) float64 { return s.lagrangian(zz, lambda, mu, rho) },
			Grad: func(grad, zz []float64) { s.lagrangianGrad(grad, zz, lambda, mu, rho) },
		}
		innerSettings := &optimize.Settings{
			GradientThreshold: cfg.InnerGradientThreshold,
			MajorIterations:   cfg.InnerIterations,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-16,
				Relative:   1e-14,
				Iterations: 50,
			},
		}

		result, err := optimize.Minimize(inner, z, innerSettings, &optimize.BFGS{})
		if result == nil {
			return nil, fmt.Errorf("inner solve at iteration %d: %w", k, err)
		}
		res.InnerIterations += result.MajorIterations
		res.FuncEvaluations += result.FuncEvaluations

		// 선탐색 실패 등 soft failure는 최선 위치를 그대로 사용
		if !math.IsInf(result.F, 0) && !math.IsNaN(result.F) {
			copy(z, result.X)
		} else if k == 1 {
			s.box.toExternal(res.X, z)
			res.F = p.Func(res.X)
			res.Status = Failure
			res.Message = "augmented objective is not finite at the start point"
			return res, nil
		}

		s.box.toExternal(s.x, z)
		f := p.Func(s.x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			copy(res.X, s.x)
			res.F = f
			res.Status = Failure
			res.Message = fmt.Sprintf("objective is %v at iteration %d", f, k)
			return res, nil
		}

		violation := s.violation(s.x)
		copy(res.X, s.x)
		res.F = f
		res.Violation = violation

		if violation <= cfg.FeasibilityTol && math.Abs(f-prevF) <= cfg.FunctionTol*math.Max(1, math.Abs(f)) {
			res.Status = Success
			res.Message = fmt.Sprintf("converged after %d iterations (violation %.3g)", k, violation)
			return res, nil
		}

		// 승수 갱신
		for j, c := range p.Equality {
			lambda[j] += rho * c.Func(s.x)
		}
		for j, c := range p.Inequality {
			mu[j] = math.Max(0, mu[j]-rho*c.Func(s.x))
		}

		// 위반이 충분히 줄지 않으면 벌점 증가
		if violation > 0.25*prevViolation {
			rho = math.Min(rho*cfg.PenaltyGrowth, cfg.MaxPenalty)
		}
		prevViolation = violation
		prevF = f
	}

	res.Message = fmt.Sprintf("iteration limit %d reached (violation %.3g)", cfg.MaxIterations, res.Violation)
	return res, nil
}

// solver is the per-call state of Minimize
type solver struct {
	p   *Problem
	box *boxTransform
	x   []float64
}

func newSolver(p *Problem) *solver {
	return &solver{
		p:   p,
		box: newBoxTransform(p),
		x:   make([]float64, p.Dim),
	}
}

// lagrangian is f + Σ[λc + ρ/2 c²] + (1/2ρ) Σ[max(0, μ − ρg)² − μ²]
func (s *solver) lagrangian(z, lambda, mu []float64, rho float64) float64 {
	x := make([]float64, len(z))
	s.box.toExternal(x, z)

	val := s.p.Func(x)
	for j, c := range s.p.Equality {
		cv := c.Func(x)
		val += lambda[j]*cv + 0.5*rho*cv*cv
	}
	for j, c := range s.p.Inequality {
		shifted := math.Max(0, mu[j]-rho*c.Func(x))
		val += (shifted*shifted - mu[j]*mu[j]) / (2 * rho)
	}
	return val
}

func (s *solver) lagrangianGrad(grad, z, lambda, mu []float64, rho float64) {
	x := make([]float64, len(z))
	s.box.toExternal(x, z)
	tmp := make([]float64, len(z))

	gradient(grad, s.p.Func, s.p.Grad, x)
	for j, c := range s.p.Equality {
		coef := lambda[j] + rho*c.Func(x)
		gradient(tmp, c.Func, c.Grad, x)
		floats.AddScaled(grad, coef, tmp)
	}
	for j, c := range s.p.Inequality {
		shifted := math.Max(0, mu[j]-rho*c.Func(x))
		if shifted == 0 {
			continue
		}
		gradient(tmp, c.Func, c.Grad, x)
		floats.AddScaled(grad, -shifted, tmp)
	}

	s.box.chain(grad, z)
}

// violation returns max |c_j| and max(0, −g_k)
func (s *solver) violation(x []float64) float64 {
	v := 0.0
	for _, c := range s.p.Equality {
		v = math.Max(v, math.Abs(c.Func(x)))
	}
	for _, c := range s.p.Inequality {
		v = math.Max(v, -c.Func(x))
	}
	return v
}

// gradient uses the analytic gradient when present, central differences otherwise
func gradient(dst []float64, f func([]float64) float64, g func(grad, x []float64), x []float64) {
	if g != nil {
		g(dst, x)
		return
	}
	fd.Gradient(dst, f, x, &fd.Settings{Formula: fd.Central})
}
