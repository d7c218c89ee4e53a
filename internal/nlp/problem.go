package nlp

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidProblem is returned for malformed problems (shape, bounds, start point)
var ErrInvalidProblem = errors.New("invalid nonlinear program")

// Problem describes
//
//	minimize   f(x)
//	subject to c_j(x) = 0, g_k(x) >= 0, Lower <= x <= Upper
//
// Grad fields are optional; missing gradients are approximated with central differences.
type Problem struct {
	Dim  int
	Func func(x []float64) float64
	Grad func(grad, x []float64)

	Equality   []Constraint
	Inequality []Constraint // g(x) >= 0

	// nil → 무제한, ±Inf 항목 허용
	Lower []float64
	Upper []float64
}

// Constraint is a scalar constraint function
type Constraint struct {
	Func func(x []float64) float64
	Grad func(grad, x []float64)
}

// Status is the solver stop reason
type Status int

const (
	// Success 실현가능 + 목적함수 변화 허용오차 이내
	Success Status = iota
	// IterationLimit 외부 반복 한도 도달
	IterationLimit
	// Failure 목적함수/제약이 유한하지 않거나 내부 탐색이 시작 불가
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case IterationLimit:
		return "IterationLimit"
	case Failure:
		return "Failure"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of Minimize
// Status != Success 이면 X는 마지막 반복값 (수렴 보장 없음)
type Result struct {
	X         []float64
	F         float64
	Status    Status
	Message   string
	Violation float64 // max |c_j|, max(0, -g_k)

	Iterations      int // outer (augmented Lagrangian) iterations
	InnerIterations int // BFGS major iterations, summed
	FuncEvaluations int
}

func (p *Problem) validate(x0 []float64) error {
	if p.Dim <= 0 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidProblem, p.Dim)
	}
	if p.Func == nil {
		return fmt.Errorf("%w: nil objective", ErrInvalidProblem)
	}
	if len(x0) != p.Dim {
		return fmt.Errorf("%w: start point has %d entries, want %d", ErrInvalidProblem, len(x0), p.Dim)
	}
	if p.Lower != nil && len(p.Lower) != p.Dim {
		return fmt.Errorf("%w: %d lower bounds for dimension %d", ErrInvalidProblem, len(p.Lower), p.Dim)
	}
	if p.Upper != nil && len(p.Upper) != p.Dim {
		return fmt.Errorf("%w: %d upper bounds for dimension %d", ErrInvalidProblem, len(p.Upper), p.Dim)
	}
	for i, c := range p.Equality {
		if c.Func == nil {
			return fmt.Errorf("%w: equality %d has nil function", ErrInvalidProblem, i)
		}
	}
	for i, c := range p.Inequality {
		if c.Func == nil {
			return fmt.Errorf("%w: inequality %d has nil function", ErrInvalidProblem, i)
		}
	}

	for i := 0; i < p.Dim; i++ {
		lo, hi := p.bounds(i)
		if math.IsNaN(x0[i]) || math.IsInf(x0[i], 0) {
			return fmt.Errorf("%w: start point entry %d is %v", ErrInvalidProblem, i, x0[i])
		}
		if lo > hi {
			return fmt.Errorf("%w: lower bound %v > upper bound %v at %d", ErrInvalidProblem, lo, hi, i)
		}
		if x0[i] < lo || x0[i] > hi {
			return fmt.Errorf("%w: start point entry %d = %v outside [%v, %v]", ErrInvalidProblem, i, x0[i], lo, hi)
		}
	}
	return nil
}

func (p *Problem) bounds(i int) (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if p.Lower != nil {
		lo = p.Lower[i]
	}
	if p.Upper != nil {
		hi = p.Upper[i]
	}
	return lo, hi
}
