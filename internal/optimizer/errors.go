package optimizer

import (
	"errors"
	"fmt"

	"github.com/wonny/frontier/internal/contracts"
)

var (
	// ErrOptimizationDidNotConverge solver가 허용오차 내 실현가능해에 도달하지 못함
	// 자동 재시도 없음 (같은 입력, 같은 시작점이면 결과도 같음)
	ErrOptimizationDidNotConverge = errors.New("optimization did not converge")
	ErrInvalidInput               = errors.New("invalid optimizer input")
)

// ConvergenceError carries the solver's stop reason
type ConvergenceError struct {
	Problem contracts.Problem
	Target  float64 // ProblemTargetReturn 일 때만 의미 있음
	Status  string
	Message string
}

func (e *ConvergenceError) Error() string {
	if e.Problem == contracts.ProblemTargetReturn {
		return fmt.Sprintf("%s (target %.6g): %s: %s", e.Problem, e.Target, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Problem, e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrOptimizationDidNotConverge
func (e *ConvergenceError) Unwrap() error {
	return ErrOptimizationDidNotConverge
}
