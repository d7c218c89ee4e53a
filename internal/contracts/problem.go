package contracts

// Problem 최적화 문제 종류 (SSOT)
// 모든 로그, 메트릭 라벨, DB row에서 이 상수를 사용해야 함
//
// 공통 제약: Σw = 1, 0 ≤ w_i ≤ 1 (fully invested, long-only)

// Problem represents an optimization family
type Problem string

const (
	// ProblemMaxSharpe minimize −sharpe(w)
	ProblemMaxSharpe Problem = "max_sharpe"

	// ProblemMinVariance minimize volatility(w)
	ProblemMinVariance Problem = "min_variance"

	// ProblemTargetReturn minimize volatility(w) s.t. Σ w_i·μ_i = target
	// 효율적 투자선(frontier)의 각 점
	ProblemTargetReturn Problem = "target_return"
)

// String returns the problem name
func (p Problem) String() string {
	return string(p)
}

// Description returns Korean description of the problem
func (p Problem) Description() string {
	switch p {
	case ProblemMaxSharpe:
		return "최대 샤프 비율"
	case ProblemMinVariance:
		return "최소 분산"
	case ProblemTargetReturn:
		return "목표 수익률 최소 분산"
	default:
		return "알 수 없음"
	}
}

// AllProblems returns all problems
func AllProblems() []Problem {
	return []Problem{ProblemMaxSharpe, ProblemMinVariance, ProblemTargetReturn}
}

// IsValidProblem checks if a string is a valid problem
func IsValidProblem(s string) bool {
	for _, p := range AllProblems() {
		if string(p) == s {
			return true
		}
	}
	return false
}
