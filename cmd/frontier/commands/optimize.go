package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/optimizer"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "단일 최적화 문제 풀이",
	Long: `하나의 최적화 문제를 풀고 비중을 출력합니다.

Problems:
  max_sharpe     - Sharpe 비율 최대화
  min_variance   - 변동성 최소화
  target_return  - 목표 수익률(기간 단위)에서 변동성 최소화 (--target 필요)

공통 제약: Σw = 1, 0 ≤ w ≤ 1

Example:
  go run ./cmd/frontier optimize --csv returns.csv
  go run ./cmd/frontier optimize --csv returns.csv --problem target_return --target 0.0008
  go run ./cmd/frontier optimize --codes 005930,000660 --problem min_variance --save`,
	RunE: runOptimize,
}

var (
	optimizeInput   inputFlags
	optimizeProblem string
	optimizeTarget  float64
	optimizeSave    bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeInput.bind(optimizeCmd)
	optimizeCmd.Flags().StringVar(&optimizeProblem, "problem", string(contracts.ProblemMaxSharpe), "max_sharpe|min_variance|target_return")
	optimizeCmd.Flags().Float64Var(&optimizeTarget, "target", 0, "목표 수익률 (기간 단위, target_return 전용)")
	optimizeCmd.Flags().BoolVar(&optimizeSave, "save", false, "결과를 DB에 저장 (DATABASE_URL 필요)")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !contracts.IsValidProblem(optimizeProblem) {
		return fmt.Errorf("invalid --problem %q (valid: %v)", optimizeProblem, contracts.AllProblems())
	}
	problem := contracts.Problem(optimizeProblem)
	if problem == contracts.ProblemTargetReturn && !cmd.Flags().Changed("target") {
		return fmt.Errorf("--target is required for target_return")
	}

	rt, err := newRuntime(cmd.Context(), optimizeSave)
	if err != nil {
		return err
	}
	defer rt.Close()

	in, err := optimizeInput.load(ctx, rt)
	if err != nil {
		return err
	}

	opt, err := rt.newOptimizer(in.series, in.rf)
	if err != nil {
		return err
	}

	result, err := solveProblem(opt, problem, optimizeTarget)
	if err != nil {
		return err
	}

	p := rt.cfg.Engine.PeriodsPerYear
	PrintCommandHeader(CommandMetadata{
		Title:   "OPTIMIZE: " + problem.Description(),
		Source:  in.source,
		Assets:  in.series.Assets(),
		Periods: in.series.Len(),
		RF:      in.rf,
		P:       p,
	})
	printPortfolio(result, p)

	if optimizeSave {
		id, err := rt.runs.SaveRun(ctx, &contracts.OptimizationRun{
			Result:         *result,
			RiskFreeRate:   in.rf,
			PeriodsPerYear: p,
		})
		if err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("Run #%d saved", id))
	}
	return nil
}

// solveProblem dispatches one problem family
func solveProblem(opt *optimizer.Optimizer, problem contracts.Problem, target float64) (*contracts.PortfolioResult, error) {
	switch problem {
	case contracts.ProblemMinVariance:
		return opt.MinVariance()
	case contracts.ProblemTargetReturn:
		return opt.TargetReturn(target)
	default:
		return opt.MaxSharpe()
	}
}

// printPortfolio prints weights and both period and annual performance
func printPortfolio(r *contracts.PortfolioResult, p float64) {
	fmt.Fprintln(stdout)
	widths := []int{12, 10}
	PrintTableHeader([]string{"Asset", "Weight"}, widths)
	for i, a := range r.Assets {
		PrintTableRow([]string{a, pct(r.Weights[i])}, widths)
	}

	annual := r.Performance.Annualized(p)
	fmt.Fprintln(stdout)
	PrintKeyValue("Return", fmt.Sprintf("%s (period %.6f)", pct(annual.Return), r.Return), 10)
	PrintKeyValue("Volatility", fmt.Sprintf("%s (period %.6f)", pct(annual.Volatility), r.Volatility), 10)
	PrintKeyValue("Sharpe", fmt.Sprintf("%.3f (period %.4f)", annual.Sharpe, r.Sharpe), 10)
}
