package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/analysis"
	"github.com/wonny/frontier/internal/capm"
)

// frontierCmd represents the frontier command
var frontierCmd = &cobra.Command{
	Use:   "frontier",
	Short: "효율적 투자선 계산",
	Long: `min(μ) ~ max(μ) 사이 균등 간격 목표 수익률마다 최소 분산 포트폴리오를 풀어
효율적 투자선을 출력합니다 (연율). 수렴하지 않은 점은 생략됩니다.

Example:
  go run ./cmd/frontier frontier --csv returns.csv --points 50
  go run ./cmd/frontier frontier --csv returns.csv --chart frontier.png`,
	RunE: runFrontier,
}

var (
	frontierInput  inputFlags
	frontierPoints int
	frontierChart  string
)

func init() {
	rootCmd.AddCommand(frontierCmd)

	frontierInput.bind(frontierCmd)
	frontierCmd.Flags().IntVar(&frontierPoints, "points", 0, "frontier 점 개수 (기본: FRONTIER_POINTS)")
	frontierCmd.Flags().StringVarP(&frontierChart, "chart", "o", "", "frontier + CML 차트 PNG 저장 경로")
}

func runFrontier(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.Close()

	in, err := frontierInput.load(ctx, rt)
	if err != nil {
		return err
	}

	opt, err := rt.newOptimizer(in.series, in.rf)
	if err != nil {
		return err
	}

	n := frontierPoints
	if n <= 0 {
		n = rt.cfg.Engine.FrontierPoints
	}
	frontier, err := opt.EfficientFrontier(ctx, n)
	if err != nil {
		return err
	}

	p := rt.cfg.Engine.PeriodsPerYear
	annual := frontier.Annualized(p)

	PrintCommandHeader(CommandMetadata{
		Title:   "EFFICIENT FRONTIER",
		Source:  in.source,
		Assets:  in.series.Assets(),
		Periods: in.series.Len(),
		RF:      in.rf,
		P:       p,
	})

	widths := []int{6, 12, 12, 8}
	PrintTableHeader([]string{"#", "Return", "Volatility", "Sharpe"}, widths)
	for i, pt := range annual {
		PrintTableRow([]string{
			fmt.Sprintf("%d", i+1),
			pct(pt.Return),
			pct(pt.Volatility),
			fmt.Sprintf("%.3f", pt.Sharpe),
		}, widths)
	}

	fmt.Fprintln(stdout)
	if len(frontier) < n {
		PrintWarning(fmt.Sprintf("%d of %d target returns did not converge and were dropped", n-len(frontier), n))
	}
	if best, ok := annual.BestSharpe(); ok {
		PrintInfo(fmt.Sprintf("Best Sharpe on frontier: %.3f at %s volatility", best.Sharpe, pct(best.Volatility)))
	}

	if frontierChart != "" {
		maxSharpe, err := opt.MaxSharpe()
		if err != nil {
			return err
		}
		cml := capm.NewCapitalMarketLine(maxSharpe.Performance, in.rf, p)
		png, err := analysis.RenderFrontierChart("Efficient Frontier", annual, cml)
		if err != nil {
			return err
		}
		if err := os.WriteFile(frontierChart, png, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		PrintSuccess("Chart saved to " + frontierChart)
	}
	return nil
}
