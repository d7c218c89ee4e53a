package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/analysis"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "전체 포트폴리오 분석 리포트",
	Long: `수익률 시계열로 전체 분석 리포트를 생성합니다.

리포트 구성:
  1. 자산별 연율 수익률/변동성
  2. 상관계수 행렬 (최고/최저/평균)
  3. 연율 공분산 행렬
  4. 최대 Sharpe / 최소 분산 포트폴리오 (+ VaR/CVaR)
  5. 자본시장선 (CML)
  6. 효율적 투자선 샘플
  7. 증권시장선 (SML, 시장 대리지표가 있을 때)

Example:
  go run ./cmd/frontier analyze --csv returns.csv
  go run ./cmd/frontier analyze --csv prices.csv --kind prices --market-column KOSPI
  go run ./cmd/frontier analyze --codes 005930,000660,035420 --market 069500 --json
  go run ./cmd/frontier analyze --csv returns.csv --chart frontier.png`,
	RunE: runAnalyze,
}

var (
	analyzeInput  inputFlags
	analyzeName   string
	analyzePoints int
	analyzeJSON   bool
	analyzeChart  string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeInput.bind(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "Portfolio Analysis", "리포트 이름")
	analyzeCmd.Flags().IntVar(&analyzePoints, "points", 0, "frontier 점 개수 (기본: FRONTIER_POINTS)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON으로 출력")
	analyzeCmd.Flags().StringVar(&analyzeChart, "chart", "", "frontier 차트 PNG 저장 경로")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.Close()

	in, err := analyzeInput.load(ctx, rt)
	if err != nil {
		return err
	}

	opt, err := rt.newOptimizer(in.series, in.rf)
	if err != nil {
		return err
	}

	points := analyzePoints
	if points <= 0 {
		points = rt.cfg.Engine.FrontierPoints
	}

	report, err := analysis.NewAnalyzer(opt, in.series, rt.log).Run(ctx, analysis.Options{
		Name:                analyzeName,
		FrontierPoints:      points,
		MarketProxy:         in.market,
		MarketVarianceFloor: rt.cfg.Engine.MarketVarianceFloor,
	})
	if err != nil {
		return err
	}

	if analyzeChart != "" {
		png, err := analysis.RenderFrontierChart(analyzeName, report.Frontier, report.CML)
		if err != nil {
			return err
		}
		if err := os.WriteFile(analyzeChart, png, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		rt.log.WithField("path", analyzeChart).Info("Frontier chart saved")
	}

	if analyzeJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return analysis.WriteText(stdout, report)
}
