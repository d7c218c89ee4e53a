package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/returns"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Naver Finance 수익률 다운로드",
	Long: `종목별 일간 종가를 조회해 공통 거래일 기준 수익률 CSV로 저장합니다.
DATABASE_URL이 설정되어 있으면 종가를 DB에도 저장합니다.
출력 CSV는 analyze/frontier 등의 --csv 입력으로 바로 사용할 수 있습니다.

Example:
  go run ./cmd/frontier fetch --codes 005930,000660,035420 --from 2024-01-01 -o returns.csv
  go run ./cmd/frontier fetch --codes 005930,000660 --market 069500`,
	RunE: runFetch,
}

var (
	fetchInput inputFlags
	fetchOut   string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringSliceVar(&fetchInput.codes, "codes", nil, "종목 코드 (예: 005930,000660)")
	fetchCmd.Flags().StringVar(&fetchInput.marketCode, "market", "", "시장 대리지표 종목 코드 (CSV에 열로 포함)")
	fetchCmd.Flags().StringVar(&fetchInput.from, "from", "", "시작일 YYYY-MM-DD")
	fetchCmd.Flags().StringVar(&fetchInput.to, "to", "", "종료일 YYYY-MM-DD")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "출력 CSV 경로 (기본: stdout)")
	_ = fetchCmd.MarkFlagRequired("codes")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.Close()

	from, to, err := fetchInput.window(rt.cfg.Schedule.LookbackDays)
	if err != nil {
		return err
	}

	// 시장 대리지표는 같은 격자의 한 열로 저장 (--market-column으로 다시 분리)
	codes := fetchInput.codes
	if fetchInput.marketCode != "" {
		codes = append(append([]string(nil), codes...), fetchInput.marketCode)
	}

	series, err := rt.loader.LoadSeries(ctx, codes, from, to)
	if err != nil {
		return err
	}

	w := stdout
	if fetchOut != "" {
		file, err := os.Create(fetchOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", fetchOut, err)
		}
		defer file.Close()
		w = file
	}
	if err := returns.WriteCSV(w, series); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	rf := rt.loader.RiskFreeRate(ctx, rt.cfg.Engine.RiskFreeRate)
	rt.log.WithFields(map[string]interface{}{
		"codes":          len(codes),
		"periods":        series.Len(),
		"risk_free_rate": rf,
		"breaker":        rt.breaker.State(),
	}).Info("Returns fetched")

	if fetchOut != "" {
		PrintSuccess(fmt.Sprintf("%d periods × %d assets saved to %s (risk-free %s)", series.Len(), series.NumAssets(), fetchOut, pct(rf)))
	}
	return nil
}
