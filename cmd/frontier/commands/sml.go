package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/frontier/internal/capm"
)

// smlCmd represents the sml command
var smlCmd = &cobra.Command{
	Use:   "sml",
	Short: "증권시장선(SML) 분석",
	Long: `시장 대리지표 대비 자산별 beta, CAPM 요구수익률, alpha를 계산합니다.
모든 값은 입력 수익률과 같은 기간 단위입니다.

Example:
  go run ./cmd/frontier sml --csv returns.csv --market-column KOSPI
  go run ./cmd/frontier sml --codes 005930,000660 --market 069500`,
	RunE: runSML,
}

var smlInput inputFlags

func init() {
	rootCmd.AddCommand(smlCmd)
	smlInput.bind(smlCmd)
}

func runSML(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.Close()

	in, err := smlInput.load(ctx, rt)
	if err != nil {
		return err
	}
	if in.market == nil {
		return fmt.Errorf("--market-column or --market is required")
	}

	p := rt.cfg.Engine.PeriodsPerYear
	marketReturn, marketVol := stat.MeanStdDev(in.market, nil)
	sml := capm.NewSecurityMarketLine(marketReturn, marketVol, in.rf/p, rt.cfg.Engine.MarketVarianceFloor)

	records, err := sml.AnalyzeAssets(in.series, in.market)
	if err != nil {
		return err
	}

	PrintCommandHeader(CommandMetadata{
		Title:   "SECURITY MARKET LINE (SML)",
		Source:  in.source,
		Assets:  in.series.Assets(),
		Periods: in.series.Len(),
		RF:      in.rf,
		P:       p,
	})
	PrintKeyValue("Market return", fmt.Sprintf("%.6f", marketReturn), 14)
	PrintKeyValue("Market vol", fmt.Sprintf("%.6f", marketVol), 14)
	PrintKeyValue("Risk premium", fmt.Sprintf("%.6f", sml.RiskPremium), 14)
	fmt.Fprintln(stdout)

	widths := []int{12, 8, 12, 12, 12, 12}
	PrintTableHeader([]string{"Asset", "Beta", "Expected", "Required", "Alpha", "Valuation"}, widths)
	for _, r := range records {
		PrintTableRow([]string{
			r.Asset,
			fmt.Sprintf("%.3f", r.Beta),
			fmt.Sprintf("%.6f", r.ExpectedReturn),
			fmt.Sprintf("%.6f", r.RequiredReturn),
			fmt.Sprintf("%+.6f", r.Alpha),
			string(r.Valuation),
		}, widths)
	}
	return nil
}
