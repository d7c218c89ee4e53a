package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	periodsPerYear float64
	riskFreeRate   float64
	profilePath    string
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "frontier",
	Short: "Mean-variance 포트폴리오 최적화 엔진",
	Long: `Frontier Unified CLI

평균-분산 포트폴리오 최적화 (최대 Sharpe, 최소 분산, 효율적 투자선),
자본시장선(CML)과 증권시장선(SML) 분석.

입력은 CSV 수익률/가격 파일 또는 Naver Finance 종목 코드.

Usage:
  go run ./cmd/frontier [command]

Examples:
  go run ./cmd/frontier analyze --csv returns.csv
  go run ./cmd/frontier analyze --codes 005930,000660,035420 --market 069500
  go run ./cmd/frontier frontier --csv prices.csv --kind prices --points 50
  go run ./cmd/frontier optimize --profile profiles/kospi.yaml
  go run ./cmd/frontier api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C / SIGTERM은 cmd.Context() 취소로 전달됨
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags (0이면 config 값 사용)
	rootCmd.PersistentFlags().Float64Var(&periodsPerYear, "periods", 0, "연간 기간 수 (252=일간, 12=월간)")
	rootCmd.PersistentFlags().Float64Var(&riskFreeRate, "risk-free", -1, "연율 무위험수익률 (미지정 시 조회 후 fallback)")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "유니버스/엔진 프로필 YAML (SCHEDULE_* 등 override)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug 로그)")
}
