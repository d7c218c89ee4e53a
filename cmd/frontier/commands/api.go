package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/api"
	"github.com/wonny/frontier/internal/api/handlers"
	"github.com/wonny/frontier/internal/metrics"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                  - Health check
  GET  /metrics                 - Prometheus metrics
  POST /api/optimize            - 단일 최적화 (max_sharpe|min_variance|target_return)
  POST /api/frontier            - 효율적 투자선
  POST /api/frontier/chart      - 효율적 투자선 + CML 차트 (PNG)
  GET  /api/frontier/stream     - 효율적 투자선 스트리밍 (WebSocket)
  POST /api/cml                 - 자본시장선
  POST /api/sml                 - 증권시장선
  POST /api/analyze             - 전체 분석 리포트 (?format=text)
  GET  /api/runs                - 저장된 최적화 실행 목록

Example:
  go run ./cmd/frontier api
  go run ./cmd/frontier api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(stdout, "=== Frontier API Server ===")

	rt, err := newRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Override port if flag is set
	if apiPort != "" {
		rt.cfg.Port = apiPort
	}

	if rt.db != nil {
		if err := rt.db.EnsureSchema(cmd.Context()); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	reg := metrics.New()

	engineHandler := handlers.NewEngineHandler(rt.cfg.Engine, rt.loader, rt.runs, rt.log).
		WithObserver(reg).
		WithAllowedOrigins(rt.cfg.AllowedOrigins)
	runsHandler := handlers.NewRunsHandler(rt.runs, rt.log)

	router := api.NewRouter(engineHandler, runsHandler, reg, rt.log)
	server := api.New(rt.cfg, rt.log, router)

	rt.log.WithFields(map[string]interface{}{
		"persistence": rt.runs != nil,
		"cache":       rt.redis.Enabled(),
		"origins":     len(rt.cfg.AllowedOrigins),
	}).Info("API server configured")
	fmt.Fprintf(stdout, "\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Fprintln(stdout, "\nPress Ctrl+C to stop")

	// Ctrl+C → drain (최대 30초) → 남은 스트림 종료
	if err := server.Run(cmd.Context()); err != nil {
		return err
	}

	rt.log.Info("Server stopped")
	return nil
}
