package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the tables used by internal/repository
// ⭐ SSOT: 테이블 정의는 여기서만
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS frontier`,

	// 종가 시계열 (수익률은 조회 시 계산)
	`CREATE TABLE IF NOT EXISTS frontier.daily_closes (
		code        VARCHAR(20) NOT NULL,
		trade_date  DATE        NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (code, trade_date)
	)`,

	// 최적화 실행 이력
	`CREATE TABLE IF NOT EXISTS frontier.optimization_runs (
		id              BIGSERIAL PRIMARY KEY,
		problem         VARCHAR(30) NOT NULL,
		assets          TEXT[]      NOT NULL,
		weights         DOUBLE PRECISION[] NOT NULL,
		expected_return DOUBLE PRECISION NOT NULL,
		volatility      DOUBLE PRECISION NOT NULL,
		sharpe          DOUBLE PRECISION NOT NULL,
		risk_free_rate  DOUBLE PRECISION NOT NULL,
		periods_per_year DOUBLE PRECISION NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_optimization_runs_created
		ON frontier.optimization_runs (created_at DESC)`,
}

// EnsureSchema applies the DDL idempotently
func (db *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
