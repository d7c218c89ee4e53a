package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/frontier/internal/contracts"
)

// RunRepository implements contracts.RunRepository
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveRun inserts a run and returns its id
// 성과는 기간 단위 그대로 저장 (연율화는 조회 측 책임)
func (r *RunRepository) SaveRun(ctx context.Context, run *contracts.OptimizationRun) (int64, error) {
	query := `
		INSERT INTO frontier.optimization_runs
			(problem, assets, weights, expected_return, volatility, sharpe, risk_free_rate, periods_per_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	res := run.Result
	err := r.pool.QueryRow(ctx, query,
		string(res.Problem), res.Assets, res.Weights,
		res.Return, res.Volatility, res.Sharpe,
		run.RiskFreeRate, run.PeriodsPerYear,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]contracts.OptimizationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, problem, assets, weights, expected_return, volatility, sharpe,
		       risk_free_rate, periods_per_year, created_at
		FROM frontier.optimization_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []contracts.OptimizationRun
	for rows.Next() {
		var run contracts.OptimizationRun
		var problem string
		res := &run.Result
		if err := rows.Scan(
			&run.ID, &problem, &res.Assets, &res.Weights,
			&res.Return, &res.Volatility, &res.Sharpe,
			&run.RiskFreeRate, &run.PeriodsPerYear, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		res.Problem = contracts.Problem(problem)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
