package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// PriceRepository manages daily close history
type PriceRepository interface {
	GetCloses(ctx context.Context, code string, from, to time.Time) ([]ClosePrice, error)
	SaveCloses(ctx context.Context, closes []ClosePrice) error
}

// ClosePrice represents a daily close record
type ClosePrice struct {
	Code  string    `json:"code"`
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// RunRepository persists optimization runs
type RunRepository interface {
	SaveRun(ctx context.Context, run *OptimizationRun) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]OptimizationRun, error)
}

// OptimizationRun is a persisted PortfolioResult with its inputs
type OptimizationRun struct {
	ID             int64           `json:"id"`
	Result         PortfolioResult `json:"result"`
	RiskFreeRate   float64         `json:"risk_free_rate"` // 연율
	PeriodsPerYear float64         `json:"periods_per_year"`
	CreatedAt      time.Time       `json:"created_at"`
}
