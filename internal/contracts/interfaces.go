package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: 외부 협력자 인터페이스

// MarketDataProvider supplies price history and the risk-free rate
// 엔진은 데이터를 직접 조회하지 않음
type MarketDataProvider interface {
	// FetchCloses returns daily closes for code in [from, to], oldest first
	FetchCloses(ctx context.Context, code string, from, to time.Time) ([]ClosePrice, error)

	// RiskFreeRate returns the annual risk-free rate as a decimal (0.045 = 4.5%)
	RiskFreeRate(ctx context.Context) (float64, error)
}
