package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/frontier/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository
// ⭐ SSOT: 종가 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetCloses retrieves closes for a code within [from, to], oldest first
func (r *PriceRepository) GetCloses(ctx context.Context, code string, from, to time.Time) ([]contracts.ClosePrice, error) {
	query := `
		SELECT code, trade_date, close_price
		FROM frontier.daily_closes
		WHERE code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("query closes: %w", err)
	}
	defer rows.Close()

	var closes []contracts.ClosePrice
	for rows.Next() {
		var c contracts.ClosePrice
		if err := rows.Scan(&c.Code, &c.Date, &c.Close); err != nil {
			return nil, fmt.Errorf("scan close: %w", err)
		}
		closes = append(closes, c)
	}
	return closes, rows.Err()
}

// SaveCloses upserts closes in one batch
func (r *PriceRepository) SaveCloses(ctx context.Context, closes []contracts.ClosePrice) error {
	if len(closes) == 0 {
		return nil
	}

	query := `
		INSERT INTO frontier.daily_closes (code, trade_date, close_price, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (code, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, c := range closes {
		batch.Queue(query, c.Code, c.Date, c.Close)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range closes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert close: %w", err)
		}
	}
	return nil
}
