package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/logger"
)

// syncWindowDays 최근 며칠치를 다시 받아 누락/정정분을 덮어씀
const syncWindowDays = 7

// ClosesLoader fetches closes and stores them through (*marketdata.Loader)
type ClosesLoader interface {
	LoadCloses(ctx context.Context, codes []string, from, to time.Time) (map[string][]contracts.ClosePrice, error)
}

// PriceSyncJob collects recent daily closes into the price repository
// 재최적화 전에 실행되어 DB 이력을 최신으로 유지
type PriceSyncJob struct {
	loader   ClosesLoader
	schedule config.ScheduleConfig
	logger   *logger.Logger
	now      func() time.Time
}

// NewPriceSyncJob creates a new price sync job
func NewPriceSyncJob(loader ClosesLoader, cfg *config.Config, log *logger.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		loader:   loader,
		schedule: cfg.Schedule,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Schedule returns the cron schedule (weekdays at 6 PM KST, 장 마감 후)
func (j *PriceSyncJob) Schedule() string {
	return "0 0 18 * * 1-5"
}

// Run executes the price collection
func (j *PriceSyncJob) Run(ctx context.Context) error {
	codes := j.codes()
	if len(codes) == 0 {
		return ErrNoCodes
	}

	to := j.now()
	from := to.AddDate(0, 0, -syncWindowDays)

	j.logger.WithField("codes", len(codes)).Info("Starting scheduled price sync")

	closes, err := j.loader.LoadCloses(ctx, codes, from, to)
	if err != nil {
		return fmt.Errorf("fetch closes: %w", err)
	}

	total := 0
	for _, c := range closes {
		total += len(c)
	}

	j.logger.WithFields(map[string]interface{}{
		"codes": len(codes),
		"rows":  total,
	}).Info("Scheduled price sync completed")
	return nil
}

// codes returns the universe plus the market proxy
func (j *PriceSyncJob) codes() []string {
	codes := append([]string(nil), j.schedule.Codes...)
	if j.schedule.MarketCode != "" {
		codes = append(codes, j.schedule.MarketCode)
	}
	return codes
}
