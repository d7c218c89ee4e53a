package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/wonny/frontier/internal/contracts"
)

// EfficientFrontier solves the target-return problem on n evenly spaced
// targets between min(μ) and max(μ) inclusive
// 수렴 실패한 점은 결과에서 빠짐 (요청한 개수보다 적을 수 있음)
// 결과는 TargetReturn 오름차순
func (o *Optimizer) EfficientFrontier(ctx context.Context, nPoints int) (contracts.Frontier, error) {
	return o.StreamFrontier(ctx, nPoints, nil)
}

// StreamFrontier is EfficientFrontier with a per-point callback
// onPoint은 solve 완료 순서대로 직렬 호출됨 (target 순서 아님)
func (o *Optimizer) StreamFrontier(ctx context.Context, nPoints int, onPoint func(contracts.FrontierPoint)) (contracts.Frontier, error) {
	if nPoints < 1 {
		return nil, fmt.Errorf("%w: frontier points must be >= 1, got %d", ErrInvalidInput, nPoints)
	}

	targets := o.FrontierTargets(nPoints)

	workers := o.cfg.FrontierWorkers
	if workers < 1 {
		workers = 1
	}

	// 인덱스별 슬롯에 기록하므로 결과 슬라이스 자체는 lock 불필요
	points := make([]contracts.FrontierPoint, len(targets))
	solved := make([]bool, len(targets))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := o.TargetReturn(target)
			if err != nil {
				if errors.Is(err, ErrOptimizationDidNotConverge) {
					o.logger.WithField("target", target).Debug("frontier point dropped")
					return nil
				}
				o.logger.WithError(err).WithField("target", target).Warn("frontier point failed")
				return nil
			}

			point := contracts.FrontierPoint{
				TargetReturn: target,
				Performance:  res.Performance,
			}
			points[i] = point
			solved[i] = true

			if onPoint != nil {
				mu.Lock()
				onPoint(point)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frontier := make(contracts.Frontier, 0, len(points))
	for i, p := range points {
		if solved[i] {
			frontier = append(frontier, p)
		}
	}

	if fo, ok := o.observer.(FrontierObserver); ok {
		fo.ObserveFrontier(len(frontier))
	}

	o.logger.WithFields(map[string]interface{}{
		"requested": nPoints,
		"solved":    len(frontier),
		"workers":   workers,
	}).Info("efficient frontier computed")

	return frontier, nil
}

// FrontierTargets returns the evenly spaced per-period targets
func (o *Optimizer) FrontierTargets(nPoints int) []float64 {
	mean := o.stats.Mean()
	lo, hi := floats.Min(mean), floats.Max(mean)
	if nPoints == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, nPoints), lo, hi)
}
