package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/pkg/config"
)

const (
	dateLayout = "2006-01-02"

	// maxBodyBytes 수익률 행렬 인라인 입력 상한
	maxBodyBytes = 8 << 20

	defaultLookbackDays = 730

	// maxFrontierPoints 요청당 frontier 점 수 상한 (점마다 제약 최적화 한 번)
	maxFrontierPoints = 1000
)

// EngineRequest is the common body of the engine endpoints
// 수익률을 직접 넣거나 (assets + returns) 종목 코드로 조회 (codes + from/to)
type EngineRequest struct {
	Name string `json:"name,omitempty"`

	// 인라인 입력: returns[t][i]는 기간 t, 자산 i의 수익률
	Assets  []string    `json:"assets,omitempty"`
	Returns [][]float64 `json:"returns,omitempty"`
	Market  []float64   `json:"market,omitempty"` // SML 시장 대리지표, returns와 같은 기간 수

	// 조회 입력
	Codes      []string `json:"codes,omitempty"`
	MarketCode string   `json:"market_code,omitempty"`
	From       string   `json:"from,omitempty"` // YYYY-MM-DD
	To         string   `json:"to,omitempty"`

	RiskFreeRate   *float64 `json:"risk_free_rate,omitempty"` // 연율, 없으면 조회 후 fallback
	PeriodsPerYear float64  `json:"periods_per_year,omitempty"`

	// 엔진 파라미터
	Problem      string    `json:"problem,omitempty"`
	TargetReturn *float64  `json:"target_return,omitempty"` // optimize: 기간 단위, cml: 연율
	Points       int       `json:"points,omitempty"`
	Volatilities []float64 `json:"volatilities,omitempty"` // CML 평가 지점 (연율)
}

// dataset is a resolved request: series, optional market proxy and engine constants
type dataset struct {
	series *returns.Series
	market []float64
	rf     float64 // 연율
	engine config.EngineConfig
}

func decodeRequest(r *http.Request) (*EngineRequest, error) {
	var req EngineRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %v", ErrBadRequest, err)
	}
	return &req, nil
}

// resolve turns a request into a dataset
func (h *EngineHandler) resolve(ctx context.Context, req *EngineRequest) (*dataset, error) {
	engine := h.engine
	if req.PeriodsPerYear > 0 {
		engine.PeriodsPerYear = req.PeriodsPerYear
	}

	ds := &dataset{engine: engine}

	switch {
	case len(req.Returns) > 0:
		series, err := returns.NewSeries(req.Assets, nil, req.Returns)
		if err != nil {
			return nil, err
		}
		ds.series = series
		ds.market = req.Market

	case len(req.Codes) > 0:
		if h.loader == nil {
			return nil, fmt.Errorf("%w: market data", ErrNotConfigured)
		}
		from, to, err := parseRange(req.From, req.To, h.now())
		if err != nil {
			return nil, err
		}
		if req.MarketCode != "" {
			ds.series, ds.market, err = h.loader.LoadWithMarket(ctx, req.Codes, req.MarketCode, from, to)
		} else {
			ds.series, err = h.loader.LoadSeries(ctx, req.Codes, from, to)
		}
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: either returns or codes is required", ErrBadRequest)
	}

	switch {
	case req.RiskFreeRate != nil:
		ds.rf = *req.RiskFreeRate
	case h.loader != nil:
		ds.rf = h.loader.RiskFreeRate(ctx, engine.RiskFreeRate)
	default:
		ds.rf = engine.RiskFreeRate
	}

	return ds, nil
}

// parseRange parses YYYY-MM-DD bounds; defaults to the last defaultLookbackDays days
func parseRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	to := now
	if toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid 'to' date (expected YYYY-MM-DD)", ErrBadRequest)
		}
		to = t
	}

	from := to.AddDate(0, 0, -defaultLookbackDays)
	if fromStr != "" {
		f, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid 'from' date (expected YYYY-MM-DD)", ErrBadRequest)
		}
		from = f
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 'from' must be before 'to'", ErrBadRequest)
	}
	return from, to, nil
}
