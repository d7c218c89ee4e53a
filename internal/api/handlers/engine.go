package handlers

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/frontier/internal/analysis"
	"github.com/wonny/frontier/internal/capm"
	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/internal/stats"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/logger"
)

// SeriesLoader loads aligned return series from market data
// *marketdata.Loader가 구현
type SeriesLoader interface {
	LoadSeries(ctx context.Context, codes []string, from, to time.Time) (*returns.Series, error)
	LoadWithMarket(ctx context.Context, codes []string, marketCode string, from, to time.Time) (*returns.Series, []float64, error)
	RiskFreeRate(ctx context.Context, fallback float64) float64
}

// EngineHandler serves the optimization engine over HTTP
type EngineHandler struct {
	engine   config.EngineConfig
	loader   SeriesLoader            // nil이면 codes 입력 불가
	runs     contracts.RunRepository // nil이면 run 저장 생략
	observer optimizer.Observer
	origins  []string // WebSocket 허용 Origin
	logger   *logger.Logger
	now      func() time.Time
}

// NewEngineHandler creates a new engine handler
func NewEngineHandler(engine config.EngineConfig, loader SeriesLoader, runs contracts.RunRepository, log *logger.Logger) *EngineHandler {
	return &EngineHandler{
		engine: engine,
		loader: loader,
		runs:   runs,
		logger: log,
		now:    time.Now,
	}
}

// WithObserver attaches a solve observer (metrics)
func (h *EngineHandler) WithObserver(obs optimizer.Observer) *EngineHandler {
	h.observer = obs
	return h
}

// WithAllowedOrigins sets the cross-origin allow-list of the frontier stream
func (h *EngineHandler) WithAllowedOrigins(origins []string) *EngineHandler {
	h.origins = origins
	return h
}

// OptimizeResponse is the response of POST /api/optimize
type OptimizeResponse struct {
	Result         *contracts.PortfolioResult `json:"result"` // 기간 단위
	Annual         contracts.Performance      `json:"annual"`
	RiskFreeRate   float64                    `json:"risk_free_rate"`
	PeriodsPerYear float64                    `json:"periods_per_year"`
	RunID          int64                      `json:"run_id,omitempty"`
}

// FrontierResponse is the response of POST /api/frontier
type FrontierResponse struct {
	Requested int                `json:"requested"`
	Points    contracts.Frontier `json:"points"` // 기간 단위
	Annual    contracts.Frontier `json:"annual"`
}

// CMLResponse is the response of POST /api/cml
type CMLResponse struct {
	Line   *capm.CapitalMarketLine `json:"line"`
	Points []contracts.CMLPoint    `json:"points"`

	// target_return이 주어진 경우 (연율), 도달 불가면 null
	TargetReturn       *float64 `json:"target_return,omitempty"`
	RequiredVolatility *float64 `json:"required_volatility,omitempty"`
}

// SMLResponse is the response of POST /api/sml
// 모든 값은 기간 단위
type SMLResponse struct {
	MarketReturn     float64               `json:"market_return"`
	MarketVolatility float64               `json:"market_volatility"`
	RiskFreeRate     float64               `json:"risk_free_rate"`
	Records          []contracts.SMLRecord `json:"records"`
}

// =============================================================================
// Endpoints
// =============================================================================

// Optimize solves one problem family
// POST /api/optimize
func (h *EngineHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	req, ds, opt, ok := h.prepare(w, r)
	if !ok {
		return
	}

	problem := contracts.ProblemMaxSharpe
	if req.Problem != "" {
		if !contracts.IsValidProblem(req.Problem) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid problem (valid: %v)", contracts.AllProblems()))
			return
		}
		problem = contracts.Problem(req.Problem)
	}

	var result *contracts.PortfolioResult
	var err error
	switch problem {
	case contracts.ProblemMaxSharpe:
		result, err = opt.MaxSharpe()
	case contracts.ProblemMinVariance:
		result, err = opt.MinVariance()
	case contracts.ProblemTargetReturn:
		if req.TargetReturn == nil {
			respondError(w, http.StatusBadRequest, "target_return is required for problem target_return")
			return
		}
		result, err = opt.TargetReturn(*req.TargetReturn)
	}
	if err != nil {
		h.fail(w, "optimize", err)
		return
	}

	resp := OptimizeResponse{
		Result:         result,
		Annual:         result.Performance.Annualized(ds.engine.PeriodsPerYear),
		RiskFreeRate:   ds.rf,
		PeriodsPerYear: ds.engine.PeriodsPerYear,
	}

	if h.runs != nil {
		run := &contracts.OptimizationRun{
			Result:         *result,
			RiskFreeRate:   ds.rf,
			PeriodsPerYear: ds.engine.PeriodsPerYear,
		}
		if id, err := h.runs.SaveRun(r.Context(), run); err != nil {
			h.logger.WithError(err).Warn("Failed to save optimization run")
		} else {
			resp.RunID = id
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// Frontier computes the efficient frontier
// POST /api/frontier
func (h *EngineHandler) Frontier(w http.ResponseWriter, r *http.Request) {
	req, ds, opt, ok := h.prepare(w, r)
	if !ok {
		return
	}

	n, err := h.points(req)
	if err != nil {
		h.fail(w, "frontier", err)
		return
	}
	frontier, err := opt.EfficientFrontier(r.Context(), n)
	if err != nil {
		h.fail(w, "frontier", err)
		return
	}

	respondJSON(w, http.StatusOK, FrontierResponse{
		Requested: n,
		Points:    frontier,
		Annual:    frontier.Annualized(ds.engine.PeriodsPerYear),
	})
}

// FrontierChart renders the annualized frontier with the CML as PNG
// POST /api/frontier/chart
func (h *EngineHandler) FrontierChart(w http.ResponseWriter, r *http.Request) {
	req, ds, opt, ok := h.prepare(w, r)
	if !ok {
		return
	}

	n, err := h.points(req)
	if err != nil {
		h.fail(w, "frontier chart", err)
		return
	}
	maxSharpe, err := opt.MaxSharpe()
	if err != nil {
		h.fail(w, "frontier chart", err)
		return
	}
	frontier, err := opt.EfficientFrontier(r.Context(), n)
	if err != nil {
		h.fail(w, "frontier chart", err)
		return
	}

	p := ds.engine.PeriodsPerYear
	cml := capm.NewCapitalMarketLine(maxSharpe.Performance, ds.rf, p)

	title := req.Name
	if title == "" {
		title = "Efficient Frontier"
	}
	png, err := analysis.RenderFrontierChart(title, frontier.Annualized(p), cml)
	if err != nil {
		h.fail(w, "frontier chart", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// CML returns the Capital Market Line of the max-Sharpe portfolio
// POST /api/cml
func (h *EngineHandler) CML(w http.ResponseWriter, r *http.Request) {
	req, ds, opt, ok := h.prepare(w, r)
	if !ok {
		return
	}

	maxSharpe, err := opt.MaxSharpe()
	if err != nil {
		h.fail(w, "cml", err)
		return
	}

	line := capm.NewCapitalMarketLine(maxSharpe.Performance, ds.rf, ds.engine.PeriodsPerYear)

	vols := req.Volatilities
	if len(vols) == 0 {
		vols = analysis.CMLRiskLevels
	}

	resp := CMLResponse{
		Line:   line,
		Points: line.Points(vols),
	}
	if req.TargetReturn != nil {
		resp.TargetReturn = req.TargetReturn
		// JSON은 +Inf를 표현할 수 없음 → null
		if v := line.RequiredVolatility(*req.TargetReturn); !math.IsInf(v, 0) {
			resp.RequiredVolatility = &v
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// SML analyzes every asset against the market proxy
// POST /api/sml
func (h *EngineHandler) SML(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		h.fail(w, "sml", err)
		return
	}
	ds, err := h.resolve(r.Context(), req)
	if err != nil {
		h.fail(w, "sml", err)
		return
	}
	if len(ds.market) == 0 {
		respondError(w, http.StatusBadRequest, "market or market_code is required")
		return
	}

	marketReturn, marketVol := stat.MeanStdDev(ds.market, nil)
	periodRF := ds.rf / ds.engine.PeriodsPerYear

	sml := capm.NewSecurityMarketLine(marketReturn, marketVol, periodRF, ds.engine.MarketVarianceFloor)
	records, err := sml.AnalyzeAssets(ds.series, ds.market)
	if err != nil {
		h.fail(w, "sml", err)
		return
	}

	respondJSON(w, http.StatusOK, SMLResponse{
		MarketReturn:     marketReturn,
		MarketVolatility: marketVol,
		RiskFreeRate:     periodRF,
		Records:          records,
	})
}

// Analyze builds the full analysis report
// POST /api/analyze (?format=text 이면 텍스트 리포트)
func (h *EngineHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ds, opt, ok := h.prepare(w, r)
	if !ok {
		return
	}

	n, err := h.points(req)
	if err != nil {
		h.fail(w, "analyze", err)
		return
	}

	analyzer := analysis.NewAnalyzer(opt, ds.series, h.logger)
	report, err := analyzer.Run(r.Context(), analysis.Options{
		Name:                req.Name,
		FrontierPoints:      n,
		MarketProxy:         ds.market,
		MarketVarianceFloor: ds.engine.MarketVarianceFloor,
	})
	if err != nil {
		h.fail(w, "analyze", err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		var buf bytes.Buffer
		if err := analysis.WriteText(&buf, report); err != nil {
			h.fail(w, "analyze", err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// =============================================================================
// Helpers
// =============================================================================

// prepare decodes the request and builds the optimizer
// false이면 이미 에러 응답을 기록함
func (h *EngineHandler) prepare(w http.ResponseWriter, r *http.Request) (*EngineRequest, *dataset, *optimizer.Optimizer, bool) {
	req, err := decodeRequest(r)
	if err != nil {
		h.fail(w, "decode", err)
		return nil, nil, nil, false
	}

	ds, opt, err := h.build(r.Context(), req)
	if err != nil {
		h.fail(w, "prepare", err)
		return nil, nil, nil, false
	}
	return req, ds, opt, true
}

// build resolves the dataset and creates its optimizer
func (h *EngineHandler) build(ctx context.Context, req *EngineRequest) (*dataset, *optimizer.Optimizer, error) {
	ds, err := h.resolve(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	st, err := stats.New(ds.series, ds.rf, stats.FromEngine(ds.engine))
	if err != nil {
		return nil, nil, err
	}

	opts := []optimizer.Option{optimizer.WithLogger(h.logger)}
	if h.observer != nil {
		opts = append(opts, optimizer.WithObserver(h.observer))
	}
	return ds, optimizer.New(st, optimizer.FromEngine(ds.engine), opts...), nil
}

// points resolves the requested frontier size (0이면 설정값)
func (h *EngineHandler) points(req *EngineRequest) (int, error) {
	switch {
	case req.Points < 0:
		return 0, fmt.Errorf("%w: 'points' must be positive", ErrBadRequest)
	case req.Points > maxFrontierPoints:
		return 0, fmt.Errorf("%w: 'points' must be at most %d", ErrBadRequest, maxFrontierPoints)
	case req.Points == 0:
		return h.engine.FrontierPoints, nil
	}
	return req.Points, nil
}

// fail logs and writes the mapped error response
func (h *EngineHandler) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	entry := h.logger.WithError(err).WithField("op", op)
	if status >= http.StatusInternalServerError {
		entry.Error("Engine request failed")
	} else {
		entry.Debug("Engine request rejected")
	}
	respondError(w, status, clientMessage(status, err))
}
