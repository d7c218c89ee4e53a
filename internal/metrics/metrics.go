package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/frontier/internal/contracts"
)

const namespace = "frontier"

// Registry holds all Prometheus metrics of the service
// ⭐ SSOT: 메트릭 이름/라벨은 여기서만 정의
type Registry struct {
	reg *prometheus.Registry

	// Optimizer
	Solves        *prometheus.CounterVec   // problem, outcome
	SolveDuration *prometheus.HistogramVec // problem

	// Frontier
	FrontierPoints prometheus.Histogram

	// HTTP
	HTTPRequests *prometheus.CounterVec   // route, method, status
	HTTPDuration *prometheus.HistogramVec // route, method

	// Scheduler
	JobRuns *prometheus.CounterVec // job, result
}

// New creates a registry with all metrics registered
// 기본 전역 레지스트리는 사용하지 않음 (테스트 간 충돌 방지)
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_total",
				Help:      "Optimizer solves by problem and outcome",
			},
			[]string{"problem", "outcome"},
		),

		SolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Duration of a single optimizer solve in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"problem"},
		),

		FrontierPoints: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "frontier_points",
				Help:      "Number of converged points per efficient frontier",
				Buckets:   []float64{5, 10, 25, 50, 100, 200, 500},
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),

		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduled job runs by job and result",
			},
			[]string{"job", "result"},
		),
	}

	r.reg.MustRegister(
		r.Solves,
		r.SolveDuration,
		r.FrontierPoints,
		r.HTTPRequests,
		r.HTTPDuration,
		r.JobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves /metrics
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveSolve implements optimizer.Observer
func (r *Registry) ObserveSolve(problem contracts.Problem, converged bool, elapsed time.Duration) {
	outcome := "converged"
	if !converged {
		outcome = "failed"
	}
	r.Solves.WithLabelValues(problem.String(), outcome).Inc()
	r.SolveDuration.WithLabelValues(problem.String()).Observe(elapsed.Seconds())
}

// ObserveFrontier records the size of a finished frontier
func (r *Registry) ObserveFrontier(points int) {
	r.FrontierPoints.Observe(float64(points))
}

// ObserveJob implements scheduler.JobObserver
func (r *Registry) ObserveJob(job string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.JobRuns.WithLabelValues(job, result).Inc()
}

// =============================================================================
// HTTP middleware
// =============================================================================

// statusRecorder captures the response status for labeling
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack passes through for websocket upgrades
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware records request count and latency per mux route template
// 경로 값 대신 템플릿을 라벨로 사용 (카디널리티 제한)
func (r *Registry) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, req)

			route := "unmatched"
			if current := mux.CurrentRoute(req); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}

			r.HTTPRequests.WithLabelValues(route, req.Method, strconv.Itoa(rec.status)).Inc()
			r.HTTPDuration.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
		})
	}
}
