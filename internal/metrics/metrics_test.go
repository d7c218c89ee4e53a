package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserveSolve(t *testing.T) {
	r := New()
	r.ObserveSolve(contracts.ProblemMaxSharpe, true, 3*time.Millisecond)
	r.ObserveSolve(contracts.ProblemTargetReturn, false, time.Millisecond)
	r.ObserveSolve(contracts.ProblemTargetReturn, false, time.Millisecond)

	body := scrape(t, r)
	assert.Contains(t, body, `frontier_solves_total{outcome="converged",problem="max_sharpe"} 1`)
	assert.Contains(t, body, `frontier_solves_total{outcome="failed",problem="target_return"} 2`)
	assert.Contains(t, body, `frontier_solve_duration_seconds_count{problem="target_return"} 2`)
}

func TestObserveJobAndFrontier(t *testing.T) {
	r := New()
	r.ObserveJob("refresh", nil)
	r.ObserveJob("refresh", errors.New("boom"))
	r.ObserveFrontier(42)

	body := scrape(t, r)
	assert.Contains(t, body, `frontier_job_runs_total{job="refresh",result="success"} 1`)
	assert.Contains(t, body, `frontier_job_runs_total{job="refresh",result="error"} 1`)
	assert.Contains(t, body, `frontier_frontier_points_sum 42`)
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	r := New()

	router := mux.NewRouter()
	router.Use(r.Middleware())
	router.HandleFunc("/api/runs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	body := scrape(t, r)
	assert.Contains(t, body, `frontier_http_requests_total{method="GET",route="/api/runs/{id}",status="404"} 3`)
	assert.NotContains(t, body, `route="/api/runs/1"`)
}

func TestSeparateRegistries(t *testing.T) {
	// 전역 레지스트리를 쓰지 않으므로 두 번 생성해도 panic 없음
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
