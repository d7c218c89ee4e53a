package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/frontier/internal/api/handlers"
	"github.com/wonny/frontier/internal/metrics"
	"github.com/wonny/frontier/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
// reg가 nil이면 /metrics와 요청 메트릭을 생략
func NewRouter(engine *handlers.EngineHandler, runs *handlers.RunsHandler, reg *metrics.Registry, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if reg != nil {
		r.Handle("/metrics", reg.Handler()).Methods("GET")
	}

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Engine endpoints
	api.HandleFunc("/optimize", engine.Optimize).Methods("POST")
	api.HandleFunc("/frontier", engine.Frontier).Methods("POST")
	api.HandleFunc("/frontier/chart", engine.FrontierChart).Methods("POST")
	api.HandleFunc("/frontier/stream", engine.StreamFrontier).Methods("GET")
	api.HandleFunc("/cml", engine.CML).Methods("POST")
	api.HandleFunc("/sml", engine.SML).Methods("POST")
	api.HandleFunc("/analyze", engine.Analyze).Methods("POST")

	// Run history
	api.HandleFunc("/runs", runs.List).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	if reg != nil {
		r.Use(reg.Middleware())
	}

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "frontier-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
