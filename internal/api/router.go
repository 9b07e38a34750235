package api

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/wonny/gem/backend/internal/api/handlers"
	"github.com/wonny/gem/backend/internal/metrics"
	"github.com/wonny/gem/backend/pkg/config"
	"github.com/wonny/gem/backend/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	compositeHandler *handlers.CompositeHandler,
	healthHandler *handlers.HealthHandler,
	cfg *config.Config,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Composite endpoints
	api.HandleFunc("/composite/config", compositeHandler.GetConfig).Methods("GET")
	api.HandleFunc("/composite/intervals", compositeHandler.GetIntervals).Methods("GET")
	api.HandleFunc("/composite/runs", compositeHandler.ListRuns).Methods("GET")
	api.HandleFunc("/composite/runs/{id}", compositeHandler.GetRun).Methods("GET")

	// evaluation is the only expensive route
	limiter := rate.NewLimiter(rate.Limit(cfg.API.RateLimit), cfg.API.RateBurst)
	api.Handle("/composite/evaluate",
		rateLimitMiddleware(limiter)(http.HandlerFunc(compositeHandler.Evaluate)),
	).Methods("POST")

	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests and records their metrics
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			metrics.RecordHTTPRequest(route, m.Code, m.Duration)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   m.Code,
				"bytes":    m.Written,
				"duration": m.Duration,
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

					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware rejects requests above the limiter's rate with 429
func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
