package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gem/backend/internal/api/handlers"
	"github.com/wonny/gem/backend/internal/composite"
	"github.com/wonny/gem/backend/internal/compositeconfig"
	"github.com/wonny/gem/backend/pkg/config"
	"github.com/wonny/gem/backend/pkg/logger"
)

func newTestRouter(t *testing.T, burst int) http.Handler {
	t.Helper()

	e, err := composite.NewEvaluator(compositeconfig.Default(), logger.Nop())
	require.NoError(t, err)

	ch, err := handlers.NewCompositeHandler(e, composite.NewBatch(e, 1, logger.Nop()), nil, nil, nil, time.Minute, logger.Nop())
	require.NoError(t, err)

	cfg := &config.Config{API: config.APIConfig{RateLimit: 0.001, RateBurst: burst}}
	return NewRouter(ch, handlers.NewHealthHandler("gem-composite", nil), cfg, logger.Nop())
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(t, 10)

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/composite/config", http.StatusOK},
		{http.MethodGet, "/api/composite/intervals", http.StatusOK},
		{http.MethodGet, "/api/composite/runs", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/composite/evaluate", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.code, serve(r, tt.method, tt.path, "").Code)
		})
	}
}

func TestRouter_EvaluateRateLimited(t *testing.T) {
	r := newTestRouter(t, 1)

	body := `{"normalization_factor": 1, "pixels": [{"id": "a", "samples": [], "scenes": []}]}`
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/composite/evaluate", body).Code)

	rec := serve(r, http.MethodPost, "/api/composite/evaluate", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// read routes are not limited
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/composite/config", "").Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	h := loggingMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	}))

	rec := serve(h, http.MethodGet, "/pot", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "tea", rec.Body.String())
}
