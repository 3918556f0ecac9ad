package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evaluator-backend/internal/services/health"
	"evaluator-backend/internal/shared/config"
	"evaluator-backend/internal/shared/server/middleware"
)

func testRouter(t *testing.T, perMinute int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterDeps{
		Config:  config.Config{Env: "dev", RateLimitEvaluationsPerMin: perMinute},
		Health:  health.NewService(nil, "openai", false),
		Limiter: middleware.NewRateLimiter(nil),
	})
}

func TestHealthReportsDispatchMode(t *testing.T) {
	r := testRouter(t, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dispatch":"inline"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := testRouter(t, 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "evaluation_started_total")
}

func TestEvaluationCreationIsRateLimited(t *testing.T) {
	r := testRouter(t, 1)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", strings.NewReader(`{}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	// No evaluations handler is mounted, so the first request falls through to 404.
	assert.Equal(t, http.StatusNotFound, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
}
