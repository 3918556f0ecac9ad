package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"evaluator-backend/internal/evaluations"
	"evaluator-backend/internal/services/health"
	"evaluator-backend/internal/shared/config"
	"evaluator-backend/internal/shared/metrics"
	"evaluator-backend/internal/shared/server/middleware"
	"evaluator-backend/internal/shared/server/respond"
)

const rateGroupEvaluate = "EVALUATE"

// RouterDeps are the handlers mounted under /api/v1.
type RouterDeps struct {
	Config      config.Config
	Evaluations *evaluations.Handler
	Health      *health.Service
	Limiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateGroupFor,
			Limiter:  deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupEvaluate: middleware.PerMinute(deps.Config.RateLimitEvaluationsPerMin),
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	api.GET("/metrics", metrics.Handler())
	if deps.Evaluations != nil {
		deps.Evaluations.RegisterRoutes(api)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && strings.HasPrefix(c.Request.URL.Path, "/api/v1/evaluations") {
		return rateGroupEvaluate
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
