package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"evaluator-backend/internal/shared/server/respond"
	"evaluator-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope carrying the request id.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			reqID := RequestIDFromContext(c)
			fields := map[string]any{
				"request_id": reqID,
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			}
			if evaluationID := c.GetString(respond.EvaluationIDKey); evaluationID != "" {
				fields["evaluation_id"] = evaluationID
			}
			telemetry.Error("http.panic", fields)
			respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected server error", gin.H{"requestId": reqID})
		}()
		c.Next()
	}
}
