package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin context keys shared by middleware, handlers and error logging.
const (
	RequestIDKey    = "requestId"
	EvaluationIDKey = "evaluationId"
)

// SetEvaluationID tags the request with the evaluation it created or read, so request and
// error logs carry it.
func SetEvaluationID(c *gin.Context, id string) {
	if id != "" {
		c.Set(EvaluationIDKey, id)
	}
}

// JSON writes a no-store JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Accepted writes 202 with a Location header pointing at the resource to poll.
func Accepted(c *gin.Context, location string, payload any) {
	if location != "" {
		c.Header("Location", location)
	}
	JSON(c, http.StatusAccepted, payload)
}
