package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-ID"

// CorrelationID assigns a request-scoped id, honoring one supplied by the
// caller. Internal errors are logged against it so a 500 response can be
// matched to its log lines.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("correlation_id", id)
		c.Writer.Header().Set(correlationHeader, id)
		c.Next()
	}
}

// GetCorrelationID returns the request correlation id, empty if middleware is not installed.
func GetCorrelationID(c *gin.Context) string {
	v, _ := c.Get("correlation_id")
	if v == nil {
		return ""
	}
	return v.(string)
}
