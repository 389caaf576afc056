package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header is echoed back on every response so clients can correlate
	// logs with their own traces.
	Header = "X-Request-ID"

	contextKey = "request_id"
)

// Middleware tags each request with an ID. An inbound X-Request-ID header is
// trusted and reused; otherwise a fresh UUID is generated.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the request ID for the current request, or "" when the
// middleware has not run.
func Value(c *gin.Context) string {
	id, _ := c.Value(contextKey).(string)
	return id
}
