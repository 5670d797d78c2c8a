// Package requestid tags every request with a correlation id so log lines
// and error responses can be tied back to a single call.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is the wire header the id travels in, both inbound and outbound.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware stores a request id in the Gin context and echoes it on the
// response. A caller-supplied X-Request-ID wins; otherwise a fresh UUID is
// minted.
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

// Value returns the id Middleware stored for this request, or "" when the
// middleware did not run.
func Value(c *gin.Context) string {
	return c.GetString(contextKey)
}
