package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aurelhotels/credential-service/internal/infra/logger"
)

// RequestIDHeader carries the correlation id echoed back to the caller.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

// RequestID echoes the caller's correlation id, minting a fresh one when the
// header is absent or oversized, and threads it through the request context
// so the access log and error payloads can pick it up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(RequestIDHeader, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}
