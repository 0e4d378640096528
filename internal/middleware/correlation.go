// Package middleware contains Gin middleware for the application.
package middleware

import (
	"context"

	"github.com/roomrelay/signaling/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderXCorrelationID is the header key for the correlation ID.
const HeaderXCorrelationID = "X-Correlation-ID"

// CorrelationID adds a correlation ID to the request context, reusing one
// supplied by the client so a request can be traced across proxies.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderXCorrelationID)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		// Set in header for response
		c.Header(HeaderXCorrelationID, correlationID)

		// Set in gin's own context for handlers that read via c.Get
		c.Set(string(logging.CorrelationIDKey), correlationID)

		// Set in the request's context.Context so internal/logging's
		// ctx.Value(logging.CorrelationIDKey) lookup (a typed key, not the
		// string gin.Context.Value accepts) finds it too.
		ctx := context.WithValue(c.Request.Context(), logging.CorrelationIDKey, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
