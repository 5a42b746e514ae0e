package middleware

import (
	"context"

	"github.com/citadelbuy/returns/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingLabels attaches route and method pprof labels to the request
// goroutine for the duration of the handler chain
func ProfilingLabels() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		telemetry.WithProfilingLabels(c.Request.Context(), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		}, "route", route, "method", c.Request.Method)
	}
}
