package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lisho/deontolog-ia-feedback/internal/metrics"
)

// Metrics records request count and latency by route pattern, never by raw
// path, so ids in URLs do not create new series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
