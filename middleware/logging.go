package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TraceIDHeader carries the trace id on requests and responses.
const TraceIDHeader = "X-Trace-ID"

// TraceParentHeader is the W3C Trace Context request header.
const TraceParentHeader = "traceparent"

// GetTraceID extracts a trace id from the request headers, preferring the
// W3C traceparent, and generates one when none is present.
func GetTraceID(c *gin.Context) string {
	// traceparent format: version-trace_id-parent_id-flags
	if tp := c.GetHeader(TraceParentHeader); tp != "" {
		parts := strings.Split(tp, "-")
		if len(parts) >= 2 && parts[1] != "" {
			return parts[1]
		}
	}

	if traceID := c.GetHeader(TraceIDHeader); traceID != "" {
		return traceID
	}

	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// LoggingMiddleware attaches a trace-scoped zerolog sub-logger to the
// request context and emits one structured line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		traceID := GetTraceID(c)
		c.Set("trace_id", traceID)

		logger := log.With().Str("trace_id", traceID).Logger()
		ctx := logger.WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		c.Header(TraceIDHeader, traceID)

		c.Next()

		statusCode := c.Writer.Status()

		var event *zerolog.Event
		if statusCode >= 400 {
			event = logger.Error()
		} else {
			event = logger.Info()
		}

		event.
			Str("method", method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
