package ctxmanage

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

type key string

const TraceIdKey key = "1"

// GetTraceIdOfRequest returns the trace id placed on the request context by middleware.Logger.
func GetTraceIdOfRequest(c *gin.Context) string {
	return GetTraceId(c.Request.Context())
}

// GetTraceId returns "Unknown" for contexts that did not come through the HTTP layer,
// such as kafka consumers and tests.
func GetTraceId(ctx context.Context) string {
	traceId, ok := ctx.Value(TraceIdKey).(string)
	if !ok {
		slog.Debug("trace id not present in the context")
		return "Unknown"
	}
	return traceId
}

// WithTraceId stores the trace id so code below the HTTP layer can log it.
func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, TraceIdKey, traceId)
}
