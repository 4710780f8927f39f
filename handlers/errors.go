package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
	"storefront/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var statusOf = map[apperr.Kind]int{
	apperr.KindNotFound:    http.StatusNotFound,
	apperr.KindValidation:  http.StatusBadRequest,
	apperr.KindConflict:    http.StatusConflict,
	apperr.KindProtected:   http.StatusMethodNotAllowed,
	apperr.KindUnavailable: http.StatusServiceUnavailable,
}

// respondError writes the response for a failed operation. Field level failures
// are rendered as {"field": ["message"]}, everything else as {"detail": "message"}.
func respondError(c *gin.Context, err error) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if fields, ok := validation.Fields(err); ok {
		slog.Info("validation failed", slog.String(logkey.TraceID, traceId), slog.Any("Fields", fields))
		c.AbortWithStatusJSON(http.StatusBadRequest, fields)
		return
	}

	kind := apperr.KindOf(err)
	status, ok := statusOf[kind]
	if !ok {
		slog.Error("request failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": http.StatusText(http.StatusInternalServerError)})
		return
	}

	var e *apperr.Error
	errors.As(err, &e)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	} else {
		slog.Info("request rejected", slog.String(logkey.TraceID, traceId),
			slog.String("Kind", kind.String()), slog.String(logkey.ERROR, err.Error()))
	}
	if e.Field == "" || e.Field == "id" {
		c.AbortWithStatusJSON(status, gin.H{"detail": e.Message})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{e.Field: []string{e.Message}})
}

func badRequest(c *gin.Context, err error) {
	slog.Error("invalid request body", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
		slog.String(logkey.ERROR, err.Error()))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
}

func notFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

// int64Param parses a numeric path parameter; a malformed one is answered with 404.
func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		notFound(c)
		return 0, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		notFound(c)
		return uuid.Nil, false
	}
	return id, true
}

func claimsOf(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
	}
	return claims, ok
}
