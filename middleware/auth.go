package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/auth"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Authentication validates the bearer token and stores its claims on the request context.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		authHeader := c.Request.Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			slog.Error("expected authorization header format: Bearer <token>", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
			return
		}

		claims, err := m.k.ValidateToken(parts[1])
		if err != nil {
			slog.Error("token validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authorize runs next only when the authenticated principal holds one of the roles.
func (m *Mid) Authorize(next gin.HandlerFunc, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)
		claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		if !ok {
			slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
			return
		}
		for _, role := range requiredRoles {
			if claims.HasRole(role) {
				next(c)
				return
			}
		}
		slog.Error("role not permitted", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.Any("Roles", claims.Roles))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": http.StatusText(http.StatusForbidden)})
	}
}
