package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *auth.Keys) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys, err := auth.NewKeys(pk, nil)
	require.NoError(t, err)
	m, err := NewMid(keys)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Logger())
	r.GET("/me", m.Authentication(), func(c *gin.Context) {
		claims := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		c.String(http.StatusOK, claims.Subject)
	})
	r.GET("/admin", m.Authentication(), m.Authorize(func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	}, auth.RoleAdmin))
	return r, keys
}

func token(t *testing.T, k *auth.Keys, subject string, roles ...string) string {
	t.Helper()
	tkn, err := k.GenerateToken(auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: roles,
	})
	require.NoError(t, err)
	return tkn
}

func TestAuthentication(t *testing.T) {
	r, keys := setupRouter(t)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token(t, keys, "7", auth.RoleUser), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(TraceHeader))
		})
	}
}

func TestAuthorize(t *testing.T) {
	r, keys := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, keys, "7", auth.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, keys, "1", auth.RoleAdmin))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
