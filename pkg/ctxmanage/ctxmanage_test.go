package ctxmanage

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetTraceId(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	assert.Equal(t, "Unknown", GetTraceId(context.Background()))
	assert.Empty(t, buf.String())

	ctx := WithTraceId(context.Background(), "trace-1")
	assert.Equal(t, "trace-1", GetTraceId(ctx))
}

func TestGetTraceIdOfRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest("GET", "/ping", nil)
	c.Request = req.WithContext(WithTraceId(req.Context(), "trace-2"))
	assert.Equal(t, "trace-2", GetTraceIdOfRequest(c))
}
