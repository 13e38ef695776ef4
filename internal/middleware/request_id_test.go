package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDLoggerRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID(), Logger(log), Recovery(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/ok", http.NoBody)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, buf.String(), "panic recovered")
}
