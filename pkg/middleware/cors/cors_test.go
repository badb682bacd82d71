package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(t *testing.T, cfg Config, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(cfg))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{"https://portal.example.edu/"}}

	w := serve(t, cfg, http.MethodGet, "https://portal.example.edu")
	assert.Equal(t, "https://portal.example.edu", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(t, cfg, http.MethodGet, "https://evil.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSUsesConfiguredHeadersAndMaxAge(t *testing.T) {
	cfg := Config{
		AllowedHeaders: []string{"Authorization", "X-Custom-Header"},
		MaxAge:         time.Minute,
	}

	w := serve(t, cfg, http.MethodGet, "")
	assert.Equal(t, "Authorization, X-Custom-Header", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "60", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORSShortCircuitsPreflight(t *testing.T) {
	w := serve(t, Config{}, http.MethodOptions, "https://portal.example.edu")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
}
