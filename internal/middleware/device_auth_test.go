package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"poker-coach/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDeviceAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", middleware.DeviceAuth("secret", zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"bearer", "/ws", "Bearer secret", http.StatusOK},
		{"query", "/ws?apiKey=secret", "", http.StatusOK},
		{"wrong", "/ws", "Bearer nope", http.StatusUnauthorized},
		{"missing", "/ws", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
