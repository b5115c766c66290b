package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeviceAuth проверяет ключ приложения, с которым платформа очков открывает
// WebSocket. Ключ берется из "Authorization: Bearer" или из query apiKey.
func DeviceAuth(apiKey string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if got == "" {
			got = c.Query("apiKey")
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			logger.Warn("Device authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Bool("keyPresent", got != ""),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
