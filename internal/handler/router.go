// Package handler собирает HTTP-слой: фото, webview, health, метрики и WebSocket.
package handler

import (
	"net/http"
	"sync"
	"time"

	"poker-coach/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// RouterConfig - параметры HTTP-слоя.
type RouterConfig struct {
	Env                string
	CORSAllowedOrigins []string
	MetricsEnabled     bool
	// Пусто = /ws без проверки ключа
	DeviceAPIKey       string
}

// NewRouter builds the gin engine. ws serves the device WebSocket endpoint.
func NewRouter(cfg RouterConfig, photos *PhotoHandler, webview *WebviewHandler, ws gin.HandlerFunc, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapLogger(logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	var metrics *ginprometheus.Prometheus
	if cfg.MetricsEnabled {
		// Считает все маршруты, поэтому подключается до их регистрации.
		metrics = ginMetrics()
		router.Use(metrics.HandlerFunc())
	}

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	photos.RegisterRoutes(router)
	webview.RegisterRoutes(router)
	if cfg.DeviceAPIKey != "" {
		router.GET("/ws", middleware.DeviceAuth(cfg.DeviceAPIKey, logger), ws)
	} else {
		router.GET("/ws", ws)
	}

	if metrics != nil {
		metrics.SetMetricsPath(router)
	}
	return router
}

// ginMetrics регистрирует коллекторы gin один раз на процесс: повторная
// регистрация в default registry не проходит.
var ginMetrics = sync.OnceValue(func() *ginprometheus.Prometheus {
	p := ginprometheus.NewPrometheus("gin")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string { return c.FullPath() }
	return p
})

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "HEAD", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
