package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"poker-coach/internal/analyzer"
	"poker-coach/internal/config"
	"poker-coach/internal/conversation"
	"poker-coach/internal/detector"
	"poker-coach/internal/device"
	"poker-coach/internal/handler"
	"poker-coach/internal/logger"
	"poker-coach/internal/messaging"
	"poker-coach/internal/photocache"
	"poker-coach/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "poker-coach",
		Env:      cfg.Env,
	})
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)
	cfg.Log(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	photos, closePhotos, err := photocache.New(ctx, photocache.Options{
		Backend:       cfg.PhotoCacheBackend,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize photo cache", zap.Error(err))
	}
	defer func() {
		if err := closePhotos(); err != nil {
			zapLogger.Error("Failed to close photo cache", zap.Error(err))
		}
	}()

	// --- External services ---
	cardDetector, err := detector.NewRoboflowDetector(detector.Config{
		BaseURL:       cfg.RoboflowBaseURL,
		Model:         cfg.RoboflowModel,
		Version:       cfg.RoboflowVersion,
		APIKey:        cfg.RoboflowAPIKey,
		MinConfidence: cfg.DetectorMinConfidence,
		Timeout:       cfg.DetectTimeout,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create card detector", zap.Error(err))
	}

	aiClient, err := analyzer.NewAIClient(analyzer.ClientConfig{
		Type:    cfg.AIClientType,
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create AI client", zap.Error(err))
	}

	estimator, err := analyzer.NewTiktokenEstimator(cfg.AIModel)
	if err != nil {
		zapLogger.Warn("Token estimation disabled", zap.Error(err))
		estimator = nil
	}
	handAnalyzer := analyzer.NewHandAnalyzer(aiClient, estimator, zapLogger)

	publisher := newPublisher(ctx, cfg, zapLogger)
	defer func() {
		if err := publisher.Close(); err != nil {
			zapLogger.Error("Failed to close hand event publisher", zap.Error(err))
		}
	}()

	// --- Coaching sessions ---
	registry := service.NewSessionRegistry(ctx, service.RegistryConfig{
		Voice:        cfg.VoiceSettings(),
		SpeakTimeout: cfg.SpeakTimeout,
		SystemPrompt: conversation.DefaultSystemPrompt,
	}, zapLogger)
	controller := service.NewStageController(service.ControllerConfig{
		PublicURL:      cfg.PublicURL,
		CaptureTimeout: cfg.CaptureTimeout,
		DetectTimeout:  cfg.DetectTimeout,
		AnalyzeTimeout: cfg.AnalyzeTimeout,
		ChimeURL:       cfg.ChimeURL,
		ChimeVolume:    cfg.ChimeVolume,
	}, photos, cardDetector, handAnalyzer, publisher, zapLogger)
	coach := service.NewCoach(registry, controller, zapLogger)

	connections := device.NewConnectionManager(zapLogger)
	wsHandler := device.NewWebSocketHandler(connections, coach, cfg.DemoUserID, zapLogger)

	// --- HTTP Server Setup (Gin) ---
	router := handler.NewRouter(handler.RouterConfig{
		Env:                cfg.Env,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MetricsEnabled:     cfg.MetricsEnabled,
		DeviceAPIKey:       cfg.MentraOSAPIKey,
	},
		handler.NewPhotoHandler(photos, cfg.DemoUserID, zapLogger),
		handler.NewWebviewHandler(cfg.DemoUserID, zapLogger),
		wsHandler.ServeWS,
		zapLogger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("port", cfg.Port), zap.String("publicURL", cfg.PublicURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked WebSocket соединения Shutdown не закрывает
	connections.CloseAll()
	registry.EndAll("shutdown")
	coach.Wait()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited")
}

// newPublisher подключается к RabbitMQ, если он настроен.
func newPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) messaging.HandEventPublisher {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, hand events are not published")
		return messaging.NopPublisher{}
	}

	conn, err := messaging.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, 5, 5*time.Second, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
	}
	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Не удалось открыть канал RabbitMQ", zap.Error(err))
	}
	publisher, err := messaging.NewRabbitMQPublisher(ch, messaging.HandEventsExchange, logger)
	if err != nil {
		logger.Fatal("Failed to create hand event publisher", zap.Error(err))
	}
	logger.Info("Успешное подключение к RabbitMQ")
	return &connPublisher{HandEventPublisher: publisher, conn: conn}
}

// connPublisher закрывает соединение вместе с каналом.
type connPublisher struct {
	messaging.HandEventPublisher
	conn interface{ Close() error }
}

func (p *connPublisher) Close() error {
	err := p.HandEventPublisher.Close()
	if cerr := p.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
