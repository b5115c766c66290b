package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"poker-coach/internal/conversation"
	"poker-coach/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrAIGenerationFailed - ошибка при обращении к AI
var ErrAIGenerationFailed = errors.New("AI generation failed")

// UsageInfo содержит информацию об использовании токенов
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIClient интерфейс для взаимодействия с AI API
type AIClient interface {
	// Chat отправляет историю сообщений и возвращает текст первого ответа.
	Chat(ctx context.Context, userID string, messages []conversation.Message) (string, UsageInfo, error)
	// Model возвращает идентификатор модели для логов и метрик.
	Model() string
}

// ClientConfig - настройки AI клиента.
type ClientConfig struct {
	Type    string // openai | ollama
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// --- OpenAI Client Implementation ---

// openAIClient реализует AIClient с использованием go-openai
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func (c *openAIClient) Model() string { return c.model }

func (c *openAIClient) Chat(ctx context.Context, userID string, messages []conversation.Message) (string, UsageInfo, error) {
	usage := UsageInfo{}

	req := openaigo.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openaigo.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openaigo.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	start := time.Now()
	c.logger.Debug("Sending request to OpenAI",
		zap.String("model", c.model),
		zap.Int("messages", len(messages)),
		zap.String("userID", userID),
	)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error("OpenAI request failed", zap.Duration("duration", duration), zap.String("userID", userID), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %w", ErrAIGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Warn("OpenAI returned empty response", zap.Duration("duration", duration), zap.String("userID", userID))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		usage = UsageInfo{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		observeUsage(c.model, usage)
	}

	c.logger.Debug("OpenAI response received",
		zap.Duration("duration", duration),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens),
		zap.String("userID", userID),
	)
	return resp.Choices[0].Message.Content, usage, nil
}

// --- Ollama Client Implementation ---

// ollamaClient реализует AIClient через нативный API Ollama
type ollamaClient struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

func newOllamaClient(cfg ClientConfig, logger *zap.Logger) (AIClient, error) {
	// api.NewClient ждет адрес без суффикса /v1
	base := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL '%s': %w", base, err)
	}

	logger.Info("Ollama client created", zap.String("baseURL", base), zap.String("model", cfg.Model), zap.Duration("timeout", cfg.Timeout))
	return &ollamaClient{
		client: api.NewClient(parsed, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

func (c *ollamaClient) Chat(ctx context.Context, userID string, messages []conversation.Message) (string, UsageInfo, error) {
	usage := UsageInfo{}

	msgs := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, api.Message{Role: string(m.Role), Content: m.Content})
	}

	req := &api.ChatRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   func(b bool) *bool { return &b }(false),
		// просим у модели строго JSON
		Format: json.RawMessage(`"json"`),
	}

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Ollama request failed", zap.Duration("duration", duration), zap.String("userID", userID), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %w", ErrAIGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		c.logger.Warn("Ollama returned empty response", zap.Duration("duration", duration), zap.String("userID", userID))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	usage = UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	if usage.TotalTokens > 0 {
		observeUsage(c.model, usage)
	}
	return resp.Message.Content, usage, nil
}

func observeUsage(model string, u UsageInfo) {
	aiPromptTokens.With(prometheus.Labels{"model": model}).Observe(float64(u.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": model}).Observe(float64(u.CompletionTokens))
}

// --- Factory Function ---

// NewAIClient создает клиент AI в зависимости от типа в конфигурации
func NewAIClient(cfg ClientConfig, logger *zap.Logger) (AIClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("AIClient")

	switch strings.ToLower(cfg.Type) {
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: OpenAI API key is empty", models.ErrConfiguration)
		}
		openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			openaiConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
		}
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		logger.Info("OpenAI client created", zap.String("baseURL", openaiConfig.BaseURL), zap.String("model", cfg.Model), zap.Duration("timeout", cfg.Timeout))
		return &openAIClient{
			client: openaigo.NewClientWithConfig(openaiConfig),
			model:  cfg.Model,
			logger: logger,
		}, nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown AI client type '%s'", models.ErrConfiguration, cfg.Type)
	}
}
