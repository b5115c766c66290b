package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"poker-coach/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Config holds the coach server configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// Идентификатор приложения на платформе очков
	PackageName string `envconfig:"PACKAGE_NAME" required:"true" validate:"required"`
	Port        string `envconfig:"PORT" default:"3000" validate:"numeric"`
	// Публичный адрес сервера; по нему детектор скачивает фото
	PublicURL  string `envconfig:"PUBLIC_URL"`
	DemoUserID string `envconfig:"DEMO_USER_ID" default:"demo-user"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	MetricsEnabled     bool     `envconfig:"METRICS_ENABLED" default:"true"`

	// AI
	AIClientType string        `envconfig:"AI_CLIENT_TYPE" default:"openai" validate:"oneof=openai ollama"`
	AIBaseURL    string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1" validate:"url"`
	AIModel      string        `envconfig:"AI_MODEL" default:"o3-mini" validate:"required"`
	AITimeout    time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`

	// Roboflow
	RoboflowBaseURL       string  `envconfig:"ROBOFLOW_BASE_URL" default:"https://pokerclass.roboflow.cloud" validate:"url"`
	RoboflowModel         string  `envconfig:"ROBOFLOW_MODEL" default:"playing-cards-ow27d" validate:"required"`
	RoboflowVersion       string  `envconfig:"ROBOFLOW_VERSION" default:"4" validate:"required"`
	DetectorMinConfidence float64 `envconfig:"DETECTOR_MIN_CONFIDENCE" default:"0" validate:"gte=0,lte=1"`

	// Хранилище фото: memory или redis
	PhotoCacheBackend string `envconfig:"PHOTO_CACHE_BACKEND" default:"memory" validate:"oneof=memory redis"`
	RedisAddr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB           int    `envconfig:"REDIS_DB" default:"0"`

	// Пусто = события не публикуются
	RabbitMQURL string `envconfig:"RABBITMQ_URL"`

	// Таймауты точек ожидания конвейера
	CaptureTimeout time.Duration `envconfig:"CAPTURE_TIMEOUT" default:"30s"`
	DetectTimeout  time.Duration `envconfig:"DETECT_TIMEOUT" default:"20s"`
	AnalyzeTimeout time.Duration `envconfig:"ANALYZE_TIMEOUT" default:"60s"`
	SpeakTimeout   time.Duration `envconfig:"SPEAK_TIMEOUT" default:"30s"`

	ChimeURL    string  `envconfig:"CHIME_URL" default:"https://raw.githubusercontent.com/VictorChenCA/MentraLiveApp/main/assets/chime-sound.mp3"`
	ChimeVolume float64 `envconfig:"CHIME_VOLUME" default:"0.8" validate:"gte=0,lte=1"`

	VoiceID              string  `envconfig:"VOICE_ID" default:"WdZjiN0nNcik2LBjOHiv"`
	VoiceModelID         string  `envconfig:"VOICE_MODEL_ID" default:"eleven_flash_v2_5"`
	VoiceStability       float64 `envconfig:"VOICE_STABILITY" default:"0.4"`
	VoiceSimilarityBoost float64 `envconfig:"VOICE_SIMILARITY_BOOST" default:"0.85"`
	VoiceStyle           float64 `envconfig:"VOICE_STYLE" default:"0.6"`
	VoiceSpeed           float64 `envconfig:"VOICE_SPEED" default:"0.95"`

	SecretsDir string `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// Секреты БЕЗ envconfig тега: env или файл в SecretsDir
	MentraOSAPIKey string `ignored:"true"`
	OpenAIAPIKey   string `ignored:"true"`
	RoboflowAPIKey string `ignored:"true"`
	RedisPassword  string `ignored:"true"`
}

// VoiceSettings returns the voice parameters sent with every speak request.
func (c *Config) VoiceSettings() models.VoiceSettings {
	return models.VoiceSettings{
		VoiceID:         c.VoiceID,
		ModelID:         c.VoiceModelID,
		Stability:       c.VoiceStability,
		SimilarityBoost: c.VoiceSimilarityBoost,
		Style:           c.VoiceStyle,
		Speed:           c.VoiceSpeed,
	}
}

// LoadConfig загружает .env (если есть), переменные окружения и секреты.
// Любая проблема возвращается как models.ErrConfiguration.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}

	var err error
	if cfg.MentraOSAPIKey, err = requireSecret(cfg.SecretsDir, "MENTRAOS_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.RoboflowAPIKey, err = requireSecret(cfg.SecretsDir, "ROBOFLOW_API_KEY"); err != nil {
		return nil, err
	}
	if strings.EqualFold(cfg.AIClientType, "openai") {
		if cfg.OpenAIAPIKey, err = requireSecret(cfg.SecretsDir, "OPENAI_API_KEY"); err != nil {
			return nil, err
		}
	} else {
		cfg.OpenAIAPIKey = optionalSecret(cfg.SecretsDir, "OPENAI_API_KEY")
	}
	cfg.RedisPassword = optionalSecret(cfg.SecretsDir, "REDIS_PASSWORD")

	if cfg.PublicURL == "" {
		scheme := "http"
		if cfg.Env == "production" {
			scheme = "https"
		}
		cfg.PublicURL = fmt.Sprintf("%s://localhost:%s", scheme, cfg.Port)
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}

	return &cfg, nil
}

// Log пишет загруженную конфигурацию без значений секретов.
func (c *Config) Log(logger *zap.Logger) {
	logger.Info("Configuration loaded",
		zap.String("env", c.Env),
		zap.String("packageName", c.PackageName),
		zap.String("port", c.Port),
		zap.String("publicURL", c.PublicURL),
		zap.String("aiClientType", c.AIClientType),
		zap.String("aiBaseURL", c.AIBaseURL),
		zap.String("aiModel", c.AIModel),
		zap.Duration("aiTimeout", c.AITimeout),
		zap.String("roboflowBaseURL", c.RoboflowBaseURL),
		zap.String("roboflowModel", c.RoboflowModel+"/"+c.RoboflowVersion),
		zap.String("photoCacheBackend", c.PhotoCacheBackend),
		zap.Bool("rabbitMQEnabled", c.RabbitMQURL != ""),
		zap.String("mentraOSAPIKey", mask(c.MentraOSAPIKey)),
		zap.String("openAIAPIKey", mask(c.OpenAIAPIKey)),
		zap.String("roboflowAPIKey", mask(c.RoboflowAPIKey)),
	)
}

func requireSecret(dir, name string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}
	v, err := readSecret(dir, strings.ToLower(name))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not set: %v", models.ErrConfiguration, name, err)
	}
	return v, nil
}

func optionalSecret(dir, name string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	v, _ := readSecret(dir, strings.ToLower(name))
	return v
}

// readSecret читает секрет из файла в стиле Docker Secrets.
func readSecret(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", path, err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", fmt.Errorf("secret file %s is empty", path)
	}
	return s, nil
}

func mask(secret string) string {
	if secret == "" {
		return "[NOT SET]"
	}
	return "[LOADED]"
}
