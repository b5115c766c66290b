// Package detector вызывает внешний классификатор карт (Roboflow hosted model)
// по публичному URL фото.
package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"poker-coach/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// maxErrorBody ограничивает тело ответа, которое попадает в ошибку.
const maxErrorBody = 1024

var (
	detectorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poker_coach_detector_requests_total",
			Help: "Total number of card detection requests.",
		},
		[]string{"status"},
	)
	detectorRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poker_coach_detector_request_duration_seconds",
			Help:    "Histogram of card detection request durations.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Detector распознает карты на изображении.
type Detector interface {
	// Detect returns the distinct card labels found on the image, in the
	// order the classifier reported them.
	Detect(ctx context.Context, imageURL string) ([]string, error)
}

// Prediction - одна найденная карта.
type Prediction struct {
	Class      string  `json:"class" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Response - тело ответа классификатора.
type Response struct {
	Predictions []Prediction `json:"predictions" validate:"required,dive"`
}

// Config описывает доступ к модели.
type Config struct {
	BaseURL       string
	Model         string
	Version       string
	APIKey        string
	MinConfidence float64
	Timeout       time.Duration
}

type roboflowDetector struct {
	endpoint      string
	apiKey        string
	minConfidence float64
	httpClient    *http.Client
	validate      *validator.Validate
	logger        *zap.Logger
}

var _ Detector = (*roboflowDetector)(nil)

// NewRoboflowDetector создает клиент классификатора.
func NewRoboflowDetector(cfg Config, logger *zap.Logger) (Detector, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid base URL for detector: %w", err)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: detector API key is empty", models.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &roboflowDetector{
		endpoint:      fmt.Sprintf("%s/%s/%s", base, cfg.Model, cfg.Version),
		apiKey:        cfg.APIKey,
		minConfidence: cfg.MinConfidence,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		validate:      validator.New(),
		logger:        logger.Named("RoboflowDetector"),
	}, nil
}

func (d *roboflowDetector) Detect(ctx context.Context, imageURL string) ([]string, error) {
	q := url.Values{}
	q.Set("api_key", d.apiKey)
	q.Set("image", imageURL)
	reqURL := d.endpoint + "?" + q.Encode()

	log := d.logger.With(zap.String("image", imageURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", models.ErrDetection, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	detectorRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		detectorRequestsTotal.WithLabelValues("error_transport").Inc()
		log.Error("Detector request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", models.ErrDetection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detectorRequestsTotal.WithLabelValues("error_status").Inc()
		log.Warn("Detector returned non-2xx status", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return nil, fmt.Errorf("%w: status %d %s: %s", models.ErrDetection, resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		detectorRequestsTotal.WithLabelValues("error_decode").Inc()
		log.Error("Failed to decode detector response", zap.Error(err))
		return nil, fmt.Errorf("%w: malformed response: %v", models.ErrDetection, err)
	}
	if err := d.validate.Struct(&parsed); err != nil {
		detectorRequestsTotal.WithLabelValues("error_invalid").Inc()
		log.Error("Detector response failed validation", zap.Error(err))
		return nil, fmt.Errorf("%w: invalid response: %v", models.ErrDetection, err)
	}

	labels := make([]string, 0, len(parsed.Predictions))
	for _, p := range parsed.Predictions {
		if p.Confidence < d.minConfidence {
			continue
		}
		labels = append(labels, strings.ToUpper(strings.TrimSpace(p.Class)))
	}
	labels = DedupeLabels(labels)

	detectorRequestsTotal.WithLabelValues("success").Inc()
	log.Debug("Cards detected", zap.Strings("labels", labels), zap.Int("predictions", len(parsed.Predictions)))
	return labels, nil
}

// DedupeLabels collapses repeated labels to their first occurrence, keeping order.
func DedupeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
