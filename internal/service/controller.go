// Package service реализует цикл раздачи: кнопка на очках -> подсказка или
// снимок -> распознавание карт -> анализ -> озвучка.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"poker-coach/internal/analyzer"
	"poker-coach/internal/detector"
	"poker-coach/internal/messaging"
	"poker-coach/internal/models"
	"poker-coach/internal/photocache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Фразы, которые слышит игрок.
const (
	MsgStayStill     = "Stay still."
	MsgRetakePhoto   = "I couldn't detect the expected number of cards. Please try taking the photo again, making sure all cards are clearly visible."
	MsgAnalysisError = "Sorry, there was an error analyzing your hand."
)

var prompts = map[models.Street]string{
	models.StreetHole:  "Ready. Show me your hand and press the button again to take a photo.",
	models.StreetFlop:  "Show me the flop. Press again to take a photo.",
	models.StreetTurn:  "Show me the turn. Press again to take a photo.",
	models.StreetRiver: "Show me the river. Press again to take a photo.",
}

// Prompt returns the instruction spoken on the prompt stage of street.
func Prompt(street models.Street) string { return prompts[street] }

// ProbabilityMessage formats the spoken win probability.
func ProbabilityMessage(a *models.HandAnalysis) string {
	return fmt.Sprintf("Your win probability is %d percent.", a.RoundedProbability())
}

// ControllerConfig - таймауты шагов и адреса, нужные конвейеру.
type ControllerConfig struct {
	PublicURL      string
	CaptureTimeout time.Duration
	DetectTimeout  time.Duration
	AnalyzeTimeout time.Duration
	ChimeURL       string
	ChimeVolume    float64
}

// StageController drives a session through the stage cycle, one button press
// at a time.
type StageController struct {
	cfg       ControllerConfig
	photos    photocache.Cache
	detector  detector.Detector
	analyzer  analyzer.Analyzer
	publisher messaging.HandEventPublisher
	logger    *zap.Logger
}

// NewStageController creates a controller. publisher may be nil.
func NewStageController(cfg ControllerConfig, photos photocache.Cache, det detector.Detector, an analyzer.Analyzer, publisher messaging.HandEventPublisher, logger *zap.Logger) *StageController {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &StageController{
		cfg:       cfg,
		photos:    photos,
		detector:  det,
		analyzer:  an,
		publisher: publisher,
		logger:    logger.Named("StageController"),
	}
}

// OnButtonPress handles one press and returns when the resulting cycle is
// over. A long press cancels the running cycle and resets the hand. A short
// press that arrives while a cycle is running is ignored.
func (c *StageController) OnButtonPress(s *Session, press models.PressKind) {
	c.handlePress(s.ctx, s, press)
}

// handlePress - OnButtonPress с контекстом, от которого наследуется конвейер.
func (c *StageController) handlePress(parent context.Context, s *Session, press models.PressKind) {
	log := c.logger.With(zap.String("sessionID", s.ID), zap.String("userID", s.UserID), zap.String("press", string(press)))

	if press == models.PressLong {
		s.abortPipeline()
		s.resetHand()
		if err := s.narrator.Stop(s.ctx); err != nil {
			log.Debug("Stop audio after reset failed", zap.Error(err))
		}
		pipelineOutcomes.WithLabelValues(string(models.StreetHole), "reset").Inc()
		log.Info("Hand reset by long press")
		return
	}

	ctx, done, err := s.beginPipeline(parent)
	if err != nil {
		ignoredPresses.Inc()
		log.Info("Ignoring short press", zap.Error(err))
		return
	}
	defer done()

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.syncLocked()
	c.step(ctx, s, log)
}

// step выполняет один шаг цикла. Вызывается под s.mu.
func (c *StageController) step(ctx context.Context, s *Session, log *zap.Logger) {
	stage := s.state.Stage
	street, ok := stage.Street()
	if !ok {
		log.Warn("Unknown stage, resetting hand", zap.String("stage", stage.String()))
		s.resetHandLocked()
		return
	}
	log = log.With(zap.String("stage", stage.String()))

	if !stage.IsAwaitingPhoto() {
		if err := c.say(ctx, s, Prompt(street)); err != nil {
			log.Info("Prompt interrupted", zap.Error(err))
			return
		}
		s.state.Stage = stage.Next()
		pipelineOutcomes.WithLabelValues(string(street), "prompted").Inc()
		log.Info("Prompted for photo", zap.String("next", s.state.Stage.String()))
		return
	}

	start := time.Now()
	outcome, err := c.capture(ctx, s, street, log)
	pipelineDuration.WithLabelValues(string(street)).Observe(time.Since(start).Seconds())
	if err == nil {
		pipelineOutcomes.WithLabelValues(string(street), outcome).Inc()
		return
	}

	if ctx.Err() != nil {
		// Отменивший сбросит состояние сам.
		pipelineOutcomes.WithLabelValues(string(street), "cancelled").Inc()
		log.Info("Pipeline cancelled", zap.Error(err))
		return
	}

	pipelineOutcomes.WithLabelValues(string(street), "failed").Inc()
	log.Error("Pipeline failed, resetting hand", zap.String("kind", failureKind(err)), zap.Error(err))
	_ = c.say(ctx, s, MsgAnalysisError)
	s.resetHandLocked()
}

// capture - конвейер await-стадии. Возвращает метку исхода для метрик.
func (c *StageController) capture(ctx context.Context, s *Session, street models.Street, log *zap.Logger) (string, error) {
	if err := c.say(ctx, s, MsgStayStill); err != nil {
		return "", err
	}

	photo, err := c.takePhoto(ctx, s)
	if err != nil {
		return "", err
	}
	log = log.With(zap.String("requestID", photo.RequestID))

	if err := s.narrator.PlayCue(ctx, c.cfg.ChimeURL, c.cfg.ChimeVolume); err != nil && ctx.Err() != nil {
		return "", ctx.Err()
	}

	labels, err := c.detect(ctx, s, photo.RequestID)
	if err != nil {
		return "", err
	}
	log.Info("Cards detected", zap.Strings("labels", labels))

	if err := models.ValidateCount(street, labels); err != nil {
		var mismatch *models.ValidationMismatchError
		if !errors.As(err, &mismatch) {
			return "", err
		}
		log.Info("Card count mismatch, asking for another photo", zap.Int("expected", mismatch.Expected), zap.Int("got", mismatch.Got))
		s.state.ClearStreet(street)
		if err := c.say(ctx, s, MsgRetakePhoto); err != nil {
			return "", err
		}
		return "retry", nil
	}

	s.state.ApplyDetected(street, labels)

	actx, cancel := context.WithTimeout(ctx, c.cfg.AnalyzeTimeout)
	analysis, err := c.analyzer.Analyze(actx, s.UserID, s.conv, s.state.Hole, s.state.Board)
	cancel()
	if err != nil {
		return "", err
	}

	if err := c.say(ctx, s, ProbabilityMessage(analysis)); err != nil {
		return "", err
	}
	if err := c.say(ctx, s, analysis.Tip); err != nil {
		return "", err
	}

	event := models.HandEvent{
		EventID:        uuid.NewString(),
		SessionID:      s.ID,
		UserID:         s.UserID,
		Street:         street,
		StageLabel:     analysis.StageLabel,
		Hole:           append([]string(nil), s.state.Hole...),
		Board:          append([]string(nil), s.state.Board...),
		WinProbability: analysis.WinProbability,
		Tip:            analysis.Tip,
		HandComplete:   street == models.StreetRiver,
		OccurredAt:     time.Now().UTC(),
	}

	s.state.Stage = s.state.Stage.Next()
	if street == models.StreetRiver {
		s.resetHandLocked()
		log.Info("Hand complete")
	}

	if err := c.publisher.PublishHandEvent(ctx, event); err != nil {
		log.Warn("Failed to publish hand event", zap.String("eventID", event.EventID), zap.Error(err))
	}
	return "analyzed", nil
}

func (c *StageController) takePhoto(ctx context.Context, s *Session) (*models.CapturedPhoto, error) {
	cctx, cancel := context.WithTimeout(ctx, c.cfg.CaptureTimeout)
	defer cancel()

	photo, err := s.device.CapturePhoto(cctx)
	if err != nil {
		return nil, wrapKind(models.ErrCapture, err)
	}
	if err := c.photos.Put(ctx, s.UserID, models.NewStoredPhoto(s.UserID, *photo)); err != nil {
		return nil, fmt.Errorf("%w: не удалось сохранить фото: %w", models.ErrCapture, err)
	}
	return photo, nil
}

func (c *StageController) detect(ctx context.Context, s *Session, requestID string) ([]string, error) {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.DetectTimeout)
	defer cancel()

	labels, err := c.detector.Detect(dctx, c.PhotoURL(s.UserID, requestID))
	if err != nil {
		return nil, wrapKind(models.ErrDetection, err)
	}
	return detector.DedupeLabels(labels), nil
}

// PhotoURL - публичный адрес снимка, по которому его забирает детектор.
func (c *StageController) PhotoURL(userID, requestID string) string {
	return fmt.Sprintf("%s/api/photo/%s?userId=%s", c.cfg.PublicURL, url.PathEscape(requestID), url.QueryEscape(userID))
}

// say озвучивает текст. Ошибка возвращается только при отмене конвейера,
// остальные сбои звука не прерывают раздачу.
func (c *StageController) say(ctx context.Context, s *Session, text string) error {
	if err := s.narrator.Say(ctx, text); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func wrapKind(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, models.ErrCapture):
		return "capture"
	case errors.Is(err, models.ErrDetection):
		return "detection"
	case errors.Is(err, models.ErrAnalysis):
		return "analysis"
	default:
		return "unknown"
	}
}
