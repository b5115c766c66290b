// Package narrator озвучивает подсказки и результаты на очках.
package narrator

import (
	"context"
	"time"

	"poker-coach/internal/models"

	"go.uber.org/zap"
)

// AudioOutput - аудио примитивы устройства.
type AudioOutput interface {
	Speak(ctx context.Context, text string, voice models.VoiceSettings) error
	StopAudio(ctx context.Context) error
	PlayAudio(ctx context.Context, audioURL string, volume float64) error
}

// Narrator speaks one sentence at a time: whatever is playing is stopped
// before the new text starts.
type Narrator struct {
	out     AudioOutput
	voice   models.VoiceSettings
	timeout time.Duration
	logger  *zap.Logger
}

// New создает диктора для одного устройства. timeout ограничивает каждый вызов.
func New(out AudioOutput, voice models.VoiceSettings, timeout time.Duration, logger *zap.Logger) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrator{out: out, voice: voice, timeout: timeout, logger: logger.Named("Narrator")}
}

// Say stops current playback, then speaks text and waits until the device
// reports it finished.
func (n *Narrator) Say(ctx context.Context, text string) error {
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()

	if err := n.out.StopAudio(ctx); err != nil {
		n.logger.Warn("Failed to stop audio before speaking", zap.Error(err))
	}
	n.logger.Debug("Speaking", zap.String("text", text))
	if err := n.out.Speak(ctx, text, n.voice); err != nil {
		n.logger.Warn("Speak failed", zap.String("text", text), zap.Error(err))
		return err
	}
	return nil
}

// Stop прерывает текущее воспроизведение.
func (n *Narrator) Stop(ctx context.Context) error {
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()
	return n.out.StopAudio(ctx)
}

// PlayCue plays a short sound such as the capture chime.
func (n *Narrator) PlayCue(ctx context.Context, audioURL string, volume float64) error {
	if audioURL == "" {
		return nil
	}
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()
	if err := n.out.PlayAudio(ctx, audioURL, volume); err != nil {
		n.logger.Warn("Failed to play cue", zap.String("url", audioURL), zap.Error(err))
		return err
	}
	return nil
}

func (n *Narrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, n.timeout)
}
