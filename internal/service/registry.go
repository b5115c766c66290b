package service

import (
	"context"
	"sync"
	"time"

	"poker-coach/internal/models"
	"poker-coach/internal/narrator"

	"go.uber.org/zap"
)

// RegistryConfig - параметры, общие для всех сессий.
type RegistryConfig struct {
	Voice        models.VoiceSettings
	SpeakTimeout time.Duration
	SystemPrompt string
}

// SessionRegistry хранит сессии по id.
type SessionRegistry struct {
	ctx      context.Context
	cfg      RegistryConfig
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewSessionRegistry creates a registry. Sessions live no longer than ctx.
func NewSessionRegistry(ctx context.Context, cfg RegistryConfig, logger *zap.Logger) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		ctx:      ctx,
		cfg:      cfg,
		sessions: make(map[string]*Session),
		logger:   logger.Named("SessionRegistry"),
	}
}

// Start creates a fresh session bound to dev. A previous session with the
// same id is ended first.
func (r *SessionRegistry) Start(sessionID, userID string, dev Device) *Session {
	n := narrator.New(dev, r.cfg.Voice, r.cfg.SpeakTimeout, r.logger.With(zap.String("sessionID", sessionID)))
	s := newSession(r.ctx, sessionID, userID, dev, n, r.cfg.SystemPrompt)

	r.mu.Lock()
	old, replaced := r.sessions[sessionID]
	r.sessions[sessionID] = s
	count := len(r.sessions)
	r.mu.Unlock()

	if replaced {
		r.logger.Info("Replacing existing session", zap.String("sessionID", sessionID))
		old.close()
	}
	activeSessions.Set(float64(count))
	r.logger.Info("Session started", zap.String("sessionID", sessionID), zap.String("userID", userID))
	return s
}

// Get возвращает сессию по id.
func (r *SessionRegistry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// End cancels in-flight work of the session, resets its state and removes it.
func (r *SessionRegistry) End(sessionID, reason string) bool {
	return r.remove(sessionID, nil, reason)
}

// Release ends the session only while it is still bound to dev. A device
// that was replaced by a newer connection does not end the new session.
func (r *SessionRegistry) Release(dev Device, reason string) bool {
	return r.remove(dev.SessionID(), dev, reason)
}

func (r *SessionRegistry) remove(sessionID string, dev Device, reason string) bool {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok || (dev != nil && s.device != dev) {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, sessionID)
	count := len(r.sessions)
	r.mu.Unlock()

	s.close()
	activeSessions.Set(float64(count))
	r.logger.Info("Session ended", zap.String("sessionID", sessionID), zap.String("userID", s.UserID), zap.String("reason", reason))
	return true
}

// Count - число активных сессий.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EndAll завершает все сессии при остановке сервера.
func (r *SessionRegistry) EndAll(reason string) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.End(id, reason)
	}
}
