package service

import (
	"errors"
	"sync"

	"poker-coach/internal/device"
	"poker-coach/internal/models"

	"go.uber.org/zap"
)

// Coach связывает события WebSocket-соединений с сессиями.
//
// У каждой сессии свой обработчик нажатий: нажатия выполняются строго по
// очереди, а чтение сообщений устройства не блокируется, потому что ответы на
// запросы конвейера приходят по тому же соединению.
type Coach struct {
	registry   *SessionRegistry
	controller *StageController
	pending    sync.WaitGroup
	logger     *zap.Logger
}

// NewCoach creates the event handler passed to the device layer.
func NewCoach(registry *SessionRegistry, controller *StageController, logger *zap.Logger) *Coach {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coach{registry: registry, controller: controller, logger: logger.Named("Coach")}
}

var (
	_ device.EventHandler = (*Coach)(nil)
	_ Device              = (*device.Conn)(nil)
)

func (c *Coach) OnConnect(conn *device.Conn) { c.Connect(conn) }

func (c *Coach) OnButtonPress(conn *device.Conn, press models.PressKind) {
	c.Press(conn.SessionID(), press)
}

func (c *Coach) OnDisconnect(conn *device.Conn) { c.Disconnect(conn) }

// Connect starts a fresh session for dev and its press loop.
func (c *Coach) Connect(dev Device) *Session {
	s := c.registry.Start(dev.SessionID(), dev.UserID(), dev)
	go c.serve(s)
	return s
}

// Press ставит нажатие в очередь сессии и сразу возвращается.
func (c *Coach) Press(sessionID string, press models.PressKind) {
	log := c.logger.With(zap.String("sessionID", sessionID), zap.String("press", string(press)))
	s, ok := c.registry.Get(sessionID)
	if !ok {
		log.Warn("Button press for unknown session", zap.Error(models.ErrSessionNotFound))
		return
	}

	c.pending.Add(1)
	err := s.enqueue(press)
	if err == nil {
		return
	}
	c.pending.Done()
	if errors.Is(err, models.ErrPipelineBusy) {
		ignoredPresses.Inc()
		log.Info("Ignoring short press", zap.Error(err))
		return
	}
	log.Warn("Button press dropped", zap.Error(err))
}

// serve обрабатывает нажатия сессии, пока она не закрыта.
func (c *Coach) serve(s *Session) {
	for {
		select {
		case ev := <-s.presses:
			c.handle(s, ev)
		case <-s.ctx.Done():
			for {
				select {
				case <-s.presses:
					c.pending.Done()
				default:
					return
				}
			}
		}
	}
}

func (c *Coach) handle(s *Session, ev pressEvent) {
	defer c.pending.Done()
	defer s.settle(ev)

	if !s.admit(ev) {
		c.logger.Debug("Skipping superseded press", zap.String("sessionID", s.ID), zap.String("press", string(ev.kind)))
		return
	}
	parent := s.ctx
	if ev.kind == models.PressShort {
		parent = ev.ctx
	}
	c.controller.handlePress(parent, s, ev.kind)
}

// Disconnect ends the session if dev is still the one bound to it.
func (c *Coach) Disconnect(dev Device) {
	if !c.registry.Release(dev, "disconnect") {
		c.logger.Debug("Disconnect of a replaced device", zap.String("sessionID", dev.SessionID()))
	}
}

// Wait blocks until all accepted presses are handled or dropped.
func (c *Coach) Wait() { c.pending.Wait() }
