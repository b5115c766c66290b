package device

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"poker-coach/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения устройству.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения.
	pongWait = 60 * time.Second
	// Период пингов. Должен быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Фото приходит base64 внутри JSON.
	maxMessageSize = 16 << 20
	sendBuffer     = 64
)

// EventHandler получает события устройства.
// OnButtonPress вызывается из read pump и не должен блокировать.
type EventHandler interface {
	OnConnect(c *Conn)
	OnButtonPress(c *Conn, press models.PressKind)
	OnDisconnect(c *Conn)
}

type reply struct {
	msg InboundMessage
	err error
}

// Conn - одно WebSocket соединение с очками.
type Conn struct {
	sessionID string
	userID    string
	ws        *websocket.Conn
	send      chan []byte
	handler   EventHandler
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]chan reply
	closed  bool
	done    chan struct{}
	once    sync.Once
}

func newConn(sessionID, userID string, ws *websocket.Conn, handler EventHandler, logger *zap.Logger) *Conn {
	return &Conn{
		sessionID: sessionID,
		userID:    userID,
		ws:        ws,
		send:      make(chan []byte, sendBuffer),
		handler:   handler,
		logger:    logger.With(zap.String("sessionID", sessionID), zap.String("userID", userID)),
		pending:   make(map[string]chan reply),
		done:      make(chan struct{}),
	}
}

func (c *Conn) SessionID() string { return c.sessionID }
func (c *Conn) UserID() string    { return c.userID }

// Done закрывается при отключении.
func (c *Conn) Done() <-chan struct{} { return c.done }

// CapturePhoto asks the camera for a photo and waits for it.
func (c *Conn) CapturePhoto(ctx context.Context) (*models.CapturedPhoto, error) {
	reqID := uuid.NewString()
	r, err := c.call(ctx, reqID, requestPhotoMessage{Type: TypeRequestPhoto, RequestID: reqID})
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return nil, fmt.Errorf("photo %s has invalid base64 data: %w", reqID, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("photo %s is empty", reqID)
	}
	ts := time.Now()
	if r.Timestamp > 0 {
		ts = time.UnixMilli(r.Timestamp)
	}
	mime := r.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return &models.CapturedPhoto{
		RequestID: reqID,
		Data:      data,
		MimeType:  mime,
		Filename:  r.Filename,
		Timestamp: ts,
	}, nil
}

// Speak waits until the device reports the text was spoken.
func (c *Conn) Speak(ctx context.Context, text string, voice models.VoiceSettings) error {
	reqID := uuid.NewString()
	_, err := c.call(ctx, reqID, speakMessage{Type: TypeSpeak, RequestID: reqID, Text: text, Voice: voice})
	return err
}

// StopAudio не ждет подтверждения.
func (c *Conn) StopAudio(ctx context.Context) error {
	return c.enqueue(ctx, stopAudioMessage{Type: TypeStopAudio})
}

// PlayAudio waits until playback finished.
func (c *Conn) PlayAudio(ctx context.Context, audioURL string, volume float64) error {
	reqID := uuid.NewString()
	_, err := c.call(ctx, reqID, playAudioMessage{Type: TypePlayAudio, RequestID: reqID, AudioURL: audioURL, Volume: volume})
	return err
}

// Close закрывает соединение; ожидающие вызовы получают ErrDeviceDisconnected.
func (c *Conn) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.pending = make(map[string]chan reply)
		c.mu.Unlock()
		close(c.done)
		// WriteControl допускает конкурентный вызов с writePump
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Conn) call(ctx context.Context, reqID string, msg any) (InboundMessage, error) {
	ch := make(chan reply, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return InboundMessage{}, models.ErrDeviceDisconnected
	}
	c.pending[reqID] = ch
	c.mu.Unlock()
	defer c.forget(reqID)

	if err := c.enqueue(ctx, msg); err != nil {
		return InboundMessage{}, err
	}

	select {
	case r := <-ch:
		return r.msg, r.err
	case <-ctx.Done():
		return InboundMessage{}, ctx.Err()
	case <-c.done:
		return InboundMessage{}, models.ErrDeviceDisconnected
	}
}

func (c *Conn) forget(reqID string) {
	c.mu.Lock()
	delete(c.pending, reqID)
	c.mu.Unlock()
}

func (c *Conn) resolve(reqID string, r reply) {
	c.mu.Lock()
	ch, ok := c.pending[reqID]
	delete(c.pending, reqID)
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("Reply for unknown request", zap.String("requestID", reqID))
		return
	}
	ch <- r
}

func (c *Conn) enqueue(ctx context.Context, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal device message: %w", err)
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return models.ErrDeviceDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) dispatch(raw []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Warn("Malformed device message (ignored)", zap.Error(err))
		return
	}

	switch msg.Type {
	case TypeButtonPress:
		c.handler.OnButtonPress(c, models.ParsePressKind(msg.PressType))
	case TypePhoto, TypeAudioDone:
		c.resolve(msg.RequestID, reply{msg: msg})
	case TypePhotoError, TypeAudioError:
		c.resolve(msg.RequestID, reply{msg: msg, err: fmt.Errorf("%w: %s", models.ErrDeviceRejected, msg.Error)})
	default:
		c.logger.Warn("Unknown device message type (ignored)", zap.String("type", msg.Type))
	}
}

// readPump читает сообщения устройства до разрыва соединения.
func (c *Conn) readPump() {
	defer func() {
		c.Close()
		c.handler.OnDisconnect(c)
		c.logger.Info("readPump finished")
	}()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			} else {
				c.logger.Info("WebSocket connection closed")
			}
			return
		}
		c.dispatch(message)
	}
}

// writePump отправляет сообщения из send по одному кадру на сообщение.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case message := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn("Failed to send ping", zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}
