package device_test

import (
	"context"
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"poker-coach/internal/device"
	"poker-coach/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pressEvent struct {
	conn  *device.Conn
	press models.PressKind
}

type recordingEvents struct {
	connected    chan *device.Conn
	pressed      chan pressEvent
	disconnected chan *device.Conn
}

func newRecordingEvents() *recordingEvents {
	return &recordingEvents{
		connected:    make(chan *device.Conn, 4),
		pressed:      make(chan pressEvent, 4),
		disconnected: make(chan *device.Conn, 4),
	}
}

func (r *recordingEvents) OnConnect(c *device.Conn) { r.connected <- c }
func (r *recordingEvents) OnButtonPress(c *device.Conn, p models.PressKind) {
	r.pressed <- pressEvent{conn: c, press: p}
}
func (r *recordingEvents) OnDisconnect(c *device.Conn) { r.disconnected <- c }

type harness struct {
	events  *recordingEvents
	manager *device.ConnectionManager
	server  *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{events: newRecordingEvents(), manager: device.NewConnectionManager(zap.NewNop())}
	ws := device.NewWebSocketHandler(h.manager, h.events, "demo-user", zap.NewNop())

	r := gin.New()
	r.GET("/ws", ws.ServeWS)
	h.server = httptest.NewServer(r)
	t.Cleanup(h.server.Close)
	return h
}

func (h *harness) dial(t *testing.T, query string) (*websocket.Conn, *device.Conn) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws" + query
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case c := <-h.events.connected:
		return client, c
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect was not called")
	}
	return nil, nil
}

func readJSON(t *testing.T, client *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, client.ReadJSON(&msg))
	return msg
}

func TestConnect_DefaultsAndButtonPress(t *testing.T) {
	h := newHarness(t)
	client, conn := h.dial(t, "")

	assert.Equal(t, "demo-user", conn.UserID())
	assert.NotEmpty(t, conn.SessionID())
	assert.Equal(t, 1, h.manager.Count())

	require.NoError(t, client.WriteJSON(map[string]string{"type": "button_press", "pressType": "long"}))
	select {
	case ev := <-h.events.pressed:
		assert.Equal(t, models.PressLong, ev.press)
		assert.Same(t, conn, ev.conn)
	case <-time.After(2 * time.Second):
		t.Fatal("button press not delivered")
	}
}

func TestCapturePhoto_RoundTrip(t *testing.T) {
	h := newHarness(t)
	client, conn := h.dial(t, "?sessionId=s1&userId=u1")
	assert.Equal(t, "s1", conn.SessionID())
	assert.Equal(t, "u1", conn.UserID())

	type result struct {
		photo *models.CapturedPhoto
		err   error
	}
	done := make(chan result, 1)
	go func() {
		p, err := conn.CapturePhoto(context.Background())
		done <- result{p, err}
	}()

	req := readJSON(t, client)
	assert.Equal(t, device.TypeRequestPhoto, req["type"])
	reqID, _ := req["requestId"].(string)
	require.NotEmpty(t, reqID)

	require.NoError(t, client.WriteJSON(map[string]any{
		"type":      "photo",
		"requestId": reqID,
		"mimeType":  "image/png",
		"filename":  "cards.png",
		"timestamp": 1700000000000,
		"data":      base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	}))

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, reqID, r.photo.RequestID)
		assert.Equal(t, []byte("png-bytes"), r.photo.Data)
		assert.Equal(t, "image/png", r.photo.MimeType)
		assert.Equal(t, "cards.png", r.photo.Filename)
		assert.Equal(t, int64(1700000000000), r.photo.Timestamp.UnixMilli())
	case <-time.After(2 * time.Second):
		t.Fatal("CapturePhoto did not return")
	}
}

func TestCapturePhoto_DeviceError(t *testing.T) {
	h := newHarness(t)
	client, conn := h.dial(t, "")

	done := make(chan error, 1)
	go func() {
		_, err := conn.CapturePhoto(context.Background())
		done <- err
	}()

	req := readJSON(t, client)
	require.NoError(t, client.WriteJSON(map[string]any{"type": "photo_error", "requestId": req["requestId"], "error": "camera busy"}))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, models.ErrDeviceRejected)
		assert.Contains(t, err.Error(), "camera busy")
	case <-time.After(2 * time.Second):
		t.Fatal("CapturePhoto did not return")
	}
}

func TestSpeak_WaitsForAudioDone(t *testing.T) {
	h := newHarness(t)
	client, conn := h.dial(t, "")

	voice := models.VoiceSettings{VoiceID: "v1", ModelID: "m1", Speed: 0.95}
	done := make(chan error, 1)
	go func() { done <- conn.Speak(context.Background(), "Stay still.", voice) }()

	msg := readJSON(t, client)
	assert.Equal(t, device.TypeSpeak, msg["type"])
	assert.Equal(t, "Stay still.", msg["text"])
	v, _ := msg["voice"].(map[string]any)
	assert.Equal(t, "v1", v["voice_id"])

	select {
	case <-done:
		t.Fatal("Speak returned before audio_done")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, client.WriteJSON(map[string]any{"type": "audio_done", "requestId": msg["requestId"]}))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Speak did not return")
	}
}

func TestCall_ContextTimeout(t *testing.T) {
	h := newHarness(t)
	_, conn := h.dial(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := conn.PlayAudio(ctx, "https://cdn/chime.mp3", 0.8)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDisconnect_FailsPendingCalls(t *testing.T) {
	h := newHarness(t)
	client, conn := h.dial(t, "?sessionId=s2")

	done := make(chan error, 1)
	go func() {
		_, err := conn.CapturePhoto(context.Background())
		done <- err
	}()
	_ = readJSON(t, client)
	require.NoError(t, client.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, models.ErrDeviceDisconnected)
	case <-time.After(2 * time.Second):
		t.Fatal("pending call not failed on disconnect")
	}

	select {
	case c := <-h.events.disconnected:
		assert.Same(t, conn, c)
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect was not called")
	}
	assert.Eventually(t, func() bool { return h.manager.Count() == 0 }, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, conn.StopAudio(context.Background()), models.ErrDeviceDisconnected)
}

func TestManager_ReplacesSessionConnection(t *testing.T) {
	h := newHarness(t)
	_, first := h.dial(t, "?sessionId=same")
	_, second := h.dial(t, "?sessionId=same")

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("previous connection was not closed")
	}

	got, ok := h.manager.Get("same")
	require.True(t, ok)
	assert.Same(t, second, got)
}
