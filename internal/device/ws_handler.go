package device

import (
	"net/http"

	"poker-coach/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Очки подключаются не из браузера, Origin не проверяем
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler принимает подключения очков.
type WebSocketHandler struct {
	manager    *ConnectionManager
	events     EventHandler
	demoUserID string
	logger     *zap.Logger
}

// NewWebSocketHandler создает обработчик. demoUserID используется, когда
// устройство не передало userId.
func NewWebSocketHandler(manager *ConnectionManager, events EventHandler, demoUserID string, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		manager:    manager,
		events:     events,
		demoUserID: demoUserID,
		logger:     logger.Named("WebSocketHandler"),
	}
}

// ServeWS обрабатывает GET /ws?sessionId=&userId=.
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	userID := c.Query("userId")
	if userID == "" {
		userID = h.demoUserID
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader уже ответил клиенту
		h.logger.Error("Failed to upgrade connection", zap.String("sessionID", sessionID), zap.Error(err))
		return
	}

	conn := newConn(sessionID, userID, ws, &managedEvents{manager: h.manager, next: h.events}, h.logger)
	h.manager.Register(conn)
	h.events.OnConnect(conn)
	h.logger.Info("WebSocket connection established", zap.String("sessionID", sessionID), zap.String("userID", userID))

	go conn.writePump()
	go conn.readPump()
}

// managedEvents снимает соединение с учета перед передачей OnDisconnect дальше.
type managedEvents struct {
	manager *ConnectionManager
	next    EventHandler
}

func (e *managedEvents) OnConnect(c *Conn) { e.next.OnConnect(c) }

func (e *managedEvents) OnButtonPress(c *Conn, press models.PressKind) {
	e.next.OnButtonPress(c, press)
}

func (e *managedEvents) OnDisconnect(c *Conn) {
	e.manager.Unregister(c)
	e.next.OnDisconnect(c)
}
