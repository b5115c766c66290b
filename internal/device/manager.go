package device

import (
	"sync"

	"go.uber.org/zap"
)

// ConnectionManager управляет активными соединениями очков.
type ConnectionManager struct {
	conns  map[string]*Conn // sessionID -> Conn
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewConnectionManager создает пустой менеджер.
func NewConnectionManager(logger *zap.Logger) *ConnectionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionManager{
		conns:  make(map[string]*Conn),
		logger: logger.Named("ConnectionManager"),
	}
}

// Register добавляет соединение. Старое соединение той же сессии закрывается.
func (m *ConnectionManager) Register(c *Conn) {
	m.mu.Lock()
	old, ok := m.conns[c.sessionID]
	m.conns[c.sessionID] = c
	m.mu.Unlock()

	if ok && old != c {
		m.logger.Info("Closing previous connection for session", zap.String("sessionID", c.sessionID))
		old.Close()
	}
	m.logger.Info("Device registered", zap.String("sessionID", c.sessionID), zap.String("userID", c.userID))
}

// Unregister удаляет соединение, если оно все еще текущее для сессии.
func (m *ConnectionManager) Unregister(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.conns[c.sessionID]; ok && cur == c {
		delete(m.conns, c.sessionID)
		m.logger.Info("Device unregistered", zap.String("sessionID", c.sessionID))
	}
}

// Get returns the live connection of the session.
func (m *ConnectionManager) Get(sessionID string) (*Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[sessionID]
	return c, ok
}

// Count - число подключенных устройств.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// CloseAll закрывает все соединения при остановке сервера.
func (m *ConnectionManager) CloseAll() {
	m.mu.Lock()
	conns := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.conns = make(map[string]*Conn)
	m.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
