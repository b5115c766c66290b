package service

import (
	"context"
	"sync"
	"sync/atomic"

	"poker-coach/internal/conversation"
	"poker-coach/internal/models"
	"poker-coach/internal/narrator"
)

const pressQueueSize = 16

// Device - то, что контроллеру нужно от очков: камера и звук.
type Device interface {
	SessionID() string
	UserID() string
	CapturePhoto(ctx context.Context) (*models.CapturedPhoto, error)
	narrator.AudioOutput
}

// Session - состояние одной подключенной пары очков.
//
// mu охраняет state и conv и удерживается конвейером на все время его работы.
// Читатели получают копию из snapshot и mu не ждут.
// Отмена конвейера идет через pipelineMu, который mu не требует.
type Session struct {
	ID     string
	UserID string

	device   Device
	narrator *narrator.Narrator

	mu       sync.Mutex
	state    models.PlayerState
	conv     *conversation.Context
	snapshot atomic.Pointer[sessionSnapshot]

	pipelineMu     sync.Mutex
	busy           bool
	cancelPipeline context.CancelFunc

	// Нажатия обрабатываются по одному в порядке поступления.
	queueMu       sync.Mutex
	presses       chan pressEvent
	closed        bool
	seq           uint64
	activeShort   uint64
	pendingResets int
	// epoch отменяется каждым принятым долгим нажатием.
	epoch       context.Context
	cancelEpoch context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

type sessionSnapshot struct {
	state      models.PlayerState
	contextLen int
}

// pressEvent - нажатие в очереди сессии. ctx короткого нажатия - эпоха, в
// которой оно принято.
type pressEvent struct {
	kind models.PressKind
	seq  uint64
	ctx  context.Context
}

func newSession(parent context.Context, id, userID string, dev Device, n *narrator.Narrator, systemPrompt string) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:       id,
		UserID:   userID,
		device:   dev,
		narrator: n,
		state:    models.NewPlayerState(),
		conv:     conversation.New(systemPrompt),
		presses:  make(chan pressEvent, pressQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.epoch, s.cancelEpoch = context.WithCancel(ctx)
	s.syncLocked()
	return s
}

// State returns a snapshot of the player state. It does not wait for a
// running pipeline and reports the state as of the last finished step.
func (s *Session) State() models.PlayerState {
	return s.snapshot.Load().state.Clone()
}

// ContextLen - длина истории диалога на конец последнего шага.
func (s *Session) ContextLen() int {
	return s.snapshot.Load().contextLen
}

// syncLocked публикует текущее состояние для читателей. Вызывается под s.mu.
func (s *Session) syncLocked() {
	s.snapshot.Store(&sessionSnapshot{state: s.state.Clone(), contextLen: s.conv.Len()})
}

// Device returns the device bound to the session.
func (s *Session) Device() Device { return s.device }

// Busy reports whether a pipeline is running.
func (s *Session) Busy() bool {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	return s.busy
}

// beginPipeline marks the session busy and returns the context of the new
// pipeline, derived from parent. It fails with models.ErrPipelineBusy when
// another pipeline is already running.
func (s *Session) beginPipeline(parent context.Context) (ctx context.Context, done func(), err error) {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	if s.busy {
		return nil, nil, models.ErrPipelineBusy
	}
	ctx, cancel := context.WithCancel(parent)
	s.busy = true
	s.cancelPipeline = cancel
	return ctx, func() {
		cancel()
		s.pipelineMu.Lock()
		s.busy = false
		s.cancelPipeline = nil
		s.pipelineMu.Unlock()
	}, nil
}

// abortPipeline отменяет текущий конвейер, если он есть.
func (s *Session) abortPipeline() {
	s.pipelineMu.Lock()
	cancel := s.cancelPipeline
	s.pipelineMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// enqueue ставит нажатие в очередь сессии.
//
// Долгое нажатие сразу отменяет эпоху: конвейеры принятых раньше коротких
// нажатий прерываются, не дожидаясь своей очереди. Короткое нажатие
// отклоняется с models.ErrPipelineBusy, пока предыдущее короткое не
// обработано, если только после него не пришло долгое.
func (s *Session) enqueue(kind models.PressKind) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if s.closed || s.ctx.Err() != nil {
		return models.ErrSessionNotFound
	}

	ev := pressEvent{kind: kind}
	prevShort := s.activeShort
	if kind == models.PressLong {
		s.activeShort = 0
	} else {
		if s.activeShort != 0 || (s.pendingResets == 0 && s.Busy()) {
			return models.ErrPipelineBusy
		}
		s.seq++
		ev.seq, ev.ctx = s.seq, s.epoch
		s.activeShort = ev.seq
	}

	select {
	case s.presses <- ev:
	default:
		s.activeShort = prevShort
		return models.ErrPressQueueFull
	}

	if kind == models.PressLong {
		s.pendingResets++
		s.cancelEpoch()
		s.epoch, s.cancelEpoch = context.WithCancel(s.ctx)
	}
	return nil
}

// admit сообщает, нужно ли выполнять извлеченное из очереди нажатие.
func (s *Session) admit(ev pressEvent) bool {
	if s.ctx.Err() != nil {
		return false
	}
	if ev.kind == models.PressLong {
		return true
	}
	return ev.ctx.Err() == nil
}

// settle снимает учет нажатия после обработки.
func (s *Session) settle(ev pressEvent) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if ev.kind == models.PressLong {
		s.pendingResets--
		return
	}
	if s.activeShort == ev.seq {
		s.activeShort = 0
	}
}

// resetHand ждет завершения конвейера и сбрасывает раздачу и историю.
func (s *Session) resetHand() {
	s.mu.Lock()
	s.resetHandLocked()
	s.mu.Unlock()
}

func (s *Session) resetHandLocked() {
	s.state.Reset()
	s.conv.Reset()
	s.syncLocked()
}

// close отменяет все, что связано с сессией, и сбрасывает состояние.
// Новые нажатия после close не принимаются.
func (s *Session) close() {
	s.queueMu.Lock()
	s.closed = true
	s.queueMu.Unlock()

	s.cancel()
	s.resetHand()
}
