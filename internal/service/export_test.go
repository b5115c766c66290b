package service

import "poker-coach/internal/models"

// SetStage подменяет стадию, чтобы проверить обработку повреждённого состояния.
func (s *Session) SetStage(stage models.Stage) {
	s.mu.Lock()
	s.state.Stage = stage
	s.syncLocked()
	s.mu.Unlock()
}

// HoldPipeline занимает сессию так же, как это делает короткое нажатие.
func (s *Session) HoldPipeline() (release func(), err error) {
	_, done, err := s.beginPipeline(s.ctx)
	return done, err
}
