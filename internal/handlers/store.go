package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/idgaron/Capstone-Software/internal/models"
)

// FrameStore хранит последний кадр для HTTP API.
// Реализует Renderer: монитор пишет, обработчики читают.
type FrameStore struct {
	mu        sync.RWMutex
	frame     models.Frame
	frames    uint64
	updatedAt time.Time
}

// NewFrameStore создает пустое хранилище
func NewFrameStore() *FrameStore {
	return &FrameStore{}
}

// Update сохраняет кадр
func (s *FrameStore) Update(_ context.Context, frame models.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame = frame
	s.frames++
	s.updatedAt = time.Now()
	return nil
}

// Latest возвращает последний кадр; ok=false, если кадров еще не было
func (s *FrameStore) Latest() (models.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.frame, s.frames > 0
}

// Frames возвращает количество полученных кадров и время последнего обновления
func (s *FrameStore) Frames() (uint64, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.frames, s.updatedAt
}
