package memory

import (
	"context"
	"sync"
)

// ScoreSlot is an in-memory implementation of app.ScoreSlot, used in tests
// and as the fallback when neither a file path nor Redis is configured.
type ScoreSlot struct {
	mu      sync.RWMutex
	data    []byte
	present bool
}

func NewScoreSlot() *ScoreSlot {
	return &ScoreSlot{}
}

func (s *ScoreSlot) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.present {
		return nil, nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *ScoreSlot) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.present = true
	return nil
}

func (s *ScoreSlot) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.present = false
	return nil
}
