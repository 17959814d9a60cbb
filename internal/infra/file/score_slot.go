// Package file persists the score slot as a single JSON document on disk,
// the closest server-side analog to the browser's local storage.
package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// ScoreSlot stores the serialized leaderboard in one file. Writes go to a
// temp file first and are renamed into place so a crash never leaves a
// half-written slot behind.
type ScoreSlot struct {
	path string
	mu   sync.Mutex
}

func NewScoreSlot(path string) *ScoreSlot {
	return &ScoreSlot{path: path}
}

func (s *ScoreSlot) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *ScoreSlot) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

func (s *ScoreSlot) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
