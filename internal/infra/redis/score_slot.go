package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const scoreSlotKey = "quiz:scores"

// ScoreSlot keeps the serialized leaderboard under a single Redis key with
// whole-value replace semantics, so the last write observed wins.
type ScoreSlot struct {
	client *redis.Client
}

func NewScoreSlot(client *redis.Client) *ScoreSlot {
	return &ScoreSlot{client: client}
}

func (s *ScoreSlot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, scoreSlotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *ScoreSlot) Save(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, scoreSlotKey, data, 0).Err()
}

func (s *ScoreSlot) Clear(ctx context.Context) error {
	return s.client.Del(ctx, scoreSlotKey).Err()
}
