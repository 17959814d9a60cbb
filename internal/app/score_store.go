package app

import (
	"context"
	"encoding/json"
	"sort"

	"quiz-arcade/internal/domain"

	"github.com/rs/zerolog"
)

// leaderboardLimit caps both leaderboard views.
const leaderboardLimit = 10

// ScoreSlot is the durable single-value storage the leaderboard lives in
// (a file, a Redis key, or an in-memory fake for tests). Load returns nil
// bytes when the slot is absent.
type ScoreSlot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// ScoreStore is the append-only log of completed sessions, serialized as one
// JSON array in a single slot. Unreadable or corrupt content degrades to an
// empty history; it is logged, never propagated.
type ScoreStore struct {
	slot ScoreSlot
	log  zerolog.Logger
}

func NewScoreStore(slot ScoreSlot, log zerolog.Logger) *ScoreStore {
	return &ScoreStore{
		slot: slot,
		log:  log.With().Str("component", "score_store").Logger(),
	}
}

// LoadAll returns every persisted record in insertion order.
func (s *ScoreStore) LoadAll(ctx context.Context) []domain.ScoreRecord {
	data, err := s.slot.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("score slot unreadable, treating as empty")
		return []domain.ScoreRecord{}
	}
	if len(data) == 0 {
		return []domain.ScoreRecord{}
	}
	var records []domain.ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn().Err(err).Msg("score slot corrupt, treating as empty")
		return []domain.ScoreRecord{}
	}
	return records
}

// Append persists record at the end of the log with a whole-value write.
func (s *ScoreStore) Append(ctx context.Context, record domain.ScoreRecord) error {
	records := append(s.LoadAll(ctx), record)
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	if err := s.slot.Save(ctx, data); err != nil {
		s.log.Error().Err(err).Msg("save score slot")
		return err
	}
	return nil
}

// ClearAll removes the slot entirely; LoadAll afterwards returns empty.
func (s *ScoreStore) ClearAll(ctx context.Context) error {
	return s.slot.Clear(ctx)
}

// HighScores is the filtered top 10 by score, descending, ties kept in
// insertion order.
func (s *ScoreStore) HighScores(ctx context.Context, filter domain.ScoreFilter) []domain.ScoreRecord {
	records := filtered(s.LoadAll(ctx), filter)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	return truncate(records)
}

// RecentScores is the filtered 10 most recent records, newest first.
func (s *ScoreStore) RecentScores(ctx context.Context, filter domain.ScoreFilter) []domain.ScoreRecord {
	records := filtered(s.LoadAll(ctx), filter)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp().After(records[j].Timestamp())
	})
	return truncate(records)
}

func filtered(records []domain.ScoreRecord, filter domain.ScoreFilter) []domain.ScoreRecord {
	out := make([]domain.ScoreRecord, 0, len(records))
	for _, r := range records {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func truncate(records []domain.ScoreRecord) []domain.ScoreRecord {
	if len(records) > leaderboardLimit {
		return records[:leaderboardLimit]
	}
	return records
}
