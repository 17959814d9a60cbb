package app

import (
	"context"
	"fmt"
	"time"

	"quiz-arcade/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CategoryRepository loads category content (from cache/backing store).
type CategoryRepository interface {
	GetCategory(ctx context.Context, id string) (domain.Category, error)
}

// QuizService wires sessions to their collaborators: the category catalog,
// the difficulty table, and the score store.
type QuizService struct {
	categories   CategoryRepository
	difficulties map[string]domain.DifficultyProfile
	store        *ScoreStore

	sched         Scheduler
	feedbackDelay time.Duration
	celebrateFor  time.Duration
	tickEvery     time.Duration
	now           func() time.Time
	newID         func() string
	log           zerolog.Logger
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithDifficulties replaces the built-in difficulty table.
func WithDifficulties(table map[string]domain.DifficultyProfile) Option {
	return func(s *QuizService) { s.difficulties = table }
}

// WithScheduler substitutes the timer source, used by tests.
func WithScheduler(sched Scheduler) Option {
	return func(s *QuizService) { s.sched = sched }
}

// WithDelays overrides the post-answer feedback delay and the celebrate
// effect window.
func WithDelays(feedback, celebrate time.Duration) Option {
	return func(s *QuizService) {
		s.feedbackDelay = feedback
		s.celebrateFor = celebrate
	}
}

// WithTickInterval overrides the one-second countdown tick.
func WithTickInterval(d time.Duration) Option {
	return func(s *QuizService) { s.tickEvery = d }
}

// WithClock injects a deterministic clock for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithIDFunc injects a deterministic record ID generator.
func WithIDFunc(newID func() string) Option {
	return func(s *QuizService) { s.newID = newID }
}

// WithLogger attaches a logger; components tag themselves.
func WithLogger(log zerolog.Logger) Option {
	return func(s *QuizService) { s.log = log }
}

func NewQuizService(categories CategoryRepository, store *ScoreStore, opts ...Option) *QuizService {
	s := &QuizService{
		categories:    categories,
		difficulties:  domain.DefaultDifficulties(),
		store:         store,
		sched:         WallScheduler{},
		feedbackDelay: 1500 * time.Millisecond,
		celebrateFor:  2 * time.Second,
		tickEvery:     time.Second,
		now:           time.Now,
		newID:         uuid.NewString,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Difficulties returns a copy of the difficulty table.
func (s *QuizService) Difficulties() map[string]domain.DifficultyProfile {
	out := make(map[string]domain.DifficultyProfile, len(s.difficulties))
	for k, v := range s.difficulties {
		out[k] = v
	}
	return out
}

// StartSession validates the category and difficulty and returns a running
// session at question zero. A missing or empty category is a configuration
// error surfaced to the caller; everything downstream of here degrades
// silently instead.
func (s *QuizService) StartSession(ctx context.Context, categoryID, difficultyID string, renderer SceneRenderer) (*Session, error) {
	profile, ok := s.difficulties[difficultyID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrDifficultyNotFound, difficultyID)
	}

	category, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("load category %q: %w", categoryID, err)
	}
	if len(category.Questions) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrNoQuestions, categoryID)
	}

	session := &Session{
		category:      category,
		difficulty:    difficultyID,
		profile:       profile,
		sched:         s.sched,
		feedbackDelay: s.feedbackDelay,
		celebrateFor:  s.celebrateFor,
		tickEvery:     s.tickEvery,
		renderer:      renderer,
		sink:          s.store,
		now:           s.now,
		newID:         s.newID,
		log:           s.log.With().Str("component", "session").Str("category", categoryID).Logger(),
		subscribers:   make(map[chan domain.SessionSnapshot]struct{}),
	}
	session.start()
	return session, nil
}

// HighScores returns the filtered top 10 by score.
func (s *QuizService) HighScores(ctx context.Context, filter domain.ScoreFilter) []domain.ScoreRecord {
	return s.store.HighScores(ctx, filter)
}

// RecentScores returns the filtered 10 most recent records.
func (s *QuizService) RecentScores(ctx context.Context, filter domain.ScoreFilter) []domain.ScoreRecord {
	return s.store.RecentScores(ctx, filter)
}

// ClearScores wipes the persisted leaderboard.
func (s *QuizService) ClearScores(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}
