package app

import (
	"context"
	"sync"
	"time"

	"quiz-arcade/internal/domain"

	"github.com/rs/zerolog"
)

// ScoreSink receives the single record emitted when a session completes.
type ScoreSink interface {
	Append(ctx context.Context, record domain.ScoreRecord) error
}

// SceneRenderer receives decorative scene updates. The session never reads
// state back from it, and a panicking renderer only disables itself.
type SceneRenderer interface {
	Render(update domain.SceneUpdate)
}

// Session owns one quiz playthrough: question progression, the per-question
// countdown, scoring, and emission of the final score record. All state is
// guarded by mu; timers re-enter through generation-checked callbacks.
type Session struct {
	mu sync.Mutex

	category   domain.Category
	difficulty string
	profile    domain.DifficultyProfile

	questionIndex  int
	selectedAnswer string
	answerLocked   bool
	lastCorrect    bool
	score          int
	timeRemaining  int
	completed      bool
	stopped        bool
	celebrating    bool

	// gen is the question epoch. Every transition that supersedes pending
	// timers bumps it; callbacks carrying an older value are no-ops. This is
	// what prevents a stale tick or advance from double-scoring or skipping
	// a question.
	gen    uint64
	celGen uint64

	cancelTick      func()
	cancelAdvance   func()
	cancelCelebrate func()

	sched         Scheduler
	feedbackDelay time.Duration
	celebrateFor  time.Duration
	tickEvery     time.Duration

	renderer     SceneRenderer
	renderBroken bool

	sink  ScoreSink
	now   func() time.Time
	newID func() string
	log   zerolog.Logger

	subscribers map[chan domain.SessionSnapshot]struct{}
}

func (s *Session) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionIndex = 0
	s.score = 0
	s.completed = false
	s.celebrating = false
	s.celGen++
	s.beginQuestionLocked()
	s.broadcastLocked()
}

// beginQuestionLocked resets per-question state and arms the countdown for
// the question at the current index.
func (s *Session) beginQuestionLocked() {
	s.cancelTimersLocked()
	s.gen++
	s.selectedAnswer = ""
	s.answerLocked = false
	s.lastCorrect = false
	s.timeRemaining = s.profile.TimeLimitSeconds

	gen := s.gen
	s.cancelTick = s.sched.Every(s.tickEvery, func() { s.onTick(gen) })
}

func (s *Session) cancelTimersLocked() {
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
	if s.cancelAdvance != nil {
		s.cancelAdvance()
		s.cancelAdvance = nil
	}
}

// SelectAnswer records the player's current choice. Ignored once the answer
// is locked or the session is over. The option is not validated against the
// question's option list; it is compared by equality at submit time.
func (s *Session) SelectAnswer(option string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.completed || s.answerLocked {
		return
	}
	s.selectedAnswer = option
	s.broadcastLocked()
}

// Submit locks in the selected answer. A no-op without a selection, after a
// prior submit, or once the session is over.
func (s *Session) Submit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.completed || s.answerLocked || s.selectedAnswer == "" {
		return
	}
	s.lockAnswerLocked()
	s.broadcastLocked()
}

// onTick is the countdown callback. Hitting zero forces a submission with
// whatever answer is currently selected, possibly none.
func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.stopped || s.completed || s.answerLocked {
		return
	}
	s.timeRemaining--
	if s.timeRemaining <= 0 {
		s.timeRemaining = 0
		s.lockAnswerLocked()
	}
	s.broadcastLocked()
}

// lockAnswerLocked is the single scoring path, shared by Submit and the
// time-expiry tick. It scores at most once per question and schedules the
// advance after the feedback delay.
func (s *Session) lockAnswerLocked() {
	s.answerLocked = true
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}

	question := s.category.Questions[s.questionIndex]
	if s.selectedAnswer == question.CorrectAnswer {
		s.lastCorrect = true
		s.score += s.profile.ScoreMultiplier * domain.PointsPerCorrect
		s.celebrateLocked()
	}

	gen := s.gen
	s.cancelAdvance = s.sched.After(s.feedbackDelay, func() { s.onAdvance(gen) })
}

// onAdvance moves to the next question, or completes the session and emits
// the score record.
func (s *Session) onAdvance(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.stopped || s.completed || !s.answerLocked {
		s.mu.Unlock()
		return
	}

	if s.questionIndex < len(s.category.Questions)-1 {
		s.questionIndex++
		s.beginQuestionLocked()
		s.broadcastLocked()
		s.mu.Unlock()
		return
	}

	s.completed = true
	s.gen++
	s.cancelTimersLocked()
	s.celebrateLocked()
	record := domain.ScoreRecord{
		ID:         s.newID(),
		Score:      s.score,
		MaxScore:   len(s.category.Questions) * s.profile.ScoreMultiplier * domain.PointsPerCorrect,
		Category:   s.category.ID,
		Difficulty: s.difficulty,
		Date:       s.now().UTC().Format(time.RFC3339),
	}
	s.mu.Unlock()

	// Persist before announcing completion so anyone reacting to the final
	// snapshot reads a leaderboard that already includes this run.
	if err := s.sink.Append(context.Background(), record); err != nil {
		s.log.Error().Err(err).Str("category", record.Category).Msg("persist score record")
	}

	s.mu.Lock()
	s.broadcastLocked()
	s.mu.Unlock()
}

func (s *Session) celebrateLocked() {
	s.celebrating = true
	if s.cancelCelebrate != nil {
		s.cancelCelebrate()
	}
	s.celGen++
	gen := s.celGen
	s.cancelCelebrate = s.sched.After(s.celebrateFor, func() { s.onCelebrateEnd(gen) })
}

func (s *Session) onCelebrateEnd(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.celGen || s.stopped {
		return
	}
	s.celebrating = false
	s.broadcastLocked()
}

// Reset restarts the playthrough with the current category and difficulty,
// discarding in-progress state. No record is emitted for the abandoned run.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.questionIndex = 0
	s.score = 0
	s.completed = false
	s.celebrating = false
	s.celGen++
	s.beginQuestionLocked()
	s.broadcastLocked()
}

// Stop abandons the session and cancels all timers. Subsequent operations
// are no-ops.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.gen++
	s.celGen++
	s.cancelTimersLocked()
	if s.cancelCelebrate != nil {
		s.cancelCelebrate()
		s.cancelCelebrate = nil
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot on every state change,
// countdown ticks included. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	s.renderLocked(snap.Scene)
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow consumer never blocks the
			// session's timers.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// renderLocked feeds the scene collaborator. A panic disables the renderer
// for the rest of the session; the quiz itself keeps running.
func (s *Session) renderLocked(scene domain.SceneUpdate) {
	if s.renderer == nil || s.renderBroken {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.renderBroken = true
			s.log.Warn().Interface("panic", r).Msg("scene renderer failed, continuing without visuals")
		}
	}()
	s.renderer.Render(scene)
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	total := len(s.category.Questions)
	question := s.category.Questions[s.questionIndex]

	view := domain.QuestionView{
		Text:    question.Text,
		Options: append([]string(nil), question.Options...),
	}
	if s.answerLocked || s.completed {
		view.CorrectAnswer = question.CorrectAnswer
	}

	phase := domain.PhaseAnswering
	switch {
	case s.completed:
		phase = domain.PhaseCompleted
	case s.answerLocked:
		phase = domain.PhaseLocked
	}

	progress := float64(s.questionIndex) / float64(total)
	if s.completed {
		progress = 1
	}

	return domain.SessionSnapshot{
		Category:             s.category.ID,
		Difficulty:           s.difficulty,
		Phase:                phase,
		QuestionIndex:        s.questionIndex,
		TotalQuestions:       total,
		Question:             view,
		SelectedAnswer:       s.selectedAnswer,
		AnswerLocked:         s.answerLocked,
		LastAnswerCorrect:    s.lastCorrect,
		Score:                s.score,
		MaxScore:             total * s.profile.ScoreMultiplier * domain.PointsPerCorrect,
		TimeRemainingSeconds: s.timeRemaining,
		Completed:            s.completed,
		Scene: domain.SceneUpdate{
			ProgressFraction: progress,
			Score:            s.score,
			TotalQuestions:   total,
			Celebrate:        s.celebrating,
			Category:         s.category.ID,
			Theme:            s.category.Theme,
		},
	}
}
