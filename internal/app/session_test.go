package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"quiz-arcade/internal/app"
	"quiz-arcade/internal/domain"
	"quiz-arcade/internal/infra/memory"

	"github.com/rs/zerolog"
)

// manualScheduler lets tests drive countdown ticks and delayed transitions
// explicitly. Fired and canceled callbacks are kept around so tests can
// simulate a timer that loses the cancellation race.
type manualScheduler struct {
	mu      sync.Mutex
	afters  []*manualTimer
	everies []*manualTimer
}

type manualTimer struct {
	fn       func()
	canceled bool
	fired    bool
}

func (m *manualScheduler) After(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{fn: fn}
	m.afters = append(m.afters, t)
	return func() {
		m.mu.Lock()
		t.canceled = true
		m.mu.Unlock()
	}
}

func (m *manualScheduler) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{fn: fn}
	m.everies = append(m.everies, t)
	return func() {
		m.mu.Lock()
		t.canceled = true
		m.mu.Unlock()
	}
}

// tick fires every live countdown callback once.
func (m *manualScheduler) tick() {
	m.mu.Lock()
	var fns []func()
	for _, t := range m.everies {
		if !t.canceled {
			fns = append(fns, t.fn)
		}
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// fireAfters runs every pending one-shot exactly once.
func (m *manualScheduler) fireAfters() {
	m.mu.Lock()
	var fns []func()
	for _, t := range m.afters {
		if !t.canceled && !t.fired {
			t.fired = true
			fns = append(fns, t.fn)
		}
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// staleCallbacks returns raw callbacks regardless of cancellation, to model
// a callback already in flight when cancel ran.
func (m *manualScheduler) staleCallbacks() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var fns []func()
	for _, t := range m.everies {
		fns = append(fns, t.fn)
	}
	for _, t := range m.afters {
		fns = append(fns, t.fn)
	}
	return fns
}

func testCategories() map[string]domain.Category {
	questions := make([]domain.Question, 5)
	for i := range questions {
		questions[i] = domain.Question{
			Text:          fmt.Sprintf("question %d", i),
			Options:       []string{"right", "wrong"},
			CorrectAnswer: "right",
		}
	}
	return map[string]domain.Category{
		"general": {ID: "general", Name: "General Knowledge", Questions: questions},
		"empty":   {ID: "empty", Name: "Empty"},
	}
}

func newTestService(t *testing.T) (*app.QuizService, *manualScheduler, *app.ScoreStore) {
	t.Helper()
	sched := &manualScheduler{}
	store := app.NewScoreStore(memory.NewScoreSlot(), zerolog.Nop())
	repo := memory.NewCategoryRepository(memory.NewStaticCategoryLoader(testCategories()), 5*time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ids := 0
	service := app.NewQuizService(repo, store,
		app.WithScheduler(sched),
		app.WithClock(func() time.Time { return now }),
		app.WithIDFunc(func() string { ids++; return fmt.Sprintf("rec-%d", ids) }),
	)
	return service, sched, store
}

func TestStartValidation(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	if _, err := service.StartSession(ctx, "nope", "medium", nil); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected category error, got %v", err)
	}
	if _, err := service.StartSession(ctx, "empty", "medium", nil); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no-questions error, got %v", err)
	}
	if _, err := service.StartSession(ctx, "general", "extreme", nil); !errors.Is(err, domain.ErrDifficultyNotFound) {
		t.Fatalf("expected difficulty error, got %v", err)
	}
}

func TestPerfectRunScoresAndPersists(t *testing.T) {
	ctx := context.Background()
	service, sched, store := newTestService(t)

	session, err := service.StartSession(ctx, "general", "medium", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 5; i++ {
		snap := session.Snapshot()
		if snap.QuestionIndex != i || snap.AnswerLocked {
			t.Fatalf("question %d: unexpected state %+v", i, snap)
		}
		if snap.TimeRemainingSeconds != 30 {
			t.Fatalf("question %d: expected fresh 30s countdown, got %d", i, snap.TimeRemainingSeconds)
		}
		session.SelectAnswer("right")
		session.Submit()
		sched.fireAfters()
	}

	final := session.Snapshot()
	if !final.Completed {
		t.Fatalf("expected completed session, got %+v", final)
	}
	if final.Score != 1000 || final.MaxScore != 1000 {
		t.Fatalf("expected 1000/1000, got %d/%d", final.Score, final.MaxScore)
	}

	records := store.LoadAll(ctx)
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
	rec := records[0]
	if rec.Score != 1000 || rec.MaxScore != 1000 || rec.Category != "general" || rec.Difficulty != "medium" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Date != "2025-06-01T12:00:00Z" {
		t.Fatalf("unexpected record date %q", rec.Date)
	}
}

func TestSubmitLocksExactlyOnce(t *testing.T) {
	ctx := context.Background()
	service, sched, _ := newTestService(t)

	session, err := service.StartSession(ctx, "general", "easy", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	session.SelectAnswer("right")
	session.Submit()
	score := session.Snapshot().Score
	if score != 100 {
		t.Fatalf("expected 100 after correct submit, got %d", score)
	}

	// Second submit and late selection are silent no-ops.
	session.Submit()
	session.SelectAnswer("wrong")
	snap := session.Snapshot()
	if snap.Score != 100 || snap.SelectedAnswer != "right" {
		t.Fatalf("lock not enforced: %+v", snap)
	}

	// Countdown is stopped while locked.
	sched.tick()
	if got := session.Snapshot().TimeRemainingSeconds; got != 45 {
		t.Fatalf("expected countdown frozen at 45, got %d", got)
	}

	sched.fireAfters()
	next := session.Snapshot()
	if next.QuestionIndex != 1 || next.AnswerLocked || next.SelectedAnswer != "" {
		t.Fatalf("expected clean advance to question 2, got %+v", next)
	}
}

func TestTimeExpiryIsForcedSubmission(t *testing.T) {
	ctx := context.Background()
	service, sched, store := newTestService(t)

	session, err := service.StartSession(ctx, "general", "hard", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Let the 15s hard countdown run out with nothing selected.
	for i := 0; i < 15; i++ {
		sched.tick()
	}
	snap := session.Snapshot()
	if !snap.AnswerLocked || snap.TimeRemainingSeconds != 0 {
		t.Fatalf("expected forced lock at zero, got %+v", snap)
	}
	if snap.LastAnswerCorrect || snap.Score != 0 {
		t.Fatalf("expiry with no selection must not score: %+v", snap)
	}

	// Extra ticks past zero change nothing.
	sched.tick()
	if got := session.Snapshot().TimeRemainingSeconds; got != 0 {
		t.Fatalf("expected countdown parked at 0, got %d", got)
	}

	sched.fireAfters()
	next := session.Snapshot()
	if next.QuestionIndex != 1 || next.TimeRemainingSeconds != 15 {
		t.Fatalf("expected question 2 with fresh countdown, got %+v", next)
	}
	if len(store.LoadAll(ctx)) != 0 {
		t.Fatalf("no record should exist mid-session")
	}
}

func TestStaleTimerCallbacksAreIgnored(t *testing.T) {
	ctx := context.Background()
	service, sched, store := newTestService(t)

	session, err := service.StartSession(ctx, "general", "medium", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	session.SelectAnswer("right")
	session.Submit()
	stale := sched.staleCallbacks()
	sched.fireAfters()

	// Replay every callback from the previous question as if it had been
	// in flight during cancellation: none may score, tick, or advance.
	before := session.Snapshot()
	for _, fn := range stale {
		fn()
	}
	after := session.Snapshot()
	if after.QuestionIndex != before.QuestionIndex || after.Score != before.Score ||
		after.TimeRemainingSeconds != before.TimeRemainingSeconds {
		t.Fatalf("stale callback mutated state: before %+v after %+v", before, after)
	}

	// Re-firing the advance one-shot must not double-advance either.
	sched.fireAfters()
	if got := session.Snapshot().QuestionIndex; got != 1 {
		t.Fatalf("expected to stay on question 2, got index %d", got)
	}
	if len(store.LoadAll(ctx)) != 0 {
		t.Fatalf("stale callbacks must not emit records")
	}
}

func TestResetDiscardsRun(t *testing.T) {
	ctx := context.Background()
	service, sched, store := newTestService(t)

	session, err := service.StartSession(ctx, "general", "medium", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	session.SelectAnswer("right")
	session.Submit()
	sched.fireAfters()
	session.SelectAnswer("right")

	session.Reset()
	snap := session.Snapshot()
	if snap.QuestionIndex != 0 || snap.Score != 0 || snap.SelectedAnswer != "" || snap.AnswerLocked {
		t.Fatalf("reset did not restore initial state: %+v", snap)
	}
	if snap.TimeRemainingSeconds != 30 {
		t.Fatalf("expected fresh countdown after reset, got %d", snap.TimeRemainingSeconds)
	}
	if len(store.LoadAll(ctx)) != 0 {
		t.Fatalf("abandoned run must not emit a record")
	}
}

func TestCompletionEmitsExactlyOneRecord(t *testing.T) {
	ctx := context.Background()
	service, sched, store := newTestService(t)

	session, err := service.StartSession(ctx, "general", "easy", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 5; i++ {
		session.SelectAnswer("wrong")
		session.Submit()
		sched.fireAfters()
	}
	if !session.Snapshot().Completed {
		t.Fatalf("expected completion")
	}

	// Post-completion operations and timer replays are all no-ops.
	session.SelectAnswer("right")
	session.Submit()
	sched.fireAfters()
	for _, fn := range sched.staleCallbacks() {
		fn()
	}

	records := store.LoadAll(ctx)
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
	if records[0].Score != 0 || records[0].MaxScore != 500 {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	ctx := context.Background()
	service, sched, _ := newTestService(t)

	session, err := service.StartSession(ctx, "general", "medium", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	updates, cancel := session.Subscribe()
	defer cancel()

	initial := <-updates
	if initial.QuestionIndex != 0 || initial.Phase != domain.PhaseAnswering {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}

	sched.tick()
	ticked := <-updates
	if ticked.TimeRemainingSeconds != 29 {
		t.Fatalf("expected 29s after one tick, got %d", ticked.TimeRemainingSeconds)
	}

	session.SelectAnswer("right")
	<-updates
	session.Submit()
	locked := <-updates
	if locked.Phase != domain.PhaseLocked || !locked.LastAnswerCorrect {
		t.Fatalf("expected locked correct snapshot, got %+v", locked)
	}
	if locked.Question.CorrectAnswer != "right" {
		t.Fatalf("locked snapshot should reveal the answer, got %+v", locked.Question)
	}
	if !locked.Scene.Celebrate {
		t.Fatalf("correct answer should celebrate")
	}
}

// panicky renderer must only disable itself, never break the session.
type panickyRenderer struct{ calls int }

func (p *panickyRenderer) Render(domain.SceneUpdate) {
	p.calls++
	panic("canvas exploded")
}

func TestRendererFailureDegrades(t *testing.T) {
	ctx := context.Background()
	service, sched, store := newTestService(t)

	renderer := &panickyRenderer{}
	session, err := service.StartSession(ctx, "general", "easy", renderer)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if renderer.calls != 1 {
		t.Fatalf("renderer should have been tried once, got %d", renderer.calls)
	}

	for i := 0; i < 5; i++ {
		session.SelectAnswer("right")
		session.Submit()
		sched.fireAfters()
	}
	if renderer.calls != 1 {
		t.Fatalf("broken renderer must stay disabled, got %d calls", renderer.calls)
	}
	if got := session.Snapshot().Score; got != 500 {
		t.Fatalf("session must survive renderer failure, score %d", got)
	}
	if len(store.LoadAll(ctx)) != 1 {
		t.Fatalf("record still expected after renderer failure")
	}
}
