package domain

import "time"

// PointsPerCorrect is the base score for a correct answer before the
// difficulty multiplier is applied.
const PointsPerCorrect = 100

// Theme carries the three category colors consumed by the rendering layer.
type Theme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// Question models an MCQ question. CorrectAnswer must equal one of Options.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Category is a named question set with its display theme.
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Theme     Theme      `json:"theme"`
	Questions []Question `json:"questions"`
}

// DifficultyProfile is the per-difficulty time limit and score multiplier.
type DifficultyProfile struct {
	TimeLimitSeconds int `json:"timeLimitSeconds" yaml:"time_limit_seconds"`
	ScoreMultiplier  int `json:"scoreMultiplier" yaml:"score_multiplier"`
}

// DefaultDifficulties returns the built-in difficulty table.
func DefaultDifficulties() map[string]DifficultyProfile {
	return map[string]DifficultyProfile{
		"easy":   {TimeLimitSeconds: 45, ScoreMultiplier: 1},
		"medium": {TimeLimitSeconds: 30, ScoreMultiplier: 2},
		"hard":   {TimeLimitSeconds: 15, ScoreMultiplier: 3},
	}
}

// Phase is the session's per-question state.
type Phase string

const (
	// PhaseAnswering means the current question accepts selection and submission.
	PhaseAnswering Phase = "answering"
	// PhaseLocked means an answer was submitted (or time expired) and the
	// session is waiting out the feedback delay before advancing.
	PhaseLocked Phase = "locked"
	// PhaseCompleted means the session advanced past the last question.
	PhaseCompleted Phase = "completed"
)

// QuestionView is the question as shown to a player. The correct answer is
// only revealed once the question is locked.
type QuestionView struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

// SceneUpdate is the payload handed to the rendering collaborator. The
// session never reads anything back from it.
type SceneUpdate struct {
	ProgressFraction float64 `json:"progressFraction"`
	Score            int     `json:"score"`
	TotalQuestions   int     `json:"totalQuestions"`
	Celebrate        bool    `json:"celebrate"`
	Category         string  `json:"category"`
	Theme            Theme   `json:"theme"`
}

// SessionSnapshot is an immutable view of the session state, broadcast to
// subscribers on every transition and countdown tick.
type SessionSnapshot struct {
	Category             string       `json:"category"`
	Difficulty           string       `json:"difficulty"`
	Phase                Phase        `json:"phase"`
	QuestionIndex        int          `json:"questionIndex"`
	TotalQuestions       int          `json:"totalQuestions"`
	Question             QuestionView `json:"question"`
	SelectedAnswer       string       `json:"selectedAnswer,omitempty"`
	AnswerLocked         bool         `json:"answerLocked"`
	LastAnswerCorrect    bool         `json:"lastAnswerCorrect"`
	Score                int          `json:"score"`
	MaxScore             int          `json:"maxScore"`
	TimeRemainingSeconds int          `json:"timeRemainingSeconds"`
	Completed            bool         `json:"completed"`
	Scene                SceneUpdate  `json:"scene"`
}

// ScoreRecord is the immutable summary of one completed session.
type ScoreRecord struct {
	ID         string `json:"id"`
	Score      int    `json:"score"`
	MaxScore   int    `json:"maxScore"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Date       string `json:"date"` // ISO-8601
}

// Timestamp parses the record date; zero time if malformed.
func (r ScoreRecord) Timestamp() time.Time {
	t, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ScoreFilter restricts leaderboard views. Empty fields match everything.
type ScoreFilter struct {
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Matches reports whether the record passes the filter.
func (f ScoreFilter) Matches(r ScoreRecord) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && r.Difficulty != f.Difficulty {
		return false
	}
	return true
}
