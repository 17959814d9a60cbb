package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"quiz-arcade/internal/app"
	"quiz-arcade/internal/config"
	"quiz-arcade/internal/domain"
	"quiz-arcade/internal/logger"

	"github.com/spf13/cobra"
)

// NewPlayCmd builds the interactive terminal front end over the same engine
// the server runs.
func NewPlayCmd(configPath *string) *cobra.Command {
	var category, difficulty string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, category, difficulty)
		},
	}
	cmd.Flags().StringVar(&category, "category", "general", "question category")
	cmd.Flags().StringVar(&difficulty, "difficulty", "medium", "easy, medium, or hard")
	return cmd
}

// confettiPrinter is the terminal stand-in for the 3D scene: it reacts to
// the celebrate flag and ignores the rest.
type confettiPrinter struct {
	celebrating bool
}

func (c *confettiPrinter) Render(update domain.SceneUpdate) {
	if update.Celebrate && !c.celebrating {
		fmt.Print("  \U0001F389✨\U0001F389")
	}
	c.celebrating = update.Celebrate
}

func runPlay(ctx context.Context, configPath, categoryID, difficultyID string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Keep the terminal clean while playing.
	log := logger.Setup("error", cfg.Log.Format)

	service, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	session, err := service.StartSession(ctx, categoryID, difficultyID, &confettiPrinter{})
	if err != nil {
		// Bad category selection falls back to the known-good default.
		if categoryID != "general" && (errors.Is(err, domain.ErrCategoryNotFound) || errors.Is(err, domain.ErrNoQuestions)) {
			fmt.Printf("No questions for %q, falling back to general knowledge.\n", categoryID)
			categoryID = "general"
			session, err = service.StartSession(ctx, categoryID, difficultyID, &confettiPrinter{})
		}
		if err != nil {
			return err
		}
	}
	defer session.Stop()

	input := make(chan string)
	go func() {
		defer close(input)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- strings.TrimSpace(scanner.Text())
		}
	}()

	updates, cancelSub := session.Subscribe()
	defer cancelSub()

	fmt.Println("Pick an option by number, press Enter to submit, q to quit.")

	var prev domain.SessionSnapshot
	first := true
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			printTransition(prev, snap, first)
			first = false
			prev = snap
			if snap.Completed {
				printLeaderboard(ctx, service, categoryID, difficultyID)
				return nil
			}

		case line, ok := <-input:
			if !ok || line == "q" {
				fmt.Println()
				return nil
			}
			if line == "" {
				session.Submit()
				continue
			}
			if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(prev.Question.Options) {
				session.SelectAnswer(prev.Question.Options[n-1])
			} else {
				session.SelectAnswer(line)
			}
		}
	}
}

func printTransition(prev, snap domain.SessionSnapshot, first bool) {
	newQuestion := first || snap.QuestionIndex != prev.QuestionIndex ||
		(prev.Phase != domain.PhaseAnswering && snap.Phase == domain.PhaseAnswering)

	switch {
	case snap.Completed:
		fmt.Printf("\n\nQuiz complete! Final score: %d / %d\n", snap.Score, snap.MaxScore)
		fmt.Println(verdict(snap.Score, snap.MaxScore))

	case newQuestion && snap.Phase == domain.PhaseAnswering:
		fmt.Printf("\n\nQuestion %d of %d  (score %d)\n  %s\n",
			snap.QuestionIndex+1, snap.TotalQuestions, snap.Score, snap.Question.Text)
		for i, opt := range snap.Question.Options {
			fmt.Printf("    %d) %s\n", i+1, opt)
		}
		fmt.Printf("  %2ds left > ", snap.TimeRemainingSeconds)

	case snap.Phase == domain.PhaseLocked && prev.Phase != domain.PhaseLocked:
		if snap.LastAnswerCorrect {
			fmt.Printf("\n  Correct! Score: %d", snap.Score)
		} else {
			fmt.Printf("\n  Wrong. The answer was: %s", snap.Question.CorrectAnswer)
		}

	case snap.Phase == domain.PhaseAnswering && snap.TimeRemainingSeconds != prev.TimeRemainingSeconds:
		fmt.Printf("\r  %2ds left > ", snap.TimeRemainingSeconds)
	}
}

func verdict(score, max int) string {
	switch {
	case max > 0 && score == max:
		return "Perfect score! You're amazing!"
	case max > 0 && score >= max/2:
		return "Good job!"
	default:
		return "Better luck next time!"
	}
}

func printLeaderboard(ctx context.Context, service *app.QuizService, categoryID, difficultyID string) {
	records := service.HighScores(ctx, domain.ScoreFilter{Category: categoryID, Difficulty: difficultyID})
	if len(records) == 0 {
		fmt.Println("No scores yet. Complete a quiz to see your scores here!")
		return
	}
	fmt.Printf("\nHigh scores for %s (%s)\n", categoryID, difficultyID)
	for i, r := range records {
		fmt.Printf("  %2d. %5d / %d  %s\n", i+1, r.Score, r.MaxScore, r.Date)
	}
}
