package domain

import "errors"

var (
	// ErrCategoryNotFound is returned when a category has no question data.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrNoQuestions is returned when a category exists but carries zero questions.
	ErrNoQuestions = errors.New("category has no questions")
	// ErrDifficultyNotFound is returned when a difficulty key is not in the table.
	ErrDifficultyNotFound = errors.New("difficulty not found")
	// ErrNoSession is returned by transports when an operation arrives before start.
	ErrNoSession = errors.New("no active session")
)
