package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every engine error wraps exactly one of these.
var (
	// ErrNotFound marks a missing or inconsistent quiz/question/answer/game reference.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks data outside the engine's control that violates a domain invariant.
	ErrConflict = errors.New("conflict")
	// ErrPrecondition marks a quiz that cannot be played as configured.
	ErrPrecondition = errors.New("precondition failed")
)

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrQuestionNotFound indicates the question does not exist or is not part of the game's quiz.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrAnswerNotFound indicates the answer does not belong to the stated question and game.
	ErrAnswerNotFound = fmt.Errorf("answer %w", ErrNotFound)
	// ErrGameNotFound indicates the game does not exist.
	ErrGameNotFound = fmt.Errorf("game %w", ErrNotFound)
	// ErrResultTierNotFound indicates a cached result tier was removed after resolution.
	ErrResultTierNotFound = fmt.Errorf("result tier %w", ErrNotFound)

	// ErrNoSuitableResult is returned when no result tier covers the achieved score.
	ErrNoSuitableResult = fmt.Errorf("unable to find suitable result: %w", ErrConflict)

	// ErrQuizHasNoQuestions is returned when a game is created for an empty quiz.
	ErrQuizHasNoQuestions = fmt.Errorf("cannot find first question for this quiz: %w", ErrPrecondition)
)

// Kind reports which error kind err belongs to, or nil for unclassified (internal) errors.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrPrecondition} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
