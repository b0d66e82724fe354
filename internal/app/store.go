package app

import (
	"context"

	"quiz-game-service/internal/domain"
)

// Store runs engine operations against persistent state. fn's reads and writes either all commit
// or all roll back; a non-nil error from fn rolls back.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transactional view handed to engine operations. Single-row lookups return the
// matching domain NotFound sentinel when the row is missing.
type Tx interface {
	// Quiz returns the quiz header without questions or tiers.
	Quiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// Questions returns the quiz's questions without answers.
	Questions(ctx context.Context, quizID string) ([]domain.Question, error)
	Question(ctx context.Context, questionID string) (domain.Question, error)
	// Answers returns every answer of the question, soft-deleted ones included.
	Answers(ctx context.Context, questionID string) ([]domain.Answer, error)

	Game(ctx context.Context, gameID string) (domain.Game, error)
	// CreateGame persists a new game and assigns its ID and CreatedAt.
	CreateGame(ctx context.Context, game *domain.Game) error
	// UpdateGameProgress sets the current question pointer ("" stores null) and the finished flag.
	UpdateGameProgress(ctx context.Context, gameID, currentQuestionID string, finished bool) error
	// SaveGameResult writes the resolved tier and summary together.
	SaveGameResult(ctx context.Context, gameID, resultTierID string, summary domain.Summary) error

	AppendGameAnswer(ctx context.Context, answer *domain.GameAnswer) error
	// ChosenAnswers returns the chosen answer of every GameAnswer row of the game, duplicates kept.
	ChosenAnswers(ctx context.Context, gameID string) ([]domain.Answer, error)

	// ResultTiers returns the quiz's tiers in their natural (stored) order.
	ResultTiers(ctx context.Context, quizID string) ([]domain.ResultTier, error)
	ResultTier(ctx context.Context, tierID string) (domain.ResultTier, error)
}

// QuizRepository loads read-only quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}
