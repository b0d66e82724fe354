package app

import (
	"context"
	"errors"
	"fmt"

	"quiz-game-service/internal/domain"
)

// recorded is everything the recorder resolved while appending a GameAnswer.
type recorded struct {
	game     domain.Game
	question domain.Question
	chosen   domain.Answer
	correct  *domain.Answer
}

// recordAnswer validates that game, question and answer are mutually consistent, resolves the
// question's correct answer and appends a GameAnswer. Duplicate submissions are not rejected.
func recordAnswer(ctx context.Context, tx Tx, gameID, questionID, answerID string) (recorded, error) {
	game, err := tx.Game(ctx, gameID)
	if err != nil {
		return recorded{}, err
	}

	question, err := tx.Question(ctx, questionID)
	if errors.Is(err, domain.ErrQuestionNotFound) {
		return recorded{}, domain.ErrAnswerNotFound
	}
	if err != nil {
		return recorded{}, err
	}
	if question.QuizID != game.QuizID {
		return recorded{}, domain.ErrAnswerNotFound
	}

	answers, err := tx.Answers(ctx, questionID)
	if err != nil {
		return recorded{}, err
	}
	answers = sortedAnswers(answers)

	var (
		chosen  *domain.Answer
		correct *domain.Answer
	)
	for i := range answers {
		if chosen == nil && answers[i].ID == answerID {
			chosen = &answers[i]
		}
		// first match wins if a question has several scoring answers
		if correct == nil && answers[i].Correct() {
			correct = &answers[i]
		}
	}
	if chosen == nil {
		return recorded{}, domain.ErrAnswerNotFound
	}

	if err := tx.AppendGameAnswer(ctx, &domain.GameAnswer{
		GameID:     gameID,
		QuestionID: questionID,
		AnswerID:   answerID,
	}); err != nil {
		return recorded{}, fmt.Errorf("append game answer: %w", err)
	}

	return recorded{
		game:     game,
		question: question,
		chosen:   *chosen,
		correct:  correct,
	}, nil
}
