package app

import (
	"context"
	"fmt"

	"quiz-game-service/internal/domain"
)

// submitAnswer records the answer and moves the game pointer to the next question, or finishes
// the game when the answered question was the last one. It must run inside a single transaction.
//
// The submitted question is not checked against the game's current pointer.
func submitAnswer(ctx context.Context, tx Tx, gameID, questionID, answerID string) (domain.Submission, error) {
	rec, err := recordAnswer(ctx, tx, gameID, questionID, answerID)
	if err != nil {
		return domain.Submission{}, err
	}

	submission := domain.Submission{
		Chosen:  rec.chosen,
		Correct: rec.correct,
	}

	// Replays on a finished game are recorded but never reopen it.
	if rec.game.IsFinished {
		submission.Finished = true
		return submission, nil
	}

	questions, err := tx.Questions(ctx, rec.question.QuizID)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load questions: %w", err)
	}

	next, ok := NextQuestion(questions, rec.question)
	if ok {
		submission.NextQuestionID = next.ID
	} else {
		submission.Finished = true
	}

	if err := tx.UpdateGameProgress(ctx, gameID, submission.NextQuestionID, submission.Finished); err != nil {
		return domain.Submission{}, fmt.Errorf("update game progress: %w", err)
	}
	return submission, nil
}
