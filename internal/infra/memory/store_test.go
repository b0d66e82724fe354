package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
)

func TestStoreRollsBackFailedTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore(sampleQuiz())
	boom := errors.New("boom")

	var created domain.Game
	err := store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		created = domain.Game{QuizID: "quiz-1", CurrentQuestionID: "q1"}
		if err := tx.CreateGame(ctx, &created); err != nil {
			return err
		}
		if err := tx.AppendGameAnswer(ctx, &domain.GameAnswer{GameID: created.ID, QuestionID: "q1", AnswerID: "a1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NotEmpty(t, created.ID)

	err = store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		_, err := tx.Game(ctx, created.ID)
		return err
	})
	require.ErrorIs(t, err, domain.ErrGameNotFound)
	require.Empty(t, store.GameAnswers(created.ID))
}

func TestStoreGameLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore(sampleQuiz())

	var game domain.Game
	err := store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		game = domain.Game{QuizID: "quiz-1", SessionID: "s", CurrentQuestionID: "q1"}
		if err := tx.CreateGame(ctx, &game); err != nil {
			return err
		}
		for _, answerID := range []string{"a1", "a1"} {
			if err := tx.AppendGameAnswer(ctx, &domain.GameAnswer{GameID: game.ID, QuestionID: "q1", AnswerID: answerID}); err != nil {
				return err
			}
		}
		if err := tx.UpdateGameProgress(ctx, game.ID, "", true); err != nil {
			return err
		}
		return tx.SaveGameResult(ctx, game.ID, "low", domain.Summary{Score: 0, TotalQuestions: 1})
	})
	require.NoError(t, err)

	err = store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		got, err := tx.Game(ctx, game.ID)
		require.NoError(t, err)
		require.True(t, got.IsFinished)
		require.Empty(t, got.CurrentQuestionID)
		require.True(t, got.Resolved())

		chosen, err := tx.ChosenAnswers(ctx, game.ID)
		require.NoError(t, err)
		require.Len(t, chosen, 2)
		require.Equal(t, "a1", chosen[1].ID)

		tier, err := tx.ResultTier(ctx, got.ResultTierID)
		require.NoError(t, err)
		require.Equal(t, "quiz-1", tier.QuizID)
		return nil
	})
	require.NoError(t, err)

	answers := store.GameAnswers(game.ID)
	require.Equal(t, []int64{1, 2}, []int64{answers[0].ID, answers[1].ID})
}

func TestStoreLookupsNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewStore(sampleQuiz())

	err := store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		_, err := tx.Quiz(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrQuizNotFound)
		_, err = tx.Question(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrQuestionNotFound)
		_, err = tx.ResultTier(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrResultTierNotFound)
		require.ErrorIs(t, tx.UpdateGameProgress(ctx, "missing", "", true), domain.ErrGameNotFound)

		questions, err := tx.Questions(ctx, "missing")
		require.NoError(t, err)
		require.Empty(t, questions)
		return nil
	})
	require.NoError(t, err)
}

func TestSaveQuizReplacesContent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(sampleQuiz())

	replaced := sampleQuiz()
	replaced.Questions[0].Answers = []domain.Answer{{ID: "a9", Points: 3}}
	require.NoError(t, store.SaveQuiz(ctx, replaced))

	err := store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		answers, err := tx.Answers(ctx, "q1")
		require.NoError(t, err)
		require.Len(t, answers, 1)
		require.Equal(t, "q1", answers[0].QuestionID)
		return nil
	})
	require.NoError(t, err)

	quiz, err := store.LoadQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "a9", quiz.Questions[0].Answers[0].ID)
}
