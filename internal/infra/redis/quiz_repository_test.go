package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, client := newMiniredis(t)
	loader := &countingLoader{QuizLoader: memory.NewStore(sampleQuiz())}
	repo := NewQuizRepository(client, loader, time.Minute)

	_, err := repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Equal(t, 1, loader.calls)
	require.True(t, mr.Exists("quiz:quiz-1:content"))

	// second call is served from redis
	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Equal(t, 1, loader.calls)
	require.Equal(t, "What is 2 + 2?", quiz.Questions[0].Text)
	require.Len(t, quiz.ResultTiers, 2)
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	mr, client := newMiniredis(t)
	loader := &countingLoader{QuizLoader: memory.NewStore(sampleQuiz())}
	repo := NewQuizRepository(client, loader, time.Minute)

	_, err := repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.NoError(t, repo.Invalidate(context.Background(), "quiz-1"))
	require.False(t, mr.Exists("quiz:quiz-1:content"))

	_, err = repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Equal(t, 2, loader.calls)
}

func TestQuizRepositoryExpiresEntries(t *testing.T) {
	mr, client := newMiniredis(t)
	loader := &countingLoader{QuizLoader: memory.NewStore(sampleQuiz())}
	repo := NewQuizRepository(client, loader, time.Minute)

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")

	require.Equal(t, 2, loader.calls)
}

func TestQuizRepositoryIgnoresCorruptEntry(t *testing.T) {
	mr, client := newMiniredis(t)
	require.NoError(t, mr.Set("quiz:quiz-1:content", "{not json"))
	loader := &countingLoader{QuizLoader: memory.NewStore(sampleQuiz())}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "quiz-1", quiz.ID)
	require.Equal(t, 1, loader.calls)
}

func TestQuizRepositoryFallsBackWhenRedisDown(t *testing.T) {
	mr, client := newMiniredis(t)
	mr.Close()
	loader := &countingLoader{QuizLoader: memory.NewStore(sampleQuiz())}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Equal(t, "quiz-1", quiz.ID)
}

func TestQuizRepositoryDropsDeletedAnswers(t *testing.T) {
	_, client := newMiniredis(t)
	quiz := sampleQuiz()
	quiz.Questions[0].Answers[0].IsDeleted = true
	repo := NewQuizRepository(client, memory.NewStore(quiz), time.Minute)

	_, err := repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)

	cached, err := repo.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Len(t, cached.Questions[0].Answers, 1)
	require.Equal(t, "a2", cached.Questions[0].Answers[0].ID)
}

func TestQuizRepositoryPropagatesNotFound(t *testing.T) {
	mr, client := newMiniredis(t)
	repo := NewQuizRepository(client, memory.NewStore(), time.Minute)

	_, err := repo.GetQuiz(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrQuizNotFound)
	require.False(t, mr.Exists("quiz:missing:content"))
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{
				ID:    "q1",
				Text:  "What is 2 + 2?",
				Order: 1,
				Answers: []domain.Answer{
					{ID: "a1", Text: "3", Order: 1},
					{ID: "a2", Text: "4", Order: 2, Points: 1},
				},
			},
		},
		ResultTiers: []domain.ResultTier{
			{ID: "low", Min: 0, Max: 0},
			{ID: "high", Min: 1, Max: 1},
		},
	}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
