package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/logger"
)

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches quiz content in Redis and falls back to a loader on cache miss.
// Each quiz is stored as JSON under quiz:{quizID}:content. Redis failures degrade to the loader.
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	group  singleflight.Group
	log    logrus.FieldLogger
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    logger.Discard(),
	}
}

// WithLogger sets the logger used for cache failures.
func (r *QuizRepository) WithLogger(log logrus.FieldLogger) *QuizRepository {
	r.log = log
	return r
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	v, err, _ := r.group.Do(quizID, func() (interface{}, error) {
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.store(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return v.(domain.Quiz), nil
}

// Invalidate drops the cached copy of a quiz.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) error {
	if err := r.client.Del(ctx, contentKey(quizID)).Err(); err != nil {
		return fmt.Errorf("invalidate quiz %s: %w", quizID, err)
	}
	return nil
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, contentKey(quizID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Quiz{}, false
	}
	if err != nil {
		r.log.WithError(err).WithField("quiz_id", quizID).Warn("quiz cache read failed")
		return domain.Quiz{}, false
	}

	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		r.log.WithError(err).WithField("quiz_id", quizID).Warn("quiz cache entry corrupt")
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) store(ctx context.Context, quiz domain.Quiz) {
	if r.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(cacheable(quiz))
	if err != nil {
		r.log.WithError(err).WithField("quiz_id", quiz.ID).Warn("quiz cache encode failed")
		return
	}
	ttl := r.ttl + rand.N(r.ttl/10+1)
	if err := r.client.Set(ctx, contentKey(quiz.ID), raw, ttl).Err(); err != nil {
		r.log.WithError(err).WithField("quiz_id", quiz.ID).Warn("quiz cache write failed")
	}
}

// cacheable drops soft-deleted answers, whose flag is not part of the JSON encoding.
func cacheable(quiz domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		answers := make([]domain.Answer, 0, len(q.Answers))
		for _, a := range q.Answers {
			if !a.IsDeleted {
				answers = append(answers, a)
			}
		}
		q.Answers = answers
		questions[i] = q
	}
	quiz.Questions = questions
	return quiz
}

func contentKey(quizID string) string {
	return "quiz:" + quizID + ":content"
}
