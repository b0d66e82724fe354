package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-game-service/internal/domain"
)

// QuizLoader reads complete quiz content for the catalog cache.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz := domain.Quiz{ID: quizID}
	err := l.pool.QueryRow(ctx, `SELECT title FROM quizzes WHERE id = $1`, quizID).Scan(&quiz.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	if quiz.Questions, err = l.loadQuestions(ctx, quizID); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ResultTiers, err = l.loadResultTiers(ctx, quizID); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (l *QuizLoader) loadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	const stmt = `
SELECT q.id, q.text, COALESCE(q.pic_url, ''), q.sort_order,
       a.id, a.text, a.sort_order, a.points, a.is_deleted
FROM quiz_questions q
LEFT JOIN quiz_question_answers a ON a.quiz_question_id = q.id
WHERE q.quiz_id = $1
ORDER BY q.sort_order, q.id, a.sort_order, a.id;`

	rows, err := l.pool.Query(ctx, stmt, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q           domain.Question
			answerID    *string
			answerText  *string
			answerOrder *int
			points      *string
			deleted     *bool
		)
		if err := rows.Scan(&q.ID, &q.Text, &q.ImageURL, &q.Order,
			&answerID, &answerText, &answerOrder, &points, &deleted); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.QuizID = quizID

		if n := len(questions); n == 0 || questions[n-1].ID != q.ID {
			questions = append(questions, q)
		}
		if answerID == nil {
			continue
		}

		p, err := domain.ParsePoints(*points)
		if err != nil {
			return nil, fmt.Errorf("answer %s: %w", *answerID, err)
		}
		last := &questions[len(questions)-1]
		last.Answers = append(last.Answers, domain.Answer{
			ID:         *answerID,
			QuestionID: q.ID,
			Text:       *answerText,
			Order:      *answerOrder,
			Points:     p,
			IsDeleted:  *deleted,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

func (l *QuizLoader) loadResultTiers(ctx context.Context, quizID string) ([]domain.ResultTier, error) {
	const stmt = `
SELECT id, min_points, max_points, title, description, COALESCE(pic_url, '')
FROM quiz_results
WHERE quiz_id = $1
ORDER BY position, id;`

	rows, err := l.pool.Query(ctx, stmt, quizID)
	if err != nil {
		return nil, fmt.Errorf("load result tiers: %w", err)
	}
	defer rows.Close()

	var tiers []domain.ResultTier
	for rows.Next() {
		t := domain.ResultTier{QuizID: quizID}
		if err := rows.Scan(&t.ID, &t.Min, &t.Max, &t.Title, &t.Description, &t.ImageURL); err != nil {
			return nil, fmt.Errorf("scan result tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load result tiers: %w", err)
	}
	return tiers, nil
}
