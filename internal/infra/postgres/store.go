package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
)

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store implements app.Store on Postgres. Every engine operation runs in one database transaction.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &storeTx{tx: tx})
	})
}

// SaveQuiz upserts quiz content: the quiz, its questions, answers and result tiers.
// Rows missing from quiz are left in place.
func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&quizRow{ID: quiz.ID, Title: quiz.Title}).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert quiz %s: %w", quiz.ID, err)
		}

		var (
			questions []questionRow
			answers   []answerRow
			results   []resultRow
		)
		for _, q := range quiz.Questions {
			questions = append(questions, questionRow{
				ID:     q.ID,
				QuizID: quiz.ID,
				Text:   q.Text,
				PicURL: q.ImageURL,
				Order:  q.Order,
			})
			for _, a := range q.Answers {
				answers = append(answers, answerRow{
					ID:         a.ID,
					QuestionID: q.ID,
					Text:       a.Text,
					Order:      a.Order,
					Points:     domain.FormatPoints(a.Points),
					IsDeleted:  a.IsDeleted,
				})
			}
		}
		for i, t := range quiz.ResultTiers {
			results = append(results, resultRow{
				ID:          t.ID,
				QuizID:      quiz.ID,
				Position:    i,
				Min:         t.Min,
				Max:         t.Max,
				Title:       t.Title,
				Description: t.Description,
				PicURL:      t.ImageURL,
			})
		}

		if len(questions) > 0 {
			_, err = tx.NewInsert().Model(&questions).
				On("CONFLICT (id) DO UPDATE").
				Set("quiz_id = EXCLUDED.quiz_id").
				Set("text = EXCLUDED.text").
				Set("pic_url = EXCLUDED.pic_url").
				Set("sort_order = EXCLUDED.sort_order").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("upsert questions: %w", err)
			}
		}
		if len(answers) > 0 {
			_, err = tx.NewInsert().Model(&answers).
				On("CONFLICT (id) DO UPDATE").
				Set("quiz_question_id = EXCLUDED.quiz_question_id").
				Set("text = EXCLUDED.text").
				Set("sort_order = EXCLUDED.sort_order").
				Set("points = EXCLUDED.points").
				Set("is_deleted = EXCLUDED.is_deleted").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("upsert answers: %w", err)
			}
		}
		if len(results) > 0 {
			_, err = tx.NewInsert().Model(&results).
				On("CONFLICT (id) DO UPDATE").
				Set("quiz_id = EXCLUDED.quiz_id").
				Set("position = EXCLUDED.position").
				Set("min_points = EXCLUDED.min_points").
				Set("max_points = EXCLUDED.max_points").
				Set("title = EXCLUDED.title").
				Set("description = EXCLUDED.description").
				Set("pic_url = EXCLUDED.pic_url").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("upsert result tiers: %w", err)
			}
		}
		return nil
	})
}

type storeTx struct {
	tx bun.Tx
}

func (t *storeTx) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var row quizRow
	err := t.tx.NewSelect().Model(&row).Where("qz.id = ?", quizID).Scan(ctx)
	if err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "select quiz")
	}
	return domain.Quiz{ID: row.ID, Title: row.Title}, nil
}

func (t *storeTx) Questions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var rows []questionRow
	err := t.tx.NewSelect().Model(&rows).
		Where("qq.quiz_id = ?", quizID).
		OrderExpr("qq.sort_order ASC, qq.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	questions := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.toDomain())
	}
	return questions, nil
}

func (t *storeTx) Question(ctx context.Context, questionID string) (domain.Question, error) {
	var row questionRow
	err := t.tx.NewSelect().Model(&row).Where("qq.id = ?", questionID).Scan(ctx)
	if err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound, "select question")
	}
	return row.toDomain(), nil
}

func (t *storeTx) Answers(ctx context.Context, questionID string) ([]domain.Answer, error) {
	var rows []answerRow
	err := t.tx.NewSelect().Model(&rows).
		Where("qa.quiz_question_id = ?", questionID).
		OrderExpr("qa.sort_order ASC, qa.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	return answersToDomain(rows)
}

func (t *storeTx) Game(ctx context.Context, gameID string) (domain.Game, error) {
	var row gameRow
	err := t.tx.NewSelect().Model(&row).Where("g.id = ?", gameID).Scan(ctx)
	if err != nil {
		return domain.Game{}, notFound(err, domain.ErrGameNotFound, "select game")
	}
	return row.toDomain(), nil
}

func (t *storeTx) CreateGame(ctx context.Context, game *domain.Game) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate game ID: %w", err)
	}

	row := gameRow{
		ID:                id.String(),
		QuizID:            game.QuizID,
		SessionID:         game.SessionID,
		CurrentQuestionID: game.CurrentQuestionID,
		IsFinished:        game.IsFinished,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := t.tx.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	game.ID = row.ID
	game.CreatedAt = row.CreatedAt
	return nil
}

func (t *storeTx) UpdateGameProgress(ctx context.Context, gameID, currentQuestionID string, finished bool) error {
	res, err := t.tx.NewUpdate().Table("games").
		Set("current_question_id = ?", nullable(currentQuestionID)).
		Set("is_finished = ?", finished).
		Where("id = ?", gameID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update game progress: %w", err)
	}
	return requireRow(res, domain.ErrGameNotFound)
}

func (t *storeTx) SaveGameResult(ctx context.Context, gameID, resultTierID string, summary domain.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	res, err := t.tx.NewUpdate().Table("games").
		Set("quiz_result_id = ?", resultTierID).
		Set("result_summary = ?", string(raw)).
		Where("id = ?", gameID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update game result: %w", err)
	}
	return requireRow(res, domain.ErrGameNotFound)
}

func (t *storeTx) AppendGameAnswer(ctx context.Context, answer *domain.GameAnswer) error {
	row := gameAnswerRow{
		GameID:     answer.GameID,
		QuestionID: answer.QuestionID,
		AnswerID:   answer.AnswerID,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := t.tx.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert game answer: %w", err)
	}
	answer.ID = row.ID
	answer.CreatedAt = row.CreatedAt
	return nil
}

func (t *storeTx) ChosenAnswers(ctx context.Context, gameID string) ([]domain.Answer, error) {
	var rows []answerRow
	err := t.tx.NewSelect().Model(&rows).
		Join("JOIN game_answers AS ga ON ga.quiz_question_answer_id = qa.id").
		Where("ga.game_id = ?", gameID).
		OrderExpr("ga.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select chosen answers: %w", err)
	}
	return answersToDomain(rows)
}

func (t *storeTx) ResultTiers(ctx context.Context, quizID string) ([]domain.ResultTier, error) {
	var rows []resultRow
	err := t.tx.NewSelect().Model(&rows).
		Where("qr.quiz_id = ?", quizID).
		OrderExpr("qr.position ASC, qr.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select result tiers: %w", err)
	}
	tiers := make([]domain.ResultTier, 0, len(rows))
	for _, r := range rows {
		tiers = append(tiers, r.toDomain())
	}
	return tiers, nil
}

func (t *storeTx) ResultTier(ctx context.Context, tierID string) (domain.ResultTier, error) {
	var row resultRow
	err := t.tx.NewSelect().Model(&row).Where("qr.id = ?", tierID).Scan(ctx)
	if err != nil {
		return domain.ResultTier{}, notFound(err, domain.ErrResultTierNotFound, "select result tier")
	}
	return row.toDomain(), nil
}

func answersToDomain(rows []answerRow) ([]domain.Answer, error) {
	answers := make([]domain.Answer, 0, len(rows))
	for _, r := range rows {
		a, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("answer %s: %w", r.ID, err)
		}
		answers = append(answers, a)
	}
	return answers, nil
}

func notFound(err, sentinel error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRow(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel
	}
	return nil
}

// nullable maps "" to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
