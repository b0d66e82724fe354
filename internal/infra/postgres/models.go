package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quiz-game-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:quiz_questions,alias:qq"`

	ID     string `bun:"id,pk"`
	QuizID string `bun:"quiz_id,notnull"`
	Text   string `bun:"text"`
	PicURL string `bun:"pic_url,nullzero"`
	Order  int    `bun:"sort_order,notnull"`
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:       r.ID,
		QuizID:   r.QuizID,
		Text:     r.Text,
		ImageURL: r.PicURL,
		Order:    r.Order,
	}
}

type answerRow struct {
	bun.BaseModel `bun:"table:quiz_question_answers,alias:qa"`

	ID         string `bun:"id,pk"`
	QuestionID string `bun:"quiz_question_id,notnull"`
	Text       string `bun:"text"`
	Order      int    `bun:"sort_order,notnull"`
	Points     string `bun:"points,notnull"`
	IsDeleted  bool   `bun:"is_deleted,notnull"`
}

func (r answerRow) toDomain() (domain.Answer, error) {
	points, err := domain.ParsePoints(r.Points)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{
		ID:         r.ID,
		QuestionID: r.QuestionID,
		Text:       r.Text,
		Order:      r.Order,
		Points:     points,
		IsDeleted:  r.IsDeleted,
	}, nil
}

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results,alias:qr"`

	ID          string `bun:"id,pk"`
	QuizID      string `bun:"quiz_id,notnull"`
	Position    int    `bun:"position,notnull"`
	Min         int    `bun:"min_points,notnull"`
	Max         int    `bun:"max_points,notnull"`
	Title       string `bun:"title"`
	Description string `bun:"description"`
	PicURL      string `bun:"pic_url,nullzero"`
}

func (r resultRow) toDomain() domain.ResultTier {
	return domain.ResultTier{
		ID:          r.ID,
		QuizID:      r.QuizID,
		Min:         r.Min,
		Max:         r.Max,
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.PicURL,
	}
}

type gameRow struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID                string          `bun:"id,pk"`
	QuizID            string          `bun:"quiz_id,notnull"`
	SessionID         string          `bun:"session_id,notnull"`
	CurrentQuestionID string          `bun:"current_question_id,nullzero"`
	IsFinished        bool            `bun:"is_finished,notnull"`
	ResultID          string          `bun:"quiz_result_id,nullzero"`
	ResultSummary     *domain.Summary `bun:"result_summary,type:jsonb"`
	CreatedAt         time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r gameRow) toDomain() domain.Game {
	return domain.Game{
		ID:                r.ID,
		QuizID:            r.QuizID,
		SessionID:         r.SessionID,
		CurrentQuestionID: r.CurrentQuestionID,
		IsFinished:        r.IsFinished,
		ResultTierID:      r.ResultID,
		ResultSummary:     r.ResultSummary,
		CreatedAt:         r.CreatedAt,
	}
}

type gameAnswerRow struct {
	bun.BaseModel `bun:"table:game_answers,alias:ga"`

	ID         int64     `bun:"id,pk,autoincrement"`
	GameID     string    `bun:"game_id,notnull"`
	QuestionID string    `bun:"quiz_question_id,notnull"`
	AnswerID   string    `bun:"quiz_question_answer_id,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
