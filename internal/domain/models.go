package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quiz is an ordered set of questions plus the result tiers used to grade a game.
type Quiz struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Questions   []Question   `json:"questions" yaml:"questions"`
	ResultTiers []ResultTier `json:"results" yaml:"results"`
}

// Question belongs to exactly one quiz. Order is only used for sequencing and need not be contiguous.
type Question struct {
	ID       string   `json:"id" yaml:"id"`
	QuizID   string   `json:"quizId" yaml:"-"`
	Text     string   `json:"text" yaml:"text"`
	ImageURL string   `json:"imageUrl,omitempty" yaml:"image"`
	Order    int      `json:"order" yaml:"order"`
	Answers  []Answer `json:"answers,omitempty" yaml:"answers"`
}

// Answer is one choice of a question. Points are persisted as text.
type Answer struct {
	ID         string `json:"id" yaml:"id"`
	QuestionID string `json:"questionId" yaml:"-"`
	Text       string `json:"text" yaml:"text"`
	Order      int    `json:"order" yaml:"order"`
	Points     int    `json:"points" yaml:"points"`
	IsDeleted  bool   `json:"-" yaml:"deleted"`
}

// Correct reports whether the answer scores.
func (a Answer) Correct() bool {
	return a.Points > 0
}

// Game is one playthrough of a quiz. Empty CurrentQuestionID and ResultTierID mean "not set".
type Game struct {
	ID                string    `json:"id"`
	QuizID            string    `json:"quizId"`
	SessionID         string    `json:"sessionId"`
	CurrentQuestionID string    `json:"currentQuestionId,omitempty"`
	IsFinished        bool      `json:"isFinished"`
	ResultTierID      string    `json:"resultTierId,omitempty"`
	ResultSummary     *Summary  `json:"resultSummary,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Resolved reports whether the result tier and summary were cached on the game.
func (g Game) Resolved() bool {
	return g.ResultTierID != "" && g.ResultSummary != nil
}

// GameAnswer is an append-only record of one submitted answer.
type GameAnswer struct {
	ID         int64     `json:"id"`
	GameID     string    `json:"gameId"`
	QuestionID string    `json:"questionId"`
	AnswerID   string    `json:"answerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ResultTier is a scoring bucket covering the inclusive range [Min, Max].
type ResultTier struct {
	ID          string `json:"id" yaml:"id"`
	QuizID      string `json:"quizId" yaml:"-"`
	Min         int    `json:"min" yaml:"min"`
	Max         int    `json:"max" yaml:"max"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	ImageURL    string `json:"imageUrl,omitempty" yaml:"image"`
}

// Contains reports whether score falls within the tier, both ends inclusive.
func (t ResultTier) Contains(score int) bool {
	return t.Min <= score && score <= t.Max
}

// Summary is the snapshot cached on a game when its result is resolved.
type Summary struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"total_questions"`
}

// Submission is the outcome of answering a question.
type Submission struct {
	Chosen Answer `json:"chosen"`
	// Correct is nil when the question has no scoring answer.
	Correct        *Answer `json:"correct,omitempty"`
	Finished       bool    `json:"finished"`
	NextQuestionID string  `json:"nextQuestionId,omitempty"`
}

// Result pairs a resolved tier with its cached summary.
type Result struct {
	Tier    ResultTier `json:"tier"`
	Summary Summary    `json:"summary"`
}

// ParsePoints decodes the textual points column.
func ParsePoints(raw string) (int, error) {
	points, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse points %q: %w", raw, err)
	}
	return points, nil
}

// FormatPoints encodes points for the textual points column.
func FormatPoints(points int) string {
	return strconv.Itoa(points)
}
