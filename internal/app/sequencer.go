package app

import (
	"sort"

	"quiz-game-service/internal/domain"
)

// FirstQuestion returns the question with the smallest order. Ties go to the smaller ID.
func FirstQuestion(questions []domain.Question) (domain.Question, error) {
	if len(questions) == 0 {
		return domain.Question{}, domain.ErrQuizHasNoQuestions
	}
	sorted := sortedQuestions(questions)
	return sorted[0], nil
}

// NextQuestion returns the first question ordered strictly after current by (order, id).
// ok is false when current is the last question, which completes the quiz.
func NextQuestion(questions []domain.Question, current domain.Question) (next domain.Question, ok bool) {
	for _, q := range sortedQuestions(questions) {
		if questionBefore(current, q) {
			return q, true
		}
	}
	return domain.Question{}, false
}

func sortedQuestions(questions []domain.Question) []domain.Question {
	sorted := make([]domain.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return questionBefore(sorted[i], sorted[j])
	})
	return sorted
}

func questionBefore(a, b domain.Question) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.ID < b.ID
}

func sortedAnswers(answers []domain.Answer) []domain.Answer {
	sorted := make([]domain.Answer, len(answers))
	copy(sorted, answers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
