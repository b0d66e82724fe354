package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/logger"
	"quiz-game-service/internal/metrics"
)

// GameService exposes the game progression and scoring use cases.
type GameService struct {
	store   Store
	quizzes QuizRepository
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// Option configures a GameService.
type Option func(*GameService)

// WithLogger sets the service logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *GameService) { s.log = log }
}

// WithMetrics enables engine counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *GameService) { s.metrics = m }
}

func NewGameService(store Store, quizzes QuizRepository, opts ...Option) *GameService {
	s := &GameService{
		store:   store,
		quizzes: quizzes,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGame starts a game of quizID for the caller-supplied session, pointing at the first question.
func (s *GameService) CreateGame(ctx context.Context, quizID, sessionID string) (domain.Game, error) {
	var game domain.Game
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Quiz(ctx, quizID); err != nil {
			return err
		}
		questions, err := tx.Questions(ctx, quizID)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		first, err := FirstQuestion(questions)
		if err != nil {
			return err
		}

		game = domain.Game{
			QuizID:            quizID,
			SessionID:         sessionID,
			CurrentQuestionID: first.ID,
		}
		return tx.CreateGame(ctx, &game)
	})
	if err != nil {
		s.fail("create_game", err, logrus.Fields{"quiz_id": quizID, "session_id": sessionID})
		return domain.Game{}, err
	}

	s.metrics.GameCreated()
	s.log.WithFields(logrus.Fields{
		"game_id":     game.ID,
		"quiz_id":     quizID,
		"session_id":  sessionID,
		"question_id": game.CurrentQuestionID,
	}).Info("game created")
	return game, nil
}

// SubmitAnswer records answerID for questionID and advances or finishes the game atomically.
// It returns the chosen answer and the question's correct answer.
func (s *GameService) SubmitAnswer(ctx context.Context, gameID, questionID, answerID string) (domain.Submission, error) {
	var submission domain.Submission
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		submission, err = submitAnswer(ctx, tx, gameID, questionID, answerID)
		return err
	})
	fields := logrus.Fields{"game_id": gameID, "question_id": questionID, "answer_id": answerID}
	if err != nil {
		s.fail("submit_answer", err, fields)
		return domain.Submission{}, err
	}

	correct := submission.Correct != nil && submission.Correct.ID == submission.Chosen.ID
	s.metrics.AnswerSubmitted(correct, submission.Finished)
	fields["correct"] = correct
	fields["finished"] = submission.Finished
	fields["next_question_id"] = submission.NextQuestionID
	s.log.WithFields(fields).Info("answer submitted")
	return submission, nil
}

// GetOrGenerateResult returns the game's result tier and summary, resolving and caching them on
// first use. Once cached the result never changes.
func (s *GameService) GetOrGenerateResult(ctx context.Context, gameID string) (domain.Result, error) {
	var (
		result domain.Result
		cached bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		result, cached, err = resolveResult(ctx, tx, gameID)
		return err
	})
	if err != nil {
		s.fail("get_result", err, logrus.Fields{"game_id": gameID})
		return domain.Result{}, err
	}

	s.metrics.ResultResolved(cached)
	s.log.WithFields(logrus.Fields{
		"game_id": gameID,
		"tier_id": result.Tier.ID,
		"score":   result.Summary.Score,
		"cached":  cached,
	}).Debug("result resolved")
	return result, nil
}

// GetQuiz returns quiz content from the catalog.
func (s *GameService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// GetGameQuiz returns the quiz a game is played on together with its question count.
func (s *GameService) GetGameQuiz(ctx context.Context, gameID string) (domain.Quiz, int, error) {
	var game domain.Game
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		game, err = tx.Game(ctx, gameID)
		return err
	})
	if err != nil {
		return domain.Quiz{}, 0, err
	}

	quiz, err := s.quizzes.GetQuiz(ctx, game.QuizID)
	if err != nil {
		return domain.Quiz{}, 0, err
	}
	return quiz, len(quiz.Questions), nil
}

// GetQuestion returns a question of quizID with its visible answers in display order.
func (s *GameService) GetQuestion(ctx context.Context, quizID, questionID string) (domain.Question, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Question{}, err
	}
	for _, q := range quiz.Questions {
		if q.ID != questionID {
			continue
		}
		visible := make([]domain.Answer, 0, len(q.Answers))
		for _, a := range sortedAnswers(q.Answers) {
			if !a.IsDeleted {
				visible = append(visible, a)
			}
		}
		q.Answers = visible
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (s *GameService) fail(operation string, err error, fields logrus.Fields) {
	kind := KindLabel(err)
	s.metrics.Failed(operation, kind)

	entry := s.log.WithFields(fields).WithError(err).WithField("kind", kind)
	if kind == "internal" {
		entry.Errorf("%s failed", operation)
		return
	}
	entry.Warnf("%s rejected", operation)
}

// KindLabel maps err to a stable label for logs, metrics and clients.
func KindLabel(err error) string {
	switch kind := domain.Kind(err); {
	case errors.Is(kind, domain.ErrNotFound):
		return "not_found"
	case errors.Is(kind, domain.ErrConflict):
		return "conflict"
	case errors.Is(kind, domain.ErrPrecondition):
		return "precondition_failed"
	default:
		return "internal"
	}
}
