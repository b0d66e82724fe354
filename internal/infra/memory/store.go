package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. Transactions are serialized; writes are
// staged on a copy of the game state and only become visible when the transaction commits.
type Store struct {
	mu    sync.Mutex
	clock func() time.Time

	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
	answers   map[string]domain.Answer
	tiers     map[string]domain.ResultTier

	state gameState
}

type gameState struct {
	games       map[string]domain.Game
	gameAnswers []domain.GameAnswer
}

func (s gameState) clone() gameState {
	games := make(map[string]domain.Game, len(s.games))
	for id, g := range s.games {
		games[id] = g
	}
	answers := make([]domain.GameAnswer, len(s.gameAnswers))
	copy(answers, s.gameAnswers)
	return gameState{games: games, gameAnswers: answers}
}

// NewStore creates a store seeded with quizzes.
func NewStore(quizzes ...domain.Quiz) *Store {
	s := &Store{
		clock:     time.Now,
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
		answers:   make(map[string]domain.Answer),
		tiers:     make(map[string]domain.ResultTier),
		state:     gameState{games: make(map[string]domain.Game)},
	}
	for _, q := range quizzes {
		s.addQuizLocked(q)
	}
	return s
}

// SaveQuiz adds or replaces quiz content. Games already played on it are kept.
func (s *Store) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addQuizLocked(quiz)
	return nil
}

func (s *Store) addQuizLocked(quiz domain.Quiz) {
	if old, ok := s.quizzes[quiz.ID]; ok {
		for _, q := range old.Questions {
			for _, a := range q.Answers {
				delete(s.answers, a.ID)
			}
			delete(s.questions, q.ID)
		}
		for _, t := range old.ResultTiers {
			delete(s.tiers, t.ID)
		}
	}

	quiz = normalizeQuiz(quiz)
	s.quizzes[quiz.ID] = quiz
	for _, q := range quiz.Questions {
		s.questions[q.ID] = q
		for _, a := range q.Answers {
			s.answers[a.ID] = a
		}
	}
	for _, t := range quiz.ResultTiers {
		s.tiers[t.ID] = t
	}
}

// normalizeQuiz fills parent references and deep-copies the nested slices.
func normalizeQuiz(quiz domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.QuizID = quiz.ID
		answers := make([]domain.Answer, len(q.Answers))
		for j, a := range q.Answers {
			a.QuestionID = q.ID
			answers[j] = a
		}
		q.Answers = answers
		questions[i] = q
	}
	tiers := make([]domain.ResultTier, len(quiz.ResultTiers))
	for i, t := range quiz.ResultTiers {
		t.QuizID = quiz.ID
		tiers[i] = t
	}
	quiz.Questions = questions
	quiz.ResultTiers = tiers
	return quiz
}

// LoadQuiz lets the store back a catalog QuizRepository.
func (s *Store) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return normalizeQuiz(quiz), nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &storeTx{store: s, state: s.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// storeTx reads immutable quiz content from the store and game state from its staged copy.
type storeTx struct {
	store *Store
	state gameState
}

func (t *storeTx) Quiz(_ context.Context, quizID string) (domain.Quiz, error) {
	quiz, ok := t.store.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return domain.Quiz{ID: quiz.ID, Title: quiz.Title}, nil
}

func (t *storeTx) Questions(_ context.Context, quizID string) ([]domain.Question, error) {
	quiz := t.store.quizzes[quizID]
	questions := make([]domain.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		q.Answers = nil
		questions = append(questions, q)
	}
	return questions, nil
}

func (t *storeTx) Question(_ context.Context, questionID string) (domain.Question, error) {
	q, ok := t.store.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	q.Answers = nil
	return q, nil
}

func (t *storeTx) Answers(_ context.Context, questionID string) ([]domain.Answer, error) {
	q := t.store.questions[questionID]
	answers := make([]domain.Answer, len(q.Answers))
	copy(answers, q.Answers)
	return answers, nil
}

func (t *storeTx) Game(_ context.Context, gameID string) (domain.Game, error) {
	g, ok := t.state.games[gameID]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return g, nil
}

func (t *storeTx) CreateGame(_ context.Context, game *domain.Game) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate game ID: %w", err)
	}
	game.ID = id.String()
	game.CreatedAt = t.store.clock()
	t.state.games[game.ID] = *game
	return nil
}

func (t *storeTx) UpdateGameProgress(_ context.Context, gameID, currentQuestionID string, finished bool) error {
	g, ok := t.state.games[gameID]
	if !ok {
		return domain.ErrGameNotFound
	}
	g.CurrentQuestionID = currentQuestionID
	g.IsFinished = finished
	t.state.games[gameID] = g
	return nil
}

func (t *storeTx) SaveGameResult(_ context.Context, gameID, resultTierID string, summary domain.Summary) error {
	g, ok := t.state.games[gameID]
	if !ok {
		return domain.ErrGameNotFound
	}
	g.ResultTierID = resultTierID
	g.ResultSummary = &summary
	t.state.games[gameID] = g
	return nil
}

func (t *storeTx) AppendGameAnswer(_ context.Context, answer *domain.GameAnswer) error {
	answer.ID = int64(len(t.state.gameAnswers) + 1)
	answer.CreatedAt = t.store.clock()
	t.state.gameAnswers = append(t.state.gameAnswers, *answer)
	return nil
}

func (t *storeTx) ChosenAnswers(_ context.Context, gameID string) ([]domain.Answer, error) {
	var chosen []domain.Answer
	for _, ga := range t.state.gameAnswers {
		if ga.GameID != gameID {
			continue
		}
		a, ok := t.store.answers[ga.AnswerID]
		if !ok {
			return nil, fmt.Errorf("game answer %d: %w", ga.ID, domain.ErrAnswerNotFound)
		}
		chosen = append(chosen, a)
	}
	return chosen, nil
}

func (t *storeTx) ResultTiers(_ context.Context, quizID string) ([]domain.ResultTier, error) {
	quiz := t.store.quizzes[quizID]
	tiers := make([]domain.ResultTier, len(quiz.ResultTiers))
	copy(tiers, quiz.ResultTiers)
	return tiers, nil
}

func (t *storeTx) ResultTier(_ context.Context, tierID string) (domain.ResultTier, error) {
	tier, ok := t.store.tiers[tierID]
	if !ok {
		return domain.ResultTier{}, domain.ErrResultTierNotFound
	}
	return tier, nil
}

// GameAnswers returns a snapshot of the recorded answers of a game, in submission order.
func (s *Store) GameAnswers(gameID string) []domain.GameAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.GameAnswer
	for _, ga := range s.state.gameAnswers {
		if ga.GameID == gameID {
			out = append(out, ga)
		}
	}
	return out
}
