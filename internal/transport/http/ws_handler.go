package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
)

// SessionHeader carries the caller's opaque session id. The sessionId query parameter is accepted
// as a fallback for clients that cannot set headers on the upgrade request.
const SessionHeader = "session-id"

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewWSHandler(service *app.GameService, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type createPayload struct {
	QuizID string `json:"quizId"`
}

type answerPayload struct {
	GameID     string `json:"gameId"`
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
}

type resultPayload struct {
	GameID string `json:"gameId"`
}

type questionPayload struct {
	QuizID     string `json:"quizId"`
	QuestionID string `json:"questionId"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type gameCreated struct {
	GameID         string       `json:"gameId"`
	QuizID         string       `json:"quizId"`
	TotalQuestions int          `json:"totalQuestions"`
	Question       questionView `json:"question"`
}

type answerResult struct {
	QuestionID   string        `json:"questionId"`
	Chosen       answerView    `json:"chosen"`
	Correct      *answerView   `json:"correct,omitempty"`
	IsCorrect    bool          `json:"isCorrect"`
	Finished     bool          `json:"finished"`
	NextQuestion *questionView `json:"nextQuestion,omitempty"`
}

// questionView hides answer points from players.
type questionView struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	ImageURL string       `json:"imageUrl,omitempty"`
	Order    int          `json:"order"`
	Answers  []answerText `json:"answers"`
}

type answerText struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type answerView struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Points int    `json:"points"`
}

func newQuestionView(q domain.Question) questionView {
	v := questionView{ID: q.ID, Text: q.Text, ImageURL: q.ImageURL, Order: q.Order, Answers: []answerText{}}
	for _, a := range q.Answers {
		v.Answers = append(v.Answers, answerText{ID: a.ID, Text: a.Text})
	}
	return v
}

func newAnswerView(a domain.Answer) answerView {
	return answerView{ID: a.ID, Text: a.Text, Points: a.Points}
}

// ServeWS upgrades HTTP requests to websockets and maps messages onto the game use cases.
// Requests on one connection are handled in order.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = r.URL.Query().Get("sessionId")
	}
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.WithField("session_id", sessionID)
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("ws read stopped")
			}
			return
		}

		reply := h.handle(r.Context(), sessionID, inbound)
		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Warn("ws write failed")
			return
		}
	}
}

func (h *WSHandler) handle(ctx context.Context, sessionID string, msg inboundMessage) outboundMessage {
	switch msg.Type {
	case "create":
		var p createPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.QuizID == "" {
			return invalid("invalid create payload")
		}
		return h.create(ctx, sessionID, p)
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.GameID == "" || p.QuestionID == "" || p.AnswerID == "" {
			return invalid("invalid answer payload")
		}
		return h.answer(ctx, p)
	case "result":
		var p resultPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.GameID == "" {
			return invalid("invalid result payload")
		}
		result, err := h.service.GetOrGenerateResult(ctx, p.GameID)
		if err != nil {
			return failure(err)
		}
		return outboundMessage{Type: "result", Payload: result}
	case "question":
		var p questionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.QuizID == "" || p.QuestionID == "" {
			return invalid("invalid question payload")
		}
		q, err := h.service.GetQuestion(ctx, p.QuizID, p.QuestionID)
		if err != nil {
			return failure(err)
		}
		return outboundMessage{Type: "question", Payload: newQuestionView(q)}
	default:
		return invalid("unsupported message type")
	}
}

func (h *WSHandler) create(ctx context.Context, sessionID string, p createPayload) outboundMessage {
	game, err := h.service.CreateGame(ctx, p.QuizID, sessionID)
	if err != nil {
		return failure(err)
	}
	quiz, total, err := h.service.GetGameQuiz(ctx, game.ID)
	if err != nil {
		return failure(err)
	}
	first, err := h.service.GetQuestion(ctx, quiz.ID, game.CurrentQuestionID)
	if err != nil {
		return failure(err)
	}
	return outboundMessage{Type: "gameCreated", Payload: gameCreated{
		GameID:         game.ID,
		QuizID:         quiz.ID,
		TotalQuestions: total,
		Question:       newQuestionView(first),
	}}
}

func (h *WSHandler) answer(ctx context.Context, p answerPayload) outboundMessage {
	submission, err := h.service.SubmitAnswer(ctx, p.GameID, p.QuestionID, p.AnswerID)
	if err != nil {
		return failure(err)
	}

	res := answerResult{
		QuestionID: p.QuestionID,
		Chosen:     newAnswerView(submission.Chosen),
		Finished:   submission.Finished,
	}
	if submission.Correct != nil {
		correct := newAnswerView(*submission.Correct)
		res.Correct = &correct
		res.IsCorrect = submission.Correct.ID == submission.Chosen.ID
	}
	if submission.NextQuestionID != "" {
		quiz, _, err := h.service.GetGameQuiz(ctx, p.GameID)
		if err != nil {
			return failure(err)
		}
		next, err := h.service.GetQuestion(ctx, quiz.ID, submission.NextQuestionID)
		if err != nil {
			return failure(err)
		}
		view := newQuestionView(next)
		res.NextQuestion = &view
	}
	return outboundMessage{Type: "answerResult", Payload: res}
}

func invalid(message string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Code: "invalid_argument", Message: message}}
}

func failure(err error) outboundMessage {
	code := app.KindLabel(err)
	message := err.Error()
	if code == "internal" {
		message = "internal error"
	}
	return outboundMessage{Type: "error", Payload: errorPayload{Code: code, Message: message}}
}
