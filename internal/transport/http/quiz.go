package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"quizdesk/internal/app"
	"quizdesk/internal/domain"
	"quizdesk/internal/session"
)

func (h *Handler) takeQuiz(w http.ResponseWriter, r *http.Request, sess *session.Data, identity domain.Identity) {
	id, ok := quizID(r)
	if !ok {
		h.notFound(w)
		return
	}

	if r.Method == http.MethodGet {
		quiz, questions, err := h.quizzes.QuizWithQuestions(r.Context(), id)
		if errors.Is(err, domain.ErrQuizNotFound) {
			h.notFound(w)
			return
		}
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		h.render(w, r, sess, http.StatusOK, "take_quiz", quiz.Name, questionList{Quiz: quiz, Questions: questions})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	result, err := h.quizzes.SubmitAttempt(r.Context(), identity, id, formAnswers(r))
	if errors.Is(err, domain.ErrQuizNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.metrics.Attempts.Inc()
	h.logger.Info("attempt recorded",
		zap.Int64("attempt_id", result.AttemptID),
		zap.Int64("quiz_id", id),
		zap.String("username", identity.Username),
		zap.Int("score", result.Score),
	)
	h.render(w, r, sess, http.StatusOK, "quiz_result", "Result", result)
}

// formAnswers collects posted fields named by a question id. Other fields are ignored.
func formAnswers(r *http.Request) app.Answers {
	answers := make(app.Answers, len(r.PostForm))
	for key, values := range r.PostForm {
		qid, err := strconv.ParseInt(key, 10, 64)
		if err != nil || len(values) == 0 {
			continue
		}
		answers[qid] = strings.TrimSpace(values[0])
	}
	return answers
}

func (h *Handler) myScores(w http.ResponseWriter, r *http.Request, sess *session.Data, identity domain.Identity) {
	attempts, err := h.quizzes.ListUserAttempts(r.Context(), identity)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, sess, http.StatusOK, "my_scores", "My scores", attempts)
}
