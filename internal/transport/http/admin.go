package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
	"quizdesk/internal/app"
	"quizdesk/internal/domain"
	"quizdesk/internal/session"
)

type questionForm struct {
	Quiz    domain.Quiz
	Input   app.QuestionInput
	Letters []string
}

type questionList struct {
	Quiz      domain.Quiz
	Questions []domain.Question
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request, sess *session.Data, _ domain.Identity) {
	quizzes, err := h.quizzes.ListQuizzes(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, sess, http.StatusOK, "admin_dashboard", "Admin dashboard", quizzes)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request, sess *session.Data, identity domain.Identity) {
	if r.Method == http.MethodGet {
		h.render(w, r, sess, http.StatusOK, "create_quiz", "Create quiz", app.QuizInput{})
		return
	}

	input := app.QuizInput{
		Name:     r.PostFormValue("name"),
		Category: r.PostFormValue("category"),
	}
	quiz, err := h.quizzes.CreateQuiz(r.Context(), identity, input)
	if errors.Is(err, domain.ErrInvalidInput) {
		sess.AddFlash(inputProblem(err))
		h.render(w, r, sess, http.StatusBadRequest, "create_quiz", "Create quiz", input)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.logger.Info("quiz created", zap.Int64("quiz_id", quiz.ID), zap.String("admin", identity.Username))
	sess.AddFlash("Quiz created successfully!")
	h.redirect(w, r, sess, "/admin")
}

func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request, sess *session.Data, _ domain.Identity) {
	id, ok := quizID(r)
	if !ok {
		h.notFound(w)
		return
	}
	quiz, err := h.quizzes.Quiz(r.Context(), id)
	if errors.Is(err, domain.ErrQuizNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	form := questionForm{Quiz: quiz, Input: app.QuestionInput{CorrectOption: "A"}, Letters: domain.OptionLetters}
	if r.Method == http.MethodGet {
		h.render(w, r, sess, http.StatusOK, "add_question", "Add question", form)
		return
	}

	form.Input = app.QuestionInput{
		Text:          r.PostFormValue("question"),
		OptionA:       r.PostFormValue("option_a"),
		OptionB:       r.PostFormValue("option_b"),
		OptionC:       r.PostFormValue("option_c"),
		OptionD:       r.PostFormValue("option_d"),
		CorrectOption: r.PostFormValue("correct_option"),
	}
	_, err = h.quizzes.AddQuestion(r.Context(), quiz.ID, form.Input)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		sess.AddFlash(inputProblem(err))
		h.render(w, r, sess, http.StatusBadRequest, "add_question", "Add question", form)
		return
	case errors.Is(err, domain.ErrQuizNotFound):
		h.notFound(w)
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	sess.AddFlash("Question added successfully!")
	h.redirect(w, r, sess, "/admin")
}

func (h *Handler) viewQuestions(w http.ResponseWriter, r *http.Request, sess *session.Data, _ domain.Identity) {
	id, ok := quizID(r)
	if !ok {
		h.notFound(w)
		return
	}
	quiz, questions, err := h.quizzes.QuizWithQuestions(r.Context(), id)
	if errors.Is(err, domain.ErrQuizNotFound) {
		h.notFound(w)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, sess, http.StatusOK, "view_questions", "Questions", questionList{Quiz: quiz, Questions: questions})
}

func (h *Handler) viewAttempts(w http.ResponseWriter, r *http.Request, sess *session.Data, _ domain.Identity) {
	attempts, err := h.quizzes.ListAttempts(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, sess, http.StatusOK, "view_attempts", "All attempts", attempts)
}
