package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
	"quizdesk/internal/app"
	"quizdesk/internal/domain"
	"quizdesk/internal/session"
)

func (h *Handler) index(w http.ResponseWriter, r *http.Request, sess *session.Data, _ domain.Identity) {
	quizzes, err := h.quizzes.ListQuizzes(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, sess, http.StatusOK, "index", "Available quizzes", quizzes)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, sess *session.Data) {
	if r.Method == http.MethodGet {
		h.render(w, r, sess, http.StatusOK, "register", "Register", nil)
		return
	}

	creds := app.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	_, err := h.accounts.Register(r.Context(), creds)
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		sess.AddFlash("Username already exists.")
		h.render(w, r, sess, http.StatusOK, "register", "Register", nil)
		return
	case errors.Is(err, domain.ErrInvalidInput):
		sess.AddFlash(inputProblem(err))
		h.render(w, r, sess, http.StatusBadRequest, "register", "Register", nil)
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	h.logger.Info("user registered", zap.String("username", creds.Username))
	sess.AddFlash("Registration successful! Please log in.")
	h.redirect(w, r, sess, "/login")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, sess *session.Data) {
	if r.Method == http.MethodGet {
		h.render(w, r, sess, http.StatusOK, "login", "Log in", nil)
		return
	}

	ip := clientIP(r)
	if !h.limiter.Allow(ip) {
		h.metrics.LoginThrottled.Inc()
		h.logger.Warn("login throttled", zap.String("ip", ip))
		sess.AddFlash("Too many login attempts.")
		h.render(w, r, sess, http.StatusTooManyRequests, "login", "Log in", nil)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if errors.Is(err, domain.ErrInvalidCredentials) {
		h.metrics.LoginFailures.Inc()
		h.logger.Info("login rejected", zap.String("ip", ip))
		sess.AddFlash("Invalid credentials.")
		h.render(w, r, sess, http.StatusOK, "login", "Log in", nil)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	identity := user.Identity()
	if err := h.sessions.Login(r.Context(), w, sess, identity); err != nil {
		h.serverError(w, r, err)
		return
	}
	target := "/"
	if identity.IsAdmin() {
		target = "/admin"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request, sess *session.Data) {
	sess.AddFlash("Logged out successfully.")
	if err := h.sessions.Logout(r.Context(), w, sess); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}
