package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"quizdesk/internal/app"
	"quizdesk/internal/domain"
	"quizdesk/internal/monitoring"
	"quizdesk/internal/session"
)

// Deps are the collaborators the HTTP layer needs. Everything after Sessions
// may be nil.
type Deps struct {
	Accounts *app.AccountService
	Quizzes  *app.QuizService
	Sessions *session.Manager
	Feed     *app.AttemptFeed
	Limiter  *LoginLimiter
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
	// Health reports whether backing services are reachable.
	Health func(ctx context.Context) error
}

// Handler serves the quiz web application.
type Handler struct {
	accounts *app.AccountService
	quizzes  *app.QuizService
	feed     *app.AttemptFeed
	sessions *session.Manager
	limiter  *LoginLimiter
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	health   func(ctx context.Context) error
	views    *views
	upgrader websocket.Upgrader

	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewHandler(deps Deps) (*Handler, error) {
	if deps.Accounts == nil || deps.Quizzes == nil || deps.Sessions == nil {
		return nil, errors.New("accounts, quizzes and sessions are required")
	}
	v, err := parseViews()
	if err != nil {
		return nil, err
	}
	h := &Handler{
		accounts: deps.Accounts,
		quizzes:  deps.Quizzes,
		feed:     deps.Feed,
		sessions: deps.Sessions,
		limiter:  deps.Limiter,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		health:   deps.Health,
		views:    v,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
	}
	if h.feed == nil {
		h.feed = app.NewAttemptFeed()
	}
	if h.limiter == nil {
		h.limiter = NewLoginLimiter(10, 5)
	}
	if h.metrics == nil {
		h.metrics = monitoring.New()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h, nil
}

// Router wires every route behind the logging and metrics middleware.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(h.instrument)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/", h.withSession(h.requireAuth(h.index))).Methods(http.MethodGet)
	r.HandleFunc("/register", h.withSession(h.register)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/login", h.withSession(h.login)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", h.withSession(h.logout)).Methods(http.MethodGet)
	r.HandleFunc("/my_scores", h.withSession(h.requireAuth(h.myScores))).Methods(http.MethodGet)
	r.HandleFunc("/take_quiz/{quiz_id:[0-9]+}", h.withSession(h.requireRole(domain.RoleUser, h.takeQuiz))).
		Methods(http.MethodGet, http.MethodPost)

	admin := func(next identityHandler) http.HandlerFunc {
		return h.withSession(h.requireRole(domain.RoleAdmin, next))
	}
	r.HandleFunc("/admin", admin(h.adminDashboard)).Methods(http.MethodGet)
	r.HandleFunc("/admin/create_quiz", admin(h.createQuiz)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/admin/add_question/{quiz_id:[0-9]+}", admin(h.addQuestion)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/admin/view_questions/{quiz_id:[0-9]+}", admin(h.viewQuestions)).Methods(http.MethodGet)
	r.HandleFunc("/admin/view_attempts", admin(h.viewAttempts)).Methods(http.MethodGet)
	r.HandleFunc("/admin/attempts/live", admin(h.attemptFeed)).Methods(http.MethodGet)

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	_, _ = w.Write([]byte("ok"))
}

// sessionHandler receives the visitor's session, which may be anonymous.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Data)

// identityHandler additionally receives the verified caller.
type identityHandler func(w http.ResponseWriter, r *http.Request, sess *session.Data, identity domain.Identity)

func (h *Handler) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Load(r)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		next(w, r, sess)
	}
}

func (h *Handler) requireAuth(next identityHandler) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess *session.Data) {
		if !sess.Authenticated() {
			h.denied(w, r, sess)
			return
		}
		next(w, r, sess, *sess.Identity)
	}
}

// requireRole admits only callers holding role. Everyone else, including an
// authenticated user with the other role, goes to the login page.
func (h *Handler) requireRole(role domain.Role, next identityHandler) sessionHandler {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request, sess *session.Data, identity domain.Identity) {
		if identity.Role != role {
			h.denied(w, r, sess)
			return
		}
		next(w, r, sess, identity)
	})
}

func (h *Handler) denied(w http.ResponseWriter, r *http.Request, sess *session.Data) {
	sess.AddFlash("Please log in to continue.")
	h.redirect(w, r, sess, "/login")
}

// render executes a page, persists the session with its flashes consumed,
// then writes the response. Nothing is written if either step fails.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, sess *session.Data, status int, name, title string, data any) {
	p := page{Title: title, Identity: sess.Identity, Flashes: sess.PopFlashes(), Data: data}
	body, err := h.views.execute(name, p)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if sess.ID != "" {
		if err := h.sessions.Save(r.Context(), w, sess); err != nil {
			h.serverError(w, r, err)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// redirect saves the session, carrying any new flashes, and issues a 302.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, sess *session.Data, target string) {
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (h *Handler) notFound(w http.ResponseWriter) {
	http.Error(w, "quiz not found", http.StatusNotFound)
}

// quizID reads the {quiz_id} route variable. The route pattern admits only
// digits, so the only failure is overflow.
func quizID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["quiz_id"], 10, 64)
	return id, err == nil
}

// inputProblem turns a validation error into a flash notice.
func inputProblem(err error) string {
	msg := err.Error()
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
