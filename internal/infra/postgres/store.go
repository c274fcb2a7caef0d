package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quizdesk/internal/domain"
)

const uniqueViolation = "23505"

// Store implements app.Store on a pgx connection pool. Pool methods acquire a
// connection per call and release it once the rows are consumed or closed.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		user.Username, user.PasswordHash, string(user.Role), user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.User{}, domain.ErrDuplicateUsername
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	var (
		user domain.User
		role string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	user.Role = domain.Role(role)
	return user, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO quizzes (name, category, created_by, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		quiz.Name, quiz.Category, quiz.CreatedBy, quiz.CreatedAt,
	).Scan(&quiz.ID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, category, created_by, created_at FROM quizzes WHERE id = $1`,
		quizID,
	).Scan(&quiz.ID, &quiz.Name, &quiz.Category, &quiz.CreatedBy, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("select quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, category, created_by, created_at FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var q domain.Quiz
		if err := rows.Scan(&q.ID, &q.Name, &q.Category, &q.CreatedBy, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (s *Store) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, question, option_a, option_b, option_c, option_d, correct_option)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		question.QuizID, question.Text,
		question.OptionA, question.OptionB, question.OptionC, question.OptionD,
		question.CorrectOption,
	).Scan(&question.ID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return question, nil
}

func (s *Store) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, question, option_a, option_b, option_c, option_d, correct_option
		 FROM questions WHERE quiz_id = $1 ORDER BY id`,
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) CreateAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	details := attempt.Details
	if details == nil {
		details = []domain.AnswerDetail{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("marshal attempt details: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO attempts (user_id, quiz_id, started_at, finished_at, total_questions, score, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb) RETURNING id`,
		attempt.UserID, attempt.QuizID, attempt.StartedAt, attempt.FinishedAt,
		attempt.TotalQuestions, attempt.Score, string(raw),
	).Scan(&attempt.ID)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("insert attempt: %w", err)
	}
	return attempt, nil
}

const attemptViewQuery = `
SELECT a.id, a.user_id, a.quiz_id, a.started_at, a.finished_at, a.total_questions, a.score, a.details,
       u.username, q.name
FROM attempts a
JOIN users u ON u.id = a.user_id
JOIN quizzes q ON q.id = a.quiz_id`

func (s *Store) ListAttempts(ctx context.Context) ([]domain.AttemptView, error) {
	return s.listAttempts(ctx, attemptViewQuery+` ORDER BY a.finished_at DESC, a.id DESC`)
}

func (s *Store) ListAttemptsByUser(ctx context.Context, userID int64) ([]domain.AttemptView, error) {
	return s.listAttempts(ctx, attemptViewQuery+` WHERE a.user_id = $1 ORDER BY a.finished_at DESC, a.id DESC`, userID)
}

func (s *Store) listAttempts(ctx context.Context, query string, args ...interface{}) ([]domain.AttemptView, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	views := make([]domain.AttemptView, 0)
	for rows.Next() {
		var (
			v   domain.AttemptView
			raw []byte
		)
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.QuizID, &v.StartedAt, &v.FinishedAt, &v.TotalQuestions, &v.Score, &raw,
			&v.Username, &v.QuizName,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal(raw, &v.Details); err != nil {
			return nil, fmt.Errorf("unmarshal attempt details: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// Ping verifies the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
