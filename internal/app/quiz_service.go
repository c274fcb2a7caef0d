package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quizdesk/internal/domain"
)

// QuizRepository stores quizzes (in-memory, Postgres, etc).
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// QuestionRepository stores the questions of a quiz.
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error)
}

// AttemptRepository stores scored submissions and lists them newest-finished first.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error)
	ListAttempts(ctx context.Context) ([]domain.AttemptView, error)
	ListAttemptsByUser(ctx context.Context, userID int64) ([]domain.AttemptView, error)
}

// Store is the full persistence surface the services need.
type Store interface {
	UserRepository
	QuizRepository
	QuestionRepository
	AttemptRepository
}

// AttemptPublisher receives every recorded attempt.
type AttemptPublisher interface {
	Publish(attempt domain.AttemptView)
}

// QuizInput carries the create-quiz form.
type QuizInput struct {
	Name     string `form:"name" validate:"required,max=200"`
	Category string `form:"category" validate:"required,max=200"`
}

// QuestionInput carries the add-question form.
type QuestionInput struct {
	Text          string `form:"question" validate:"required"`
	OptionA       string `form:"option_a" validate:"required"`
	OptionB       string `form:"option_b" validate:"required"`
	OptionC       string `form:"option_c" validate:"required"`
	OptionD       string `form:"option_d" validate:"required"`
	CorrectOption string `form:"correct_option" validate:"required,oneof=A B C D"`
}

// QuizService contains the authoring, taking and history use cases.
type QuizService struct {
	quizzes   QuizRepository
	questions QuestionRepository
	attempts  AttemptRepository
	publisher AttemptPublisher
	now       func() time.Time
}

func NewQuizService(store Store, publisher AttemptPublisher) *QuizService {
	return &QuizService{
		quizzes:   store,
		questions: store,
		attempts:  store,
		publisher: publisher,
		now:       time.Now,
	}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(store Store, publisher AttemptPublisher, now func() time.Time) *QuizService {
	s := NewQuizService(store, publisher)
	s.now = now
	return s
}

// CreateQuiz stores a quiz stamped with the acting admin.
func (s *QuizService) CreateQuiz(ctx context.Context, admin domain.Identity, input QuizInput) (domain.Quiz, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	if err := validateInput(input); err != nil {
		return domain.Quiz{}, err
	}
	return s.quizzes.CreateQuiz(ctx, domain.Quiz{
		Name:      input.Name,
		Category:  input.Category,
		CreatedBy: admin.UserID,
		CreatedAt: s.now().UTC(),
	})
}

// AddQuestion stores a question on an existing quiz.
func (s *QuizService) AddQuestion(ctx context.Context, quizID int64, input QuestionInput) (domain.Question, error) {
	input.Text = strings.TrimSpace(input.Text)
	input.OptionA = strings.TrimSpace(input.OptionA)
	input.OptionB = strings.TrimSpace(input.OptionB)
	input.OptionC = strings.TrimSpace(input.OptionC)
	input.OptionD = strings.TrimSpace(input.OptionD)
	input.CorrectOption = strings.ToUpper(strings.TrimSpace(input.CorrectOption))
	if err := validateInput(input); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Question{}, err
	}
	return s.questions.CreateQuestion(ctx, domain.Question{
		QuizID:        quizID,
		Text:          input.Text,
		OptionA:       input.OptionA,
		OptionB:       input.OptionB,
		OptionC:       input.OptionC,
		OptionD:       input.OptionD,
		CorrectOption: input.CorrectOption,
	})
}

// Quiz returns a quiz by id.
func (s *QuizService) Quiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// ListQuizzes returns every quiz.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx)
}

// QuizWithQuestions loads a quiz and its full question set.
func (s *QuizService) QuizWithQuestions(ctx context.Context, quizID int64) (domain.Quiz, []domain.Question, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	questions, err := s.questions.ListQuestions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	return quiz, questions, nil
}

// SubmitAttempt scores answers against the quiz's current questions and records the attempt.
// The question set is read again here; nothing guards it against edits since the form was served.
func (s *QuizService) SubmitAttempt(ctx context.Context, taker domain.Identity, quizID int64, answers Answers) (domain.Result, error) {
	quiz, questions, err := s.QuizWithQuestions(ctx, quizID)
	if err != nil {
		return domain.Result{}, err
	}

	score, details := Score(questions, answers)
	now := s.now().UTC()
	attempt, err := s.attempts.CreateAttempt(ctx, domain.Attempt{
		UserID:         taker.UserID,
		QuizID:         quizID,
		StartedAt:      now,
		FinishedAt:     now,
		TotalQuestions: len(questions),
		Score:          score,
		Details:        details,
	})
	if err != nil {
		return domain.Result{}, fmt.Errorf("record attempt: %w", err)
	}

	if s.publisher != nil {
		s.publisher.Publish(domain.AttemptView{Attempt: attempt, Username: taker.Username, QuizName: quiz.Name})
	}

	return domain.Result{
		AttemptID:     attempt.ID,
		QuizName:      quiz.Name,
		Score:         score,
		TotalPossible: attempt.TotalPossible(),
	}, nil
}

// ListAttempts returns every attempt, newest-finished first.
func (s *QuizService) ListAttempts(ctx context.Context) ([]domain.AttemptView, error) {
	return s.attempts.ListAttempts(ctx)
}

// ListUserAttempts returns the caller's own attempts, newest-finished first.
func (s *QuizService) ListUserAttempts(ctx context.Context, user domain.Identity) ([]domain.AttemptView, error) {
	return s.attempts.ListAttemptsByUser(ctx, user.UserID)
}
