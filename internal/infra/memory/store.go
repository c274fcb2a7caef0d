package memory

import (
	"context"
	"sort"
	"sync"

	"quizdesk/internal/domain"
)

// Store is an in-memory implementation of app.Store with auto-incrementing ids.
// It backs tests and database-less runs.
type Store struct {
	mu sync.RWMutex

	users        map[int64]domain.User
	usernames    map[string]int64
	quizzes      map[int64]domain.Quiz
	questions    map[int64]domain.Question
	attempts     map[int64]domain.Attempt
	nextUser     int64
	nextQuiz     int64
	nextQuestion int64
	nextAttempt  int64
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]domain.User),
		usernames: make(map[string]int64),
		quizzes:   make(map[int64]domain.Quiz),
		questions: make(map[int64]domain.Question),
		attempts:  make(map[int64]domain.Attempt),
	}
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usernames[user.Username]; ok {
		return domain.User{}, domain.ErrDuplicateUsername
	}
	s.nextUser++
	user.ID = s.nextUser
	s.users[user.ID] = user
	s.usernames[user.Username] = user.ID
	return user, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

// CountUsers reports how many accounts share username (0 or 1).
func (s *Store) CountUsers(username string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.Username == username {
			n++
		}
	}
	return n
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQuiz++
	quiz.ID = s.nextQuiz
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *Store) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		quizzes = append(quizzes, q)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
	return quizzes, nil
}

func (s *Store) CreateQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQuestion++
	question.ID = s.nextQuestion
	s.questions[question.ID] = question
	return question, nil
}

func (s *Store) ListQuestions(_ context.Context, quizID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.QuizID == quizID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (s *Store) CreateAttempt(_ context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAttempt++
	attempt.ID = s.nextAttempt
	attempt.Details = append([]domain.AnswerDetail(nil), attempt.Details...)
	s.attempts[attempt.ID] = attempt
	return attempt, nil
}

func (s *Store) ListAttempts(_ context.Context) ([]domain.AttemptView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinAttemptsLocked(func(domain.Attempt) bool { return true }), nil
}

func (s *Store) ListAttemptsByUser(_ context.Context, userID int64) ([]domain.AttemptView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinAttemptsLocked(func(a domain.Attempt) bool { return a.UserID == userID }), nil
}

// joinAttemptsLocked mirrors an inner join: attempts whose user or quiz is missing are skipped.
func (s *Store) joinAttemptsLocked(keep func(domain.Attempt) bool) []domain.AttemptView {
	views := make([]domain.AttemptView, 0)
	for _, a := range s.attempts {
		if !keep(a) {
			continue
		}
		user, ok := s.users[a.UserID]
		if !ok {
			continue
		}
		quiz, ok := s.quizzes[a.QuizID]
		if !ok {
			continue
		}
		views = append(views, domain.AttemptView{Attempt: a, Username: user.Username, QuizName: quiz.Name})
	}
	sort.Slice(views, func(i, j int) bool {
		if !views[i].FinishedAt.Equal(views[j].FinishedAt) {
			return views[i].FinishedAt.After(views[j].FinishedAt)
		}
		return views[i].ID > views[j].ID
	})
	return views
}
