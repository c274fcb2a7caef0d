package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quizdesk/internal/app"
	"quizdesk/internal/domain"
	"quizdesk/internal/infra/memory"
)

var (
	adminID = domain.Identity{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
	fixedAt = time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
)

type recordingPublisher struct {
	published []domain.AttemptView
}

func (p *recordingPublisher) Publish(a domain.AttemptView) {
	p.published = append(p.published, a)
}

func newTestService(t *testing.T) (*app.QuizService, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	return app.NewQuizServiceWithClock(store, pub, func() time.Time { return fixedAt }), store, pub
}

func seedQuiz(t *testing.T, svc *app.QuizService, letters ...string) (domain.Quiz, []domain.Question) {
	t.Helper()
	ctx := context.Background()
	quiz, err := svc.CreateQuiz(ctx, adminID, app.QuizInput{Name: "Geography", Category: "General"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	questions := make([]domain.Question, 0, len(letters))
	for i, letter := range letters {
		q, err := svc.AddQuestion(ctx, quiz.ID, app.QuestionInput{
			Text:          "question " + string(rune('1'+i)),
			OptionA:       "a",
			OptionB:       "b",
			OptionC:       "c",
			OptionD:       "d",
			CorrectOption: letter,
		})
		if err != nil {
			t.Fatalf("add question: %v", err)
		}
		questions = append(questions, q)
	}
	return quiz, questions
}

func TestCreateQuizStampsAdminAndTime(t *testing.T) {
	svc, _, _ := newTestService(t)
	quiz, err := svc.CreateQuiz(context.Background(), adminID, app.QuizInput{Name: "  History ", Category: "General"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.Name != "History" || quiz.CreatedBy != adminID.UserID || !quiz.CreatedAt.Equal(fixedAt) {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	if _, err := svc.CreateQuiz(context.Background(), adminID, app.QuizInput{Name: "", Category: "x"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty name, got %v", err)
	}
}

func TestAddQuestionValidates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	quiz, _ := seedQuiz(t, svc)

	valid := app.QuestionInput{Text: "q", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: "b"}
	q, err := svc.AddQuestion(ctx, quiz.ID, valid)
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if q.CorrectOption != "B" || q.QuizID != quiz.ID {
		t.Fatalf("expected normalized letter on the quiz, got %+v", q)
	}

	bad := valid
	bad.CorrectOption = "E"
	_, err = svc.AddQuestion(ctx, quiz.ID, bad)
	if !errors.Is(err, domain.ErrInvalidInput) || !strings.Contains(err.Error(), "correct_option must be one of A, B, C, D") {
		t.Fatalf("expected option error, got %v", err)
	}

	missing := valid
	missing.OptionC = ""
	if _, err := svc.AddQuestion(ctx, quiz.ID, missing); err == nil || !strings.Contains(err.Error(), "option_c is required") {
		t.Fatalf("expected missing option error, got %v", err)
	}

	blank := valid
	blank.Text = "   "
	if _, err := svc.AddQuestion(ctx, quiz.ID, blank); !errors.Is(err, domain.ErrInvalidInput) || !strings.Contains(err.Error(), "question is required") {
		t.Fatalf("expected blank question error, got %v", err)
	}
	spaced := valid
	spaced.OptionD = "\t "
	if _, err := svc.AddQuestion(ctx, quiz.ID, spaced); err == nil || !strings.Contains(err.Error(), "option_d is required") {
		t.Fatalf("expected blank option error, got %v", err)
	}
	padded := valid
	padded.Text = "  Capital of France?  "
	padded.OptionA = " Paris "
	if q, err := svc.AddQuestion(ctx, quiz.ID, padded); err != nil || q.Text != "Capital of France?" || q.OptionA != "Paris" {
		t.Fatalf("expected trimmed question, got %+v (%v)", q, err)
	}

	if _, err := svc.AddQuestion(ctx, quiz.ID+1, valid); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestSubmitAttemptScoresAndRecords(t *testing.T) {
	svc, store, pub := newTestService(t)
	ctx := context.Background()
	alice, _ := store.CreateUser(ctx, domain.User{Username: "alice", Role: domain.RoleUser})
	quiz, qs := seedQuiz(t, svc, "B", "C", "A")

	result, err := svc.SubmitAttempt(ctx, alice.Identity(), quiz.ID, app.Answers{qs[0].ID: "B", qs[1].ID: "A"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 3 || result.TotalPossible != 12 || result.QuizName != "Geography" {
		t.Fatalf("unexpected result %+v", result)
	}

	attempts, _ := svc.ListUserAttempts(ctx, alice.Identity())
	if len(attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(attempts))
	}
	got := attempts[0]
	if got.ID != result.AttemptID || got.TotalQuestions != 3 || got.Score != 3 {
		t.Fatalf("unexpected attempt %+v", got)
	}
	if !got.StartedAt.Equal(fixedAt) || !got.FinishedAt.Equal(fixedAt) {
		t.Fatalf("expected start and finish at submission time, got %v %v", got.StartedAt, got.FinishedAt)
	}
	if len(got.Details) != 3 || got.Details[2].Chosen != nil || got.Details[2].Correct != "A" {
		t.Fatalf("unexpected details %+v", got.Details)
	}

	if len(pub.published) != 1 || pub.published[0].Username != "alice" || pub.published[0].QuizName != "Geography" {
		t.Fatalf("expected attempt to be published, got %+v", pub.published)
	}
}

func TestSubmitAttemptUnknownQuiz(t *testing.T) {
	svc, _, pub := newTestService(t)
	_, err := svc.SubmitAttempt(context.Background(), domain.Identity{UserID: 2, Username: "bob", Role: domain.RoleUser}, 404, app.Answers{})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if len(pub.published) != 0 {
		t.Fatalf("expected nothing published")
	}
}

func TestSubmitAttemptEmptyQuiz(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	bob, _ := store.CreateUser(ctx, domain.User{Username: "bob", Role: domain.RoleUser})
	quiz, _ := seedQuiz(t, svc)

	result, err := svc.SubmitAttempt(ctx, bob.Identity(), quiz.ID, app.Answers{99: "A"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 0 || result.TotalPossible != 0 {
		t.Fatalf("expected empty quiz to score 0 of 0, got %+v", result)
	}
}

func TestListUserAttemptsIsScoped(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	alice, _ := store.CreateUser(ctx, domain.User{Username: "alice", Role: domain.RoleUser})
	bob, _ := store.CreateUser(ctx, domain.User{Username: "bob", Role: domain.RoleUser})
	quiz, qs := seedQuiz(t, svc, "A")

	_, _ = svc.SubmitAttempt(ctx, alice.Identity(), quiz.ID, app.Answers{qs[0].ID: "A"})
	_, _ = svc.SubmitAttempt(ctx, bob.Identity(), quiz.ID, app.Answers{qs[0].ID: "B"})

	mine, _ := svc.ListUserAttempts(ctx, bob.Identity())
	if len(mine) != 1 || mine[0].Username != "bob" || mine[0].Score != -1 {
		t.Fatalf("expected only bob's attempt, got %+v", mine)
	}
	all, _ := svc.ListAttempts(ctx)
	if len(all) != 2 {
		t.Fatalf("expected both attempts for admin view, got %d", len(all))
	}
}
