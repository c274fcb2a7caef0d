package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"quizdesk/internal/app"
	"quizdesk/internal/domain"
	"quizdesk/internal/infra/postgres"
	"quizdesk/internal/infra/postgres/migrations"
)

func TestPostgresQuizFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	applied, err := migrations.Apply(ctx, pgURL)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("expected one migration applied, got %v", applied)
	}
	if again, err := migrations.Apply(ctx, pgURL); err != nil || len(again) != 0 {
		t.Fatalf("expected second migrate to be a no-op, got %v (%v)", again, err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	accounts, err := app.NewAccountService(store)
	if err != nil {
		t.Fatalf("account service: %v", err)
	}
	feed := app.NewAttemptFeed()
	updates, cancel := feed.Subscribe()
	defer cancel()
	quizzes := app.NewQuizService(store, feed)

	created, err := accounts.EnsureAdmin(ctx, app.Credentials{Username: "admin", Password: "s3cret"})
	if err != nil || !created {
		t.Fatalf("ensure admin: created=%v err=%v", created, err)
	}
	if created, err := accounts.EnsureAdmin(ctx, app.Credentials{Username: "admin", Password: "other"}); err != nil || created {
		t.Fatalf("expected second ensure to be a no-op, created=%v err=%v", created, err)
	}
	admin, err := accounts.Authenticate(ctx, "admin", "s3cret")
	if err != nil || admin.Role != domain.RoleAdmin {
		t.Fatalf("authenticate admin: %+v %v", admin, err)
	}

	if _, err := accounts.Register(ctx, app.Credentials{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := accounts.Register(ctx, app.Credentials{Username: "alice", Password: "pw2"}); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	alice, err := accounts.Authenticate(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("authenticate alice: %v", err)
	}
	if _, err := accounts.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	quiz, err := quizzes.CreateQuiz(ctx, admin.Identity(), app.QuizInput{Name: "Geography", Category: "General"})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	var qids []int64
	for _, correct := range []string{"B", "C", "A"} {
		q, err := quizzes.AddQuestion(ctx, quiz.ID, app.QuestionInput{
			Text: "q" + correct, OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: correct,
		})
		if err != nil {
			t.Fatalf("add question: %v", err)
		}
		qids = append(qids, q.ID)
	}
	if _, err := quizzes.AddQuestion(ctx, quiz.ID+100, app.QuestionInput{
		Text: "x", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectOption: "A",
	}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}

	result, err := quizzes.SubmitAttempt(ctx, alice.Identity(), quiz.ID, app.Answers{qids[0]: "B", qids[1]: "A"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 3 || result.TotalPossible != 12 || result.QuizName != "Geography" {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := quizzes.SubmitAttempt(ctx, alice.Identity(), quiz.ID, app.Answers{qids[0]: "B", qids[1]: "C", qids[2]: "A"}); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	select {
	case published := <-updates:
		if published.Username != "alice" || published.Score != 3 {
			t.Fatalf("unexpected published attempt %+v", published)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected attempt to be published")
	}

	mine, err := quizzes.ListUserAttempts(ctx, alice.Identity())
	if err != nil {
		t.Fatalf("list user attempts: %v", err)
	}
	if len(mine) != 2 || mine[0].Score != 12 || mine[1].Score != 3 {
		t.Fatalf("expected newest attempt first, got %+v", mine)
	}
	if mine[1].Details[2].Chosen != nil || *mine[1].Details[0].Chosen != "B" {
		t.Fatalf("unexpected stored details %+v", mine[1].Details)
	}

	all, err := quizzes.ListAttempts(ctx)
	if err != nil || len(all) != 2 || all[0].QuizName != "Geography" {
		t.Fatalf("list attempts: %+v %v", all, err)
	}
	none, err := quizzes.ListUserAttempts(ctx, admin.Identity())
	if err != nil || len(none) != 0 {
		t.Fatalf("expected admin to have no attempts, got %+v %v", none, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
