package app_test

import (
	"context"
	"errors"
	"testing"

	"quizdesk/internal/app"
	"quizdesk/internal/domain"
	"quizdesk/internal/infra/memory"
)

func newAccounts(t *testing.T) (*app.AccountService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	accounts, err := app.NewAccountService(store)
	if err != nil {
		t.Fatalf("account service: %v", err)
	}
	return accounts, store
}

func TestRegisterAndAuthenticate(t *testing.T) {
	accounts, store := newAccounts(t)
	ctx := context.Background()

	user, err := accounts.Register(ctx, app.Credentials{Username: " alice ", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Username != "alice" || user.Role != domain.RoleUser || user.PasswordHash == "pw" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := accounts.Register(ctx, app.Credentials{Username: "alice", Password: "other"}); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
	if n := store.CountUsers("alice"); n != 1 {
		t.Fatalf("expected exactly one alice, got %d", n)
	}

	got, err := accounts.Authenticate(ctx, "alice", "pw")
	if err != nil || got.ID != user.ID {
		t.Fatalf("authenticate: %+v %v", got, err)
	}
}

func TestAuthenticateFailuresAreGeneric(t *testing.T) {
	accounts, _ := newAccounts(t)
	ctx := context.Background()
	_, _ = accounts.Register(ctx, app.Credentials{Username: "bob", Password: "right"})

	_, wrongPassword := accounts.Authenticate(ctx, "bob", "wrong")
	_, unknownUser := accounts.Authenticate(ctx, "nobody", "right")
	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) || !errors.Is(unknownUser, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for both, got %v and %v", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("expected identical errors")
	}
}

func TestRegisterRejectsEmptyFields(t *testing.T) {
	accounts, _ := newAccounts(t)
	ctx := context.Background()
	if _, err := accounts.Register(ctx, app.Credentials{Username: "   ", Password: "pw"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank username, got %v", err)
	}
	if _, err := accounts.Register(ctx, app.Credentials{Username: "carol"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty password, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	accounts, store := newAccounts(t)
	ctx := context.Background()

	created, err := accounts.EnsureAdmin(ctx, app.Credentials{Username: "admin", Password: "first"})
	if err != nil || !created {
		t.Fatalf("expected admin to be created, got %v %v", created, err)
	}
	created, err = accounts.EnsureAdmin(ctx, app.Credentials{Username: "admin", Password: "second"})
	if err != nil || created {
		t.Fatalf("expected second call to be a no-op, got %v %v", created, err)
	}
	if n := store.CountUsers("admin"); n != 1 {
		t.Fatalf("expected one admin, got %d", n)
	}
	admin, err := accounts.Authenticate(ctx, "admin", "first")
	if err != nil || admin.Role != domain.RoleAdmin {
		t.Fatalf("expected original password to remain, got %+v %v", admin, err)
	}

	exists, err := accounts.Exists(ctx, "admin")
	if err != nil || !exists {
		t.Fatalf("expected admin to exist, got %v %v", exists, err)
	}
	if exists, _ := accounts.Exists(ctx, "ghost"); exists {
		t.Fatalf("expected ghost not to exist")
	}
}
