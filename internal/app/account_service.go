package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizdesk/internal/credential"
	"quizdesk/internal/domain"
)

// UserRepository stores accounts. CreateUser returns domain.ErrDuplicateUsername
// for a taken username; UserByUsername returns domain.ErrUserNotFound.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
}

// Credentials carries the register and login forms.
type Credentials struct {
	Username string `form:"username" validate:"required,max=64"`
	Password string `form:"password" validate:"required"`
}

// AccountService registers, authenticates and provisions users.
type AccountService struct {
	users UserRepository
	now   func() time.Time
	// decoy is verified against when the username is unknown so both
	// rejection paths cost one key derivation.
	decoy string
}

func NewAccountService(users UserRepository) (*AccountService, error) {
	decoy, err := credential.Hash("decoy-password")
	if err != nil {
		return nil, err
	}
	return &AccountService{users: users, now: time.Now, decoy: decoy}, nil
}

// Register creates a regular user.
func (s *AccountService) Register(ctx context.Context, creds Credentials) (domain.User, error) {
	return s.create(ctx, creds, domain.RoleUser)
}

// CreateAdmin provisions an administrator account.
func (s *AccountService) CreateAdmin(ctx context.Context, creds Credentials) (domain.User, error) {
	return s.create(ctx, creds, domain.RoleAdmin)
}

// EnsureAdmin creates the admin account unless a user with that name already exists.
// It reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, creds Credentials) (bool, error) {
	_, err := s.users.UserByUsername(ctx, strings.TrimSpace(creds.Username))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}
	if _, err := s.CreateAdmin(ctx, creds); err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Exists reports whether username is taken.
func (s *AccountService) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords both
// yield domain.ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrUserNotFound) {
		credential.Verify(password, s.decoy)
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !credential.Verify(password, user.PasswordHash) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) create(ctx context.Context, creds Credentials, role domain.Role) (domain.User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := validateInput(creds); err != nil {
		return domain.User{}, err
	}
	hash, err := credential.Hash(creds.Password)
	if err != nil {
		return domain.User{}, err
	}
	return s.users.CreateUser(ctx, domain.User{
		Username:     creds.Username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	})
}
