package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz id does not name a stored quiz.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound is returned by lookups for an unknown username.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when registering a taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput wraps form validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionNotFound is returned by session stores for unknown or expired ids.
	ErrSessionNotFound = errors.New("session not found")
)
