// Package session keeps per-visitor state server-side and hands the browser
// only a signed token naming the record.
//
// The cookie holds an HS256 JWT whose jti is the session id and whose exp
// bounds its lifetime. A token that fails verification, has expired, or names
// an unknown record is treated as no session at all.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"quizdesk/internal/domain"
)

// MinSecretLength is the shortest signing secret NewManager accepts.
const MinSecretLength = 32

// Data is one visitor's server-side session record.
type Data struct {
	ID        string           `json:"id"`
	Identity  *domain.Identity `json:"identity,omitempty"`
	Flashes   []string         `json:"flashes,omitempty"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// AddFlash queues a one-shot notice for the next rendered page.
func (d *Data) AddFlash(msg string) {
	d.Flashes = append(d.Flashes, msg)
}

// PopFlashes returns and clears the queued notices.
func (d *Data) PopFlashes() []string {
	flashes := d.Flashes
	d.Flashes = nil
	return flashes
}

// Authenticated reports whether a verified identity is attached.
func (d *Data) Authenticated() bool {
	return d.Identity != nil
}

// Store persists session records. Get returns domain.ErrSessionNotFound for
// unknown or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (Data, error)
	Save(ctx context.Context, data Data) error
	Delete(ctx context.Context, id string) error
}

// Options configures a Manager. Zero TTL, CookieName and Now fall back to
// 24h, "quizdesk_session" and time.Now.
type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
	Now        func() time.Time
}

// Manager loads and saves sessions for HTTP requests.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

func NewManager(store Store, opts Options) (*Manager, error) {
	if len(opts.Secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.CookieName == "" {
		opts.CookieName = "quizdesk_session"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		store:      store,
		secret:     []byte(opts.Secret),
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
		now:        opts.Now,
	}, nil
}

// Load returns the request's session, or a fresh unsaved one (empty ID) when the
// request carries no valid token. Only store failures are returned as errors.
func (m *Manager) Load(r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return &Data{}, nil
	}
	id, ok := m.parseToken(cookie.Value)
	if !ok {
		return &Data{}, nil
	}
	data, err := m.store.Get(r.Context(), id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return &Data{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !data.ExpiresAt.After(m.now()) {
		return &Data{}, nil
	}
	return &data, nil
}

// Save persists data, assigning an id on first save, and writes the cookie.
// It must run before the response header is written.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, data *Data) error {
	if data.ID == "" {
		data.ID = uuid.NewString()
	}
	data.ExpiresAt = m.now().Add(m.ttl)
	if err := m.store.Save(ctx, *data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	token, err := m.signToken(data.ID, data.ExpiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  data.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Login attaches identity under a fresh session id and saves it.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, data *Data, identity domain.Identity) error {
	if err := m.discard(ctx, data); err != nil {
		return err
	}
	data.Identity = &identity
	return m.Save(ctx, w, data)
}

// Logout drops the identity under a fresh session id; pending flashes survive.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, data *Data) error {
	if err := m.discard(ctx, data); err != nil {
		return err
	}
	data.Identity = nil
	return m.Save(ctx, w, data)
}

func (m *Manager) discard(ctx context.Context, data *Data) error {
	if data.ID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, data.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	data.ID = ""
	return nil
}

func (m *Manager) signToken(id string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(m.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (m *Manager) parseToken(raw string) (string, bool) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return "", false
	}
	return claims.ID, true
}
