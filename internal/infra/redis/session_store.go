package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"quizdesk/internal/domain"
	"quizdesk/internal/session"
)

// SessionStore keeps session records in Redis as JSON under quizdesk:session:{id}.
// Keys expire with the record, so Redis does the cleanup.
type SessionStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, now: time.Now}
}

func (s *SessionStore) Get(ctx context.Context, id string) (session.Data, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Data{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return session.Data{}, fmt.Errorf("get session: %w", err)
	}
	var data session.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return session.Data{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return data, nil
}

func (s *SessionStore) Save(ctx context.Context, data session.Data) error {
	ttl := data.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, data.ID)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(data.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(id string) string {
	return "quizdesk:session:" + id
}
