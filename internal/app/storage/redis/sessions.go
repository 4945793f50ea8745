// Package redis implements the session store on Redis so multiple
// replicas share one daily play state.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/TylMus/tylmus-backend/internal/app/domain/game"
	"github.com/TylMus/tylmus-backend/internal/app/storage"
)

const sessionKey = "tylmus:session"

// SessionStore keeps the shared daily session under a single key with a
// TTL. Stale sessions expire on their own even if rotation never runs.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ storage.SessionStore = (*SessionStore)(nil)

// NewSessionStore wraps an existing client. A non-positive ttl defaults
// to 48 hours, enough to outlive the day rollover with clock skew.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) SaveSession(ctx context.Context, session game.Session) error {
	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey, payload, s.ttl).Err()
}

func (s *SessionStore) LoadSession(ctx context.Context) (game.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Session{}, fmt.Errorf("session: %w", storage.ErrNotFound)
	}
	if err != nil {
		return game.Session{}, err
	}

	var session game.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return game.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// ClearSession deletes the session key. Deleting an absent key is not
// an error.
func (s *SessionStore) ClearSession(ctx context.Context) error {
	return s.client.Del(ctx, sessionKey).Err()
}
