package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/storage"
)

const sessionKeyPrefix = "session:"

// SessionRepository persists logged-in sessions.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type storedSession struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type kvSessionRepository struct {
	kv  storage.KV
	now func() time.Time
}

// NewKVSessionRepository stores each session under session:<id>, expiring
// with the session itself. Password hashes are never written.
func NewKVSessionRepository(kv storage.KV) SessionRepository {
	return &kvSessionRepository{kv: kv, now: time.Now}
}

// SessionKey returns the store key of a session id.
func SessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *kvSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	var ttl time.Duration
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			return fmt.Errorf("session %s already expired", session.ID)
		}
	}
	data, err := json.Marshal(storedSession{
		ID:        session.ID,
		Token:     session.Token,
		UserID:    session.User.ID,
		Email:     session.User.Email,
		IssuedAt:  session.IssuedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, SessionKey(session.ID), data, ttl)
}

func (r *kvSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.kv.Get(ctx, SessionKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &domain.Session{
		ID:        stored.ID,
		Token:     stored.Token,
		User:      domain.User{ID: stored.UserID, Email: stored.Email},
		IssuedAt:  stored.IssuedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// Delete is idempotent; removing an unknown session is not an error.
func (r *kvSessionRepository) Delete(ctx context.Context, id string) error {
	return r.kv.Delete(ctx, SessionKey(id))
}
