package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/storage"
)

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	GetByToken(ctx context.Context, token string) (*domain.PasswordReset, error)
	MarkUsed(ctx context.Context, token string, at time.Time) error
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs the Postgres repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	const query = `
        INSERT INTO password_reset_tokens (token, user_id, email, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		reset.Token,
		reset.UserID,
		reset.Email,
		reset.ExpiresAt,
	).Scan(&reset.CreatedAt)
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*domain.PasswordReset, error) {
	const query = `
        SELECT token, user_id, email, expires_at, used_at, created_at
        FROM password_reset_tokens WHERE token=$1`
	var reset domain.PasswordReset
	if err := r.pool.QueryRow(ctx, query, token).Scan(
		&reset.Token,
		&reset.UserID,
		&reset.Email,
		&reset.ExpiresAt,
		&reset.UsedAt,
		&reset.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, token string, at time.Time) error {
	const query = `
        UPDATE password_reset_tokens SET used_at=$1
        WHERE token=$2 AND used_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, at, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const passwordResetKeyPrefix = "password_reset:"

type kvPasswordResetRepository struct {
	mu  sync.Mutex
	kv  storage.KV
	now func() time.Time
}

// NewKVPasswordResetRepository keeps reset tokens under
// password_reset:<token> until they expire.
func NewKVPasswordResetRepository(kv storage.KV) PasswordResetRepository {
	return &kvPasswordResetRepository{kv: kv, now: time.Now}
}

type storedReset struct {
	Token     string     `json:"token"`
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (r *kvPasswordResetRepository) put(ctx context.Context, reset *domain.PasswordReset) error {
	ttl := reset.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("reset token already expired")
	}
	data, err := json.Marshal(storedReset{
		Token:     reset.Token,
		UserID:    reset.UserID,
		Email:     reset.Email,
		ExpiresAt: reset.ExpiresAt,
		UsedAt:    reset.UsedAt,
		CreatedAt: reset.CreatedAt,
	})
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, passwordResetKeyPrefix+reset.Token, data, ttl)
}

func (r *kvPasswordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	if reset.CreatedAt.IsZero() {
		reset.CreatedAt = r.now().UTC()
	}
	return r.put(ctx, reset)
}

func (r *kvPasswordResetRepository) GetByToken(ctx context.Context, token string) (*domain.PasswordReset, error) {
	data, err := r.kv.Get(ctx, passwordResetKeyPrefix+token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var stored storedReset
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode reset token: %w", err)
	}
	return &domain.PasswordReset{
		Token:     stored.Token,
		UserID:    stored.UserID,
		Email:     stored.Email,
		ExpiresAt: stored.ExpiresAt,
		UsedAt:    stored.UsedAt,
		CreatedAt: stored.CreatedAt,
	}, nil
}

func (r *kvPasswordResetRepository) MarkUsed(ctx context.Context, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset, err := r.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if reset.UsedAt != nil {
		return ErrNotFound
	}
	reset.UsedAt = &at
	return r.put(ctx, reset)
}
