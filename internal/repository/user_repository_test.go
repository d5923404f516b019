package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/storage"
)

func plainHash(pw string) (string, error) { return "hash:" + pw, nil }

func TestMemoryUserRepository_SequentialIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, SeedUsers(ctx, repo, DefaultAccounts, plainHash))

	admin, err := repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", admin.ID)
	assert.Equal(t, "hash:password123", admin.PasswordHash)

	u := &domain.User{Email: "new@example.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "2", u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	assert.ErrorIs(t, repo.Create(ctx, &domain.User{Email: "new@example.com"}), ErrConflict)
}

func TestMemoryUserRepository_EmailMatchIsExact(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, SeedUsers(ctx, repo, DefaultAccounts, plainHash))

	_, err := repo.GetByEmail(ctx, strings.ToUpper("admin@example.com"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, SeedUsers(ctx, repo, DefaultAccounts, plainHash))

	admin, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	admin.PasswordHash = "changed"
	require.NoError(t, repo.Update(ctx, admin))

	again, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "changed", again.PasswordHash)

	assert.ErrorIs(t, repo.Update(ctx, &domain.User{ID: "42"}), ErrNotFound)
}

func TestSeedUsers_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, SeedUsers(ctx, repo, DefaultAccounts, plainHash))
	require.NoError(t, SeedUsers(ctx, repo, DefaultAccounts, plainHash))

	u := &domain.User{Email: "b@example.com"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "2", u.ID)
}

func TestKVSessionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	kv := storage.NewMemory()
	repo := NewKVSessionRepository(kv)

	session := &domain.Session{
		ID:        "abc",
		Token:     "tok",
		User:      domain.User{ID: "1", Email: "admin@example.com", PasswordHash: "secret-hash"},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, session))

	raw, err := kv.Get(ctx, SessionKey("abc"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-hash")

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "admin@example.com", got.User.Email)
	assert.Empty(t, got.User.PasswordHash)

	require.NoError(t, repo.Delete(ctx, "abc"))
	require.NoError(t, repo.Delete(ctx, "abc"))
	_, err = repo.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKVSessionRepository_ExpiresWithSession(t *testing.T) {
	ctx := context.Background()
	clock := time.Now()
	kv := storage.NewMemory().WithClock(func() time.Time { return clock })
	repo := NewKVSessionRepository(kv)

	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "s", ExpiresAt: time.Now().Add(time.Minute)}))
	clock = clock.Add(2 * time.Minute)

	_, err := repo.Get(ctx, "s")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKVPasswordResetRepository_MarkUsedOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewKVPasswordResetRepository(storage.NewMemory())

	reset := &domain.PasswordReset{
		Token:     "t1",
		UserID:    "1",
		Email:     "admin@example.com",
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, repo.Create(ctx, reset))
	assert.False(t, reset.CreatedAt.IsZero())

	got, err := repo.GetByToken(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.Usable(time.Now()))

	require.NoError(t, repo.MarkUsed(ctx, "t1", time.Now()))
	assert.ErrorIs(t, repo.MarkUsed(ctx, "t1", time.Now()), ErrNotFound)

	got, err = repo.GetByToken(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, got.Usable(time.Now()))

	_, err = repo.GetByToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
