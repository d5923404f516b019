package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/persistence"
)

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE products, password_reset_tokens, users`)
	require.NoError(t, err)
	return pool
}

func TestPostgresProductRepository(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := NewPostgresProductRepository(pool)

	n, err := SeedProducts(ctx, repo)
	require.NoError(t, err)
	require.Equal(t, 8, n)

	got, err := repo.List(ctx, domain.FilterOptions{Category: "Electronics", MinPrice: floatPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4", "8"}, ids(got))

	got, err = repo.List(ctx, domain.FilterOptions{SearchTerm: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(got))

	p, err := repo.GetByID(ctx, "3")
	require.NoError(t, err)
	rating := 5.0
	updated := domain.ProductUpdate{Rating: &rating}.Apply(*p, time.Now())
	require.NoError(t, repo.Update(ctx, &updated))

	require.NoError(t, repo.Delete(ctx, "3"))
	assert.ErrorIs(t, repo.Delete(ctx, "3"), ErrNotFound)
	_, err = repo.GetByID(ctx, "3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUserAndResetRepositories(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	resets := NewPasswordResetRepository(pool)

	require.NoError(t, SeedUsers(ctx, users, DefaultAccounts, plainHash))
	admin, err := users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, admin.ID)
	assert.ErrorIs(t, users.Create(ctx, &domain.User{Email: "admin@example.com", PasswordHash: "x"}), ErrConflict)

	reset := &domain.PasswordReset{
		Token:     uuid.NewString(),
		UserID:    admin.ID,
		Email:     admin.Email,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, resets.Create(ctx, reset))
	require.NoError(t, resets.MarkUsed(ctx, reset.Token, time.Now()))
	assert.ErrorIs(t, resets.MarkUsed(ctx, reset.Token, time.Now()), ErrNotFound)

	got, err := resets.GetByToken(ctx, reset.Token)
	require.NoError(t, err)
	assert.NotNil(t, got.UsedAt)
}
