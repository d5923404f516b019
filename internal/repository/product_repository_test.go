package repository

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/storage"
)

func floatPtr(v float64) *float64 { return &v }

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	sort.Strings(out)
	return out
}

func setupGormDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection to :memory: would otherwise see its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// productBackends returns each repository implementation pre-loaded with the seed catalog.
func productBackends(t *testing.T) map[string]ProductRepository {
	t.Helper()
	ctx := context.Background()

	gormRepo, err := NewGormProductRepository(setupGormDB(t))
	require.NoError(t, err)
	n, err := SeedProducts(ctx, gormRepo)
	require.NoError(t, err)
	require.Equal(t, 8, n)

	return map[string]ProductRepository{
		"kv":   NewKVProductRepository(storage.NewMemory(), SeedProductList()),
		"gorm": gormRepo,
	}
}

func TestProductRepository_ListFilters(t *testing.T) {
	cases := []struct {
		name   string
		filter domain.FilterOptions
		want   []string
	}{
		{name: "no filter", filter: domain.FilterOptions{}, want: []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{name: "category and min price", filter: domain.FilterOptions{Category: "Electronics", MinPrice: floatPtr(100)}, want: []string{"1", "4", "8"}},
		{name: "max price", filter: domain.FilterOptions{MaxPrice: floatPtr(50)}, want: []string{"2", "6"}},
		{name: "min rating", filter: domain.FilterOptions{MinRating: floatPtr(4.7)}, want: []string{"3", "4", "8"}},
		{name: "search is case-insensitive over description", filter: domain.FilterOptions{SearchTerm: "SMOOTHIES"}, want: []string{"7"}},
		{name: "search matches name", filter: domain.FilterOptions{SearchTerm: "lap"}, want: []string{"8"}},
		{name: "no match", filter: domain.FilterOptions{Category: "Toys"}, want: []string{}},
	}

	for backend, repo := range productBackends(t) {
		for _, tc := range cases {
			t.Run(backend+"/"+tc.name, func(t *testing.T) {
				got, err := repo.List(context.Background(), tc.filter)
				require.NoError(t, err)
				assert.Equal(t, tc.want, ids(got))
			})
		}
	}
}

func TestProductRepository_SearchFoldsNonASCII(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for backend, repo := range productBackends(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			p := domain.NewProduct("01HY", domain.ProductInput{
				Name:        "Éclair Tray",
				Description: "Bakeware for ÜBER-crisp pastry",
				Category:    "Home & Kitchen",
				Price:       12,
				Rating:      4,
			}, now)
			require.NoError(t, repo.Create(ctx, &p))

			for _, term := range []string{"éclair", "ÉCLAIR", "über", "tray"} {
				got, err := repo.List(ctx, domain.FilterOptions{SearchTerm: term})
				require.NoError(t, err)
				assert.Equal(t, []string{"01HY"}, ids(got), term)
			}
		})
	}
}

func TestProductRepository_CRUD(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for backend, repo := range productBackends(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()

			p := domain.NewProduct("01HX", domain.ProductInput{
				Name:        "Desk Lamp",
				Description: "LED lamp",
				Category:    "Home & Kitchen",
				Price:       39.5,
				Rating:      0,
			}, now)
			require.NoError(t, repo.Create(ctx, &p))
			assert.ErrorIs(t, repo.Create(ctx, &p), ErrConflict)

			got, err := repo.GetByID(ctx, "01HX")
			require.NoError(t, err)
			assert.Equal(t, "Desk Lamp", got.Name)
			assert.True(t, got.CreatedAt.Equal(now))

			name := "Desk Lamp Pro"
			updated := domain.ProductUpdate{Name: &name}.Apply(*got, now.Add(time.Hour))
			require.NoError(t, repo.Update(ctx, &updated))

			got, err = repo.GetByID(ctx, "01HX")
			require.NoError(t, err)
			assert.Equal(t, "Desk Lamp Pro", got.Name)
			assert.Equal(t, 0.0, got.Rating)
			assert.True(t, got.UpdatedAt.Equal(now.Add(time.Hour)))
			assert.True(t, got.CreatedAt.Equal(now))

			require.NoError(t, repo.Delete(ctx, "01HX"))
			_, err = repo.GetByID(ctx, "01HX")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestProductRepository_MissingIDs(t *testing.T) {
	for backend, repo := range productBackends(t) {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()

			_, err := repo.GetByID(ctx, "999")
			assert.ErrorIs(t, err, ErrNotFound)

			ghost := domain.Product{ID: "999", Name: "x", Description: "x", Category: "Other", Price: 1}
			assert.ErrorIs(t, repo.Update(ctx, &ghost), ErrNotFound)
			assert.ErrorIs(t, repo.Delete(ctx, "999"), ErrNotFound)

			all, err := repo.List(ctx, domain.FilterOptions{})
			require.NoError(t, err)
			assert.Len(t, all, 8)
		})
	}
}

func TestKVProductRepository_PersistsArray(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	repo := NewKVProductRepository(kv, SeedProductList())

	_, err := kv.Get(ctx, ProductsKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "2"))

	raw, err := kv.Get(ctx, ProductsKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"createdAt":"2023-01-15T00:00:00Z"`)
	assert.NotContains(t, string(raw), "Cotton T-Shirt")

	// a second repository over the same store sees the write
	other := NewKVProductRepository(kv, SeedProductList())
	all, err := other.List(ctx, domain.FilterOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestKVProductRepository_SeedIsNotShared(t *testing.T) {
	ctx := context.Background()
	seed := SeedProductList()
	repo := NewKVProductRepository(storage.NewMemory(), seed)

	all, err := repo.List(ctx, domain.FilterOptions{})
	require.NoError(t, err)
	all[0].Name = "mutated"

	assert.Equal(t, "Wireless Headphones", seed[0].Name)
}

func TestSeedProducts_SkipsNonEmpty(t *testing.T) {
	repo, err := NewGormProductRepository(setupGormDB(t))
	require.NoError(t, err)

	n, err := SeedProducts(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = SeedProducts(context.Background(), repo)
	require.NoError(t, err)
	assert.Zero(t, n)
}
