package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/catalog-service/internal/domain"
)

func seedTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedProduct(id, name, description, category string, price, rating float64, created string) domain.Product {
	ts := seedTime(created)
	return domain.Product{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    category,
		Price:       price,
		Rating:      rating,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// SeedProductList returns the initial catalog. Each call returns a fresh slice.
func SeedProductList() []domain.Product {
	return []domain.Product{
		seedProduct("1", "Wireless Headphones", "Premium wireless headphones with noise cancellation", "Electronics", 199.99, 4.5, "2023-01-15T00:00:00Z"),
		seedProduct("2", "Cotton T-Shirt", "Comfortable 100% cotton t-shirt", "Clothing", 24.99, 4.2, "2023-01-20T00:00:00Z"),
		seedProduct("3", "Coffee Maker", "Programmable coffee maker with built-in grinder", "Home & Kitchen", 149.99, 4.7, "2023-02-05T00:00:00Z"),
		seedProduct("4", "Smartphone", "Latest smartphone with high-resolution camera", "Electronics", 799.99, 4.8, "2023-02-10T00:00:00Z"),
		seedProduct("5", "Running Shoes", "Lightweight running shoes with cushioned sole", "Sports", 89.99, 4.3, "2023-02-15T00:00:00Z"),
		seedProduct("6", "Novel - The Great Adventure", "Bestselling novel about an epic adventure", "Books", 14.99, 4.6, "2023-03-01T00:00:00Z"),
		seedProduct("7", "Blender", "High-powered blender for smoothies and more", "Home & Kitchen", 79.99, 4.4, "2023-03-10T00:00:00Z"),
		seedProduct("8", "Laptop", "Powerful laptop for work and gaming", "Electronics", 1299.99, 4.9, "2023-03-15T00:00:00Z"),
	}
}

// SeedProducts inserts the initial catalog into an empty repository.
// It returns the number of products written.
func SeedProducts(ctx context.Context, repo ProductRepository) (int, error) {
	existing, err := repo.List(ctx, domain.FilterOptions{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	seeds := SeedProductList()
	for i := range seeds {
		if err := repo.Create(ctx, &seeds[i]); err != nil {
			return i, err
		}
	}
	return len(seeds), nil
}

// SeedAccount is a login created at startup.
type SeedAccount struct {
	Email    string
	Password string
}

// DefaultAccounts is the administrator account available out of the box.
var DefaultAccounts = []SeedAccount{
	{Email: "admin@example.com", Password: "password123"},
}

// SeedUsers creates every account missing from repo, hashing passwords with hash.
func SeedUsers(ctx context.Context, repo UserRepository, accounts []SeedAccount, hash func(string) (string, error)) error {
	for _, acct := range accounts {
		_, err := repo.GetByEmail(ctx, acct.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		pwHash, err := hash(acct.Password)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, &domain.User{Email: acct.Email, PasswordHash: pwHash}); err != nil {
			return err
		}
	}
	return nil
}
