package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/storage"
)

// ProductRepository encapsulates product persistence.
type ProductRepository interface {
	List(ctx context.Context, filter domain.FilterOptions) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// ProductsKey holds the JSON array of every product.
const ProductsKey = "products"

// storedProduct is the JSON shape of one element of the products array.
type storedProduct struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toStored(p domain.Product) storedProduct {
	return storedProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Rating:      p.Rating,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (s storedProduct) toDomain() domain.Product {
	return domain.Product{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		Price:       s.Price,
		Rating:      s.Rating,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// kvProductRepository keeps the whole catalog as one JSON array and does a
// read-modify-write per call. The mutex serializes writers in this process
// only; writers sharing a remote store race and the last write wins.
type kvProductRepository struct {
	kv   storage.KV
	mu   sync.Mutex
	seed []domain.Product
}

// NewKVProductRepository stores products under ProductsKey. While the key
// is absent, reads see seed.
func NewKVProductRepository(kv storage.KV, seed []domain.Product) ProductRepository {
	return &kvProductRepository{kv: kv, seed: seed}
}

func (r *kvProductRepository) load(ctx context.Context) ([]domain.Product, error) {
	data, err := r.kv.Get(ctx, ProductsKey)
	if errors.Is(err, storage.ErrNotFound) {
		out := make([]domain.Product, len(r.seed))
		copy(out, r.seed)
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	var stored []storedProduct
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ProductsKey, err)
	}
	products := make([]domain.Product, 0, len(stored))
	for _, s := range stored {
		products = append(products, s.toDomain())
	}
	return products, nil
}

func (r *kvProductRepository) save(ctx context.Context, products []domain.Product) error {
	stored := make([]storedProduct, 0, len(products))
	for _, p := range products {
		stored = append(stored, toStored(p))
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ProductsKey, err)
	}
	return r.kv.Set(ctx, ProductsKey, data, 0)
}

func (r *kvProductRepository) List(ctx context.Context, filter domain.FilterOptions) ([]domain.Product, error) {
	products, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(products), nil
}

func (r *kvProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	products, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *kvProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.ID == product.ID {
			return ErrConflict
		}
	}
	return r.save(ctx, append(products, *product))
}

func (r *kvProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].ID == product.ID {
			products[i] = *product
			return r.save(ctx, products)
		}
	}
	return ErrNotFound
}

func (r *kvProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].ID == id {
			return r.save(ctx, append(products[:i], products[i+1:]...))
		}
	}
	return ErrNotFound
}
