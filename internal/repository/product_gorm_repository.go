package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// productRow is the gorm model for the products table.
type productRow struct {
	ID          string    `gorm:"primarykey;size:36"`
	Name        string    `gorm:"size:200;not null"`
	Description string    `gorm:"size:1000;not null"`
	Category    string    `gorm:"size:50;not null;index"`
	Price       float64   `gorm:"not null"`
	Rating      float64   `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (productRow) TableName() string {
	return "products"
}

func rowFromProduct(p *domain.Product) productRow {
	return productRow{
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

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Rating:      r.Rating,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type gormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository returns a gorm-backed implementation. The
// products table is migrated on construction.
func NewGormProductRepository(db *gorm.DB) (ProductRepository, error) {
	if err := db.AutoMigrate(&productRow{}); err != nil {
		return nil, fmt.Errorf("migrate products: %w", err)
	}
	return &gormProductRepository{db: db}, nil
}

func (r *gormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	row := rowFromProduct(product)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrConflict
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *gormProductRepository) Update(ctx context.Context, product *domain.Product) error {
	row := rowFromProduct(product)
	// Select forces zero values such as a rating of 0 to be written.
	result := r.db.WithContext(ctx).
		Model(&productRow{}).
		Where("id = ?", product.ID).
		Select("name", "description", "category", "price", "rating", "updated_at").
		Updates(&row)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormProductRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	p := row.toDomain()
	return &p, nil
}

func (r *gormProductRepository) List(ctx context.Context, filter domain.FilterOptions) ([]domain.Product, error) {
	q := r.db.WithContext(ctx).Model(&productRow{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.MinRating != nil {
		q = q.Where("rating >= ?", *filter.MinRating)
	}

	var rows []productRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	// SQLite's LOWER folds ASCII only, so the search term is matched here.
	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p := row.toDomain()
		if filter.Matches(p) {
			products = append(products, p)
		}
	}
	return products, nil
}
