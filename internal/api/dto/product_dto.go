package dto

import (
	"time"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// ProductResponse is the wire form of a product.
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductRequest payload.
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
}

// UpdateProductRequest is a partial update; absent fields are kept.
type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// NewProductResponse maps a domain product.
func NewProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
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

// NewProductList maps a slice, never returning nil.
func NewProductList(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductResponse(p))
	}
	return out
}

// Product converts the response back into a domain product.
func (r ProductResponse) Product() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Rating:      r.Rating,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Input returns the create payload as domain input.
func (r CreateProductRequest) Input() domain.ProductInput {
	return domain.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Rating:      r.Rating,
	}
}

// NewCreateProductRequest builds the payload from domain input.
func NewCreateProductRequest(in domain.ProductInput) CreateProductRequest {
	return CreateProductRequest{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Rating:      in.Rating,
	}
}

// Update returns the payload as a domain update.
func (r UpdateProductRequest) Update() domain.ProductUpdate {
	return domain.ProductUpdate{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Rating:      r.Rating,
	}
}

// NewUpdateProductRequest builds the payload from a domain update.
func NewUpdateProductRequest(u domain.ProductUpdate) UpdateProductRequest {
	return UpdateProductRequest{
		Name:        u.Name,
		Description: u.Description,
		Category:    u.Category,
		Price:       u.Price,
		Rating:      u.Rating,
	}
}

// Query parameter names of GET /products.
const (
	QueryCategory  = "category"
	QueryMinPrice  = "minPrice"
	QueryMaxPrice  = "maxPrice"
	QueryMinRating = "minRating"
	QuerySearch    = "search"
	QuerySort      = "sort"
)
