package domain

import "time"

// Categories is the fixed set a product category must belong to.
var Categories = []string{
	"Electronics",
	"Clothing",
	"Home & Kitchen",
	"Books",
	"Sports",
	"Toys",
	"Health & Beauty",
	"Automotive",
	"Grocery",
	"Other",
}

// IsValidCategory reports whether name is one of Categories.
func IsValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Product is a catalog entry.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       float64
	Rating      float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductInput holds the user-editable fields of a product.
type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category" validate:"required,category"`
	Price       float64 `json:"price" validate:"finite,gt=0"`
	Rating      float64 `json:"rating" validate:"finite,gte=0,lte=5"`
}

// Input returns the editable fields of p.
func (p Product) Input() ProductInput {
	return ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Rating:      p.Rating,
	}
}

// NewProduct builds a product from input, stamping both timestamps with now.
func NewProduct(id string, in ProductInput, now time.Time) Product {
	return Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Rating:      in.Rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProductUpdate is a partial update. Nil fields keep the stored value.
type ProductUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Price       *float64
	Rating      *float64
}

// IsEmpty reports whether no field is set.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Category == nil && u.Price == nil && u.Rating == nil
}

// Apply merges u onto p and stamps UpdatedAt. ID and CreatedAt are never
// touched, and UpdatedAt never precedes CreatedAt.
func (u ProductUpdate) Apply(p Product, now time.Time) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
	if now.Before(p.CreatedAt) {
		now = p.CreatedAt
	}
	p.UpdatedAt = now
	return p
}

// FullUpdate returns an update that overwrites every editable field.
func FullUpdate(in ProductInput) ProductUpdate {
	return ProductUpdate{
		Name:        &in.Name,
		Description: &in.Description,
		Category:    &in.Category,
		Price:       &in.Price,
		Rating:      &in.Rating,
	}
}
