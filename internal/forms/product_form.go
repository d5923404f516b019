// Package forms implements the validate, submit, notify and redirect flow of
// the product and account forms. Field state is kept as the raw strings a
// user typed.
package forms

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/notify"
	"github.com/spec-kit/catalog-service/internal/validation"
	"github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

// Routes the controllers redirect to.
const (
	RouteProducts = "/products"
	RouteLogin    = "/login"
)

// ProductRoute is the detail route of a product.
func ProductRoute(id string) string {
	return RouteProducts + "/" + id
}

// Result is the outcome of a form action. An empty Redirect means stay on
// the form.
type Result struct {
	FieldErrors map[string]string
	Notice      *notify.Notice
	Redirect    string
}

// OK reports whether the action succeeded.
func (r Result) OK() bool {
	return len(r.FieldErrors) == 0 && !r.Notice.IsDestructive()
}

// ProductService is the slice of the product service the forms call.
type ProductService interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
}

// ProductForm is the editable state of the product form.
type ProductForm struct {
	Name        string
	Description string
	Category    string
	Price       string
	Rating      string
}

// NewProductForm returns an empty form.
func NewProductForm() ProductForm {
	return ProductForm{Price: "0", Rating: "0"}
}

// ProductFormFrom fills the form from an existing product.
func ProductFormFrom(p domain.Product) ProductForm {
	return ProductForm{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Rating:      strconv.FormatFloat(p.Rating, 'f', -1, 64),
	}
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParsePrice reads the number at the start of typed text, so "12abc" is 12.
// Text with no leading number, or one that overflows, is 0.
func ParsePrice(s string) float64 {
	num := leadingNumber.FindString(strings.TrimSpace(s))
	if num == "" {
		return 0
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// Input converts the form to a product payload.
func (f ProductForm) Input() domain.ProductInput {
	return domain.ProductInput{
		Name:        f.Name,
		Description: f.Description,
		Category:    f.Category,
		Price:       ParsePrice(f.Price),
		Rating:      ParsePrice(f.Rating),
	}
}

// Validate returns one message per invalid field, or nil.
func (f ProductForm) Validate() map[string]string {
	return validation.Struct(f.Input())
}

// ProductFormController drives the create and edit product pages.
type ProductFormController struct {
	products ProductService
}

// NewProductFormController builds the controller.
func NewProductFormController(products ProductService) *ProductFormController {
	return &ProductFormController{products: products}
}

// Show loads a product for the detail view. An unknown id sends the user
// back to the list; other failures leave the view empty.
func (c *ProductFormController) Show(ctx context.Context, id string) (*domain.Product, Result) {
	product, err := c.products.GetProduct(ctx, id)
	if err != nil {
		res := Result{Notice: notify.Error("Failed to fetch product details")}
		if errorutil.IsCode(err, errorutil.CodeNotFound) {
			res.Redirect = RouteProducts
		}
		return nil, res
	}
	return product, Result{}
}

// LoadForEdit fills the edit form. A failure sends the user back to the list.
func (c *ProductFormController) LoadForEdit(ctx context.Context, id string) (ProductForm, Result) {
	product, err := c.products.GetProduct(ctx, id)
	if err != nil {
		return ProductForm{}, Result{
			Notice:   notify.Error("Failed to fetch product details"),
			Redirect: RouteProducts,
		}
	}
	return ProductFormFrom(*product), Result{}
}

// Create validates and submits a new product.
func (c *ProductFormController) Create(ctx context.Context, form ProductForm) Result {
	return submitProduct(ctx, form, func(ctx context.Context, in domain.ProductInput) Result {
		if _, err := c.products.CreateProduct(ctx, in); err != nil {
			return Result{Notice: notify.Error("Failed to create product")}
		}
		return Result{Notice: notify.Success("Product created successfully"), Redirect: RouteProducts}
	})
}

// Update validates and submits every field of the form over product id.
func (c *ProductFormController) Update(ctx context.Context, id string, form ProductForm) Result {
	return submitProduct(ctx, form, func(ctx context.Context, in domain.ProductInput) Result {
		if _, err := c.products.UpdateProduct(ctx, id, domain.FullUpdate(in)); err != nil {
			return Result{Notice: notify.Error("Failed to update product")}
		}
		return Result{Notice: notify.Success("Product updated successfully"), Redirect: ProductRoute(id)}
	})
}

func submitProduct(ctx context.Context, form ProductForm, save func(context.Context, domain.ProductInput) Result) Result {
	if fields := form.Validate(); fields != nil {
		return invalid(fields)
	}
	return save(ctx, form.Input())
}
