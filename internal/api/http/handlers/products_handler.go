package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/api/dto"
	"github.com/spec-kit/catalog-service/internal/domain"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

// ProductService is what the product endpoints need from the product service.
type ProductService interface {
	GetProducts(ctx context.Context, filter domain.FilterOptions) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductsHandler manages catalog endpoints.
type ProductsHandler struct {
	service ProductService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(productService ProductService) *ProductsHandler {
	return &ProductsHandler{service: productService}
}

// Categories GET /categories.
func (h *ProductsHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": domain.Categories})
}

// ListProducts GET /products. The optional sort parameter orders the
// response only.
func (h *ProductsHandler) ListProducts(c *fiber.Ctx) error {
	filter, sortOpt, err := parseProductQuery(c)
	if err != nil {
		return err
	}
	products, err := h.service.GetProducts(c.UserContext(), filter)
	if err != nil {
		return err
	}
	if sortOpt != "" {
		products = domain.SortProducts(products, sortOpt)
	}
	return c.JSON(fiber.Map{"data": dto.NewProductList(products)})
}

// GetProduct GET /products/:id.
func (h *ProductsHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(*product)})
}

// CreateProduct POST /products.
func (h *ProductsHandler) CreateProduct(c *fiber.Ctx) error {
	var req dto.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	product, err := h.service.CreateProduct(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProductResponse(*product)})
}

// UpdateProduct PUT /products/:id.
func (h *ProductsHandler) UpdateProduct(c *fiber.Ctx) error {
	var req dto.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), req.Update())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(*product)})
}

// DeleteProduct DELETE /products/:id.
func (h *ProductsHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseProductQuery(c *fiber.Ctx) (domain.FilterOptions, domain.SortOption, error) {
	details := map[string]any{}
	filter := domain.FilterOptions{
		Category:   strings.TrimSpace(c.Query(dto.QueryCategory)),
		SearchTerm: c.Query(dto.QuerySearch),
		MinPrice:   parseFloatParam(c, dto.QueryMinPrice, details),
		MaxPrice:   parseFloatParam(c, dto.QueryMaxPrice, details),
		MinRating:  parseFloatParam(c, dto.QueryMinRating, details),
	}

	var sortOpt domain.SortOption
	if raw := c.Query(dto.QuerySort); raw != "" {
		opt, err := domain.ParseSortOption(raw)
		if err != nil {
			details[dto.QuerySort] = "Unknown sort option"
		}
		sortOpt = opt
	}

	if len(details) > 0 {
		return domain.FilterOptions{}, "", apperrors.NewValidationError("invalid query", details)
	}
	return filter, sortOpt, nil
}

func parseFloatParam(c *fiber.Ctx, key string, details map[string]any) *float64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		details[key] = "Must be a number"
		return nil
	}
	return &v
}
