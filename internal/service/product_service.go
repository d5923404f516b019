package service

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/events"
	"github.com/spec-kit/catalog-service/internal/repository"
	"github.com/spec-kit/catalog-service/internal/validation"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

// ProductService coordinates catalog reads and writes.
type ProductService struct {
	products repository.ProductRepository
	latency  time.Duration
	logger   *zap.Logger
	newID    func() string
	publisher
}

// ProductDependencies bundles the product service collaborators.
type ProductDependencies struct {
	ProductRepo repository.ProductRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewProductService builds the service.
func NewProductService(cfg config.Config, deps ProductDependencies) *ProductService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products:  deps.ProductRepo,
		latency:   cfg.Mock.ProductLatency(),
		logger:    logger,
		newID:     func() string { return ulid.Make().String() },
		publisher: publisher{dispatcher: deps.Dispatcher, now: time.Now},
	}
}

func (s *ProductService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// GetProducts returns every product matching filter, in no particular order.
func (s *ProductService) GetProducts(ctx context.Context, filter domain.FilterOptions) ([]domain.Product, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return products, nil
}

// GetProduct returns a single product.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, productNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return product, nil
}

// CreateProduct validates input and stores a new product with a fresh id.
func (s *ProductService) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	product := domain.NewProduct(s.newID(), in, s.stamp())
	if err := s.products.Create(ctx, &product); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("product created", zap.String("product_id", product.ID))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventProductCreated,
		SubjectID: product.ID,
		Actor:     actorFromContext(ctx),
		Payload: events.ProductChangedPayload{
			Name:     product.Name,
			Category: product.Category,
		},
	})
	return &product, nil
}

// UpdateProduct merges update onto the stored product. Only the fields set
// in update change; the merged result must still be valid.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return nil, err
	}

	current, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, productNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	updated := update.Apply(*current, s.stamp())
	if err := validation.Validate(updated.Input()); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, productNotFound(id)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventProductUpdated,
		SubjectID: updated.ID,
		Actor:     actorFromContext(ctx),
		Payload: events.ProductChangedPayload{
			Name:          updated.Name,
			Category:      updated.Category,
			ChangedFields: changedFields(*current, updated),
		},
	})
	return &updated, nil
}

// DeleteProduct removes a product. A missing id leaves the store unchanged.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := simulateLatency(ctx, s.latency); err != nil {
		return err
	}

	current, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return productNotFound(id)
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return productNotFound(id)
		}
		return apperrors.NewInternalError(err)
	}

	s.logger.Info("product deleted", zap.String("product_id", id))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventProductDeleted,
		SubjectID: id,
		Actor:     actorFromContext(ctx),
		Payload:   events.ProductDeletedPayload{Name: current.Name},
	})
	return nil
}

func changedFields(before, after domain.Product) []string {
	var fields []string
	if before.Name != after.Name {
		fields = append(fields, "name")
	}
	if before.Description != after.Description {
		fields = append(fields, "description")
	}
	if before.Category != after.Category {
		fields = append(fields, "category")
	}
	if before.Price != after.Price {
		fields = append(fields, "price")
	}
	if before.Rating != after.Rating {
		fields = append(fields, "rating")
	}
	return fields
}
