// Package catalog holds the state of the product list view: the fetched
// products, the active filters and sort, and the delete confirmation.
package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/notify"
)

// State of the list.
type State string

const (
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
)

// ProductService is what the view needs from the product backend.
type ProductService interface {
	GetProducts(ctx context.Context, filter domain.FilterOptions) ([]domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Controller is safe for concurrent use. The lock is never held while a
// backend call is in flight; when fetches overlap the last one started wins.
type Controller struct {
	products ProductService
	logger   *zap.Logger

	mu         sync.Mutex
	state      State
	list       []domain.Product
	filters    domain.FilterOptions
	sort       domain.SortOption
	pending    string
	generation uint64
}

// NewController returns a controller in the loading state with no products.
func NewController(products ProductService, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		products: products,
		logger:   logger,
		state:    StateLoading,
		sort:     domain.DefaultSort,
	}
}

// Load fetches the products matching the current filters. On failure the
// previous list is kept and a destructive notice is returned.
func (c *Controller) Load(ctx context.Context) *notify.Notice {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = StateLoading
	filters := c.filters
	c.mu.Unlock()

	products, err := c.products.GetProducts(ctx, filters)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil
	}
	c.state = StateLoaded
	if err != nil {
		c.logger.Warn("fetch products failed", zap.Error(err))
		return notify.Error("Failed to fetch products")
	}
	c.list = domain.SortProducts(products, c.sort)
	return nil
}

// SetFilters replaces the filters and reloads.
func (c *Controller) SetFilters(ctx context.Context, filters domain.FilterOptions) *notify.Notice {
	c.mu.Lock()
	c.filters = filters
	c.mu.Unlock()
	return c.Load(ctx)
}

// SetSort reorders the loaded list without fetching.
func (c *Controller) SetSort(opt domain.SortOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = opt
	c.list = domain.SortProducts(c.list, opt)
}

// Products returns a copy of the displayed list.
func (c *Controller) Products() []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Product, len(c.list))
	copy(out, c.list)
	return out
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Filters() domain.FilterOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

func (c *Controller) Sort() domain.SortOption {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

// RequestDelete opens the confirmation for id.
func (c *Controller) RequestDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = id
}

// CancelDelete closes the confirmation without calling the backend.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = ""
}

// PendingDelete returns the id awaiting confirmation, if any.
func (c *Controller) PendingDelete() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.pending != ""
}

// ConfirmDelete deletes the pending product. The confirmation is closed
// whatever the outcome; with nothing pending it returns nil.
func (c *Controller) ConfirmDelete(ctx context.Context) *notify.Notice {
	c.mu.Lock()
	id := c.pending
	c.mu.Unlock()
	if id == "" {
		return nil
	}

	err := c.products.DeleteProduct(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == id {
		c.pending = ""
	}
	if err != nil {
		c.logger.Warn("delete product failed", zap.String("product_id", id), zap.Error(err))
		return notify.Error("Failed to delete product")
	}
	kept := make([]domain.Product, 0, len(c.list))
	for _, p := range c.list {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.list = kept
	return notify.Success("Product deleted successfully")
}
