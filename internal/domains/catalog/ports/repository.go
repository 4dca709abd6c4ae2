package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
)

// ErrNotFound is returned when a product id does not resolve.
var ErrNotFound = errors.New("product not found")

// Repository persists catalog products.
type Repository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Product, error)
	// Restock atomically adds qty to the product stock.
	Restock(ctx context.Context, id string, qty int) (*domain.Product, error)
}

// ListFilter narrows catalog listings. Zero value lists everything.
type ListFilter struct {
	Category string
	InStock  bool
}

// Inventory mutates stock inside an enclosing transaction. Implementations must
// make each call atomic with respect to concurrent callers touching the same product.
type Inventory interface {
	// Reserve decrements stock and increments sold by qty, failing with ErrNotFound
	// or a domain.InsufficientStockError without changing anything. The returned
	// product reflects the row after the decrement.
	Reserve(ctx context.Context, productID string, qty int) (*domain.Product, error)
	// Release restores qty units previously reserved.
	Release(ctx context.Context, productID string, qty int) error
}
