package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
)

// ProductInput carries the fields accepted when creating a product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Categories  []string
	ImageURL    string
}

// Service exposes catalog use cases to adapters.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]*domain.Product, error)
	Restock(ctx context.Context, id string, qty int) (*domain.Product, error)
}
