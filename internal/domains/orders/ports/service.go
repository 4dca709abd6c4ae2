package ports

import (
	"context"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
)

// PlaceOrderInput is the command accepted by order placement.
type PlaceOrderInput struct {
	UserID         string
	Items          domain.Cart
	IdempotencyKey string
}

// Service exposes order placement and lifecycle use cases to adapters.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string, filter ListFilter) ([]*domain.Order, error)
	CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	PayOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error)
	DeleteOrder(ctx context.Context, userID, orderID string) error
}
