package mapper

import (
	"time"

	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

// CartItem is one requested product in POST /orders. Any price sent by the client is ignored.
type CartItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// PlaceOrder is the request body for POST /orders.
type PlaceOrder struct {
	Items []CartItem `json:"items" binding:"required,min=1,dive"`
}

// UpdateStatus is the request body for PATCH /orders/:orderId/status.
type UpdateStatus struct {
	Status string `json:"status" binding:"required"`
}

// LineItem is the transport representation of an order line.
type LineItem struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"`
}

// Order is the transport representation of an order.
type Order struct {
	ID          string     `json:"id"`
	OrderNumber string     `json:"orderNumber"`
	UserID      string     `json:"userId"`
	Status      string     `json:"status"`
	TotalAmount string     `json:"totalAmount"`
	Items       []LineItem `json:"items"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StatusUpdated confirms an administrative status change.
type StatusUpdated struct {
	Message string `json:"message"`
	Order   Order  `json:"order"`
}

// ToPlaceOrderInput converts the request body into the placement command.
func ToPlaceOrderInput(userID, idempotencyKey string, body PlaceOrder) orderports.PlaceOrderInput {
	cart := make(orderdomain.Cart, 0, len(body.Items))
	for _, item := range body.Items {
		cart = append(cart, orderdomain.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return orderports.PlaceOrderInput{UserID: userID, Items: cart, IdempotencyKey: idempotencyKey}
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *orderdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	items := make([]LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, LineItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Subtotal:    item.Subtotal().StringFixed(2),
		})
	}
	return Order{
		ID:          order.ID,
		OrderNumber: order.Number,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalAmount: order.Total.StringFixed(2),
		Items:       items,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

// FromDomainOrders converts a list of orders.
func FromDomainOrders(orders []*orderdomain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}
