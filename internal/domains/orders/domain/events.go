package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderPlaced is raised when an order and its stock reservations commit.
type OrderPlaced struct {
	BaseEvent
	OrderID string
	Number  string
	UserID  string
	Total   decimal.Decimal
	Items   []LineItem
}

// EventName returns the event type identifier.
func (e OrderPlaced) EventName() string {
	return "orders.order.placed"
}

// OrderPaid is raised when a pending order is paid.
type OrderPaid struct {
	BaseEvent
	OrderID string
	UserID  string
	Total   decimal.Decimal
}

// EventName returns the event type identifier.
func (e OrderPaid) EventName() string {
	return "orders.order.paid"
}

// OrderCancelled is raised when a pending order is cancelled and its stock restored.
type OrderCancelled struct {
	BaseEvent
	OrderID  string
	UserID   string
	Restored []LineItem
}

// EventName returns the event type identifier.
func (e OrderCancelled) EventName() string {
	return "orders.order.cancelled"
}

// OrderStatusChanged is raised by administrative status overrides.
type OrderStatusChanged struct {
	BaseEvent
	OrderID string
	From    Status
	To      Status
}

// EventName returns the event type identifier.
func (e OrderStatusChanged) EventName() string {
	return "orders.order.status_changed"
}

// OrderDeleted is raised when a finished order is removed from the ledger.
type OrderDeleted struct {
	BaseEvent
	OrderID string
	UserID  string
	Status  Status
}

// EventName returns the event type identifier.
func (e OrderDeleted) EventName() string {
	return "orders.order.deleted"
}

// AggregateWithEvents is implemented by aggregates that track domain events.
type AggregateWithEvents interface {
	Events() []Event
	ClearEvents()
}
