package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCompleted Status = "COMPLETED"
)

var (
	ErrEmptyUserID       = errors.New("user id is required")
	ErrEmptyCart         = errors.New("cart must contain at least one item")
	ErrEmptyProductID    = errors.New("product id is required")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrQuantityTooLarge  = errors.New("requested quantity is out of range")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrTotalMismatch     = errors.New("order total does not match line items")
)

// TransitionError describes a lifecycle operation rejected for the current status.
type TransitionError struct {
	Operation string
	From      Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %s", e.Operation, e.From)
}

// Is lets errors.Is match the ErrInvalidTransition sentinel.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ParseStatus normalizes and validates a client supplied status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusShipped, StatusDelivered, StatusCompleted:
		return true
	default:
		return false
	}
}

// LineItem is one product entry of an order. Name and price are copied from the
// catalog when the order is placed and never follow later product edits.
type LineItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Subtotal is quantity times the snapshotted unit price.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is the ledger aggregate.
type Order struct {
	ID        string
	Number    string
	UserID    string
	Status    Status
	Total     decimal.Decimal
	Items     []LineItem
	CreatedAt time.Time
	UpdatedAt time.Time

	events []Event
}

// OrderNumber renders the human readable number: ORD-<UTC yyyymmddHHMMSS>-<first 8 chars of id>.
func OrderNumber(id string, at time.Time) string {
	prefix := id
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102150405"), prefix)
}

// NewOrder starts a PENDING order with no line items.
func NewOrder(id, userID string, now time.Time) (*Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("order id is required")
	}
	return &Order{
		ID:        id,
		Number:    OrderNumber(id, now),
		UserID:    userID,
		Status:    StatusPending,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddLine appends a snapshotted line item and folds it into the total.
func (o *Order) AddLine(lineID, productID, productName string, qty int, unitPrice decimal.Decimal) error {
	if strings.TrimSpace(productID) == "" {
		return ErrEmptyProductID
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	line := LineItem{
		ID:          lineID,
		OrderID:     o.ID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    qty,
		UnitPrice:   unitPrice,
	}
	o.Items = append(o.Items, line)
	o.Total = o.Total.Add(line.Subtotal())
	return nil
}

// CalculateTotal sums the line subtotals.
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Place checks the aggregate is complete and records OrderPlaced.
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return ErrEmptyCart
	}
	if !o.Total.Equal(o.CalculateTotal()) {
		return ErrTotalMismatch
	}
	o.record(OrderPlaced{
		BaseEvent: BaseEvent{Timestamp: o.CreatedAt},
		OrderID:   o.ID,
		Number:    o.Number,
		UserID:    o.UserID,
		Total:     o.Total,
		Items:     append([]LineItem(nil), o.Items...),
	})
	return nil
}

// Cancel moves a PENDING order to CANCELLED. Callers restore stock in the same unit of work.
func (o *Order) Cancel(now time.Time) error {
	if o.Status != StatusPending {
		return &TransitionError{Operation: "cancel", From: o.Status}
	}
	o.Status = StatusCancelled
	o.UpdatedAt = now
	o.record(OrderCancelled{
		BaseEvent: BaseEvent{Timestamp: now},
		OrderID:   o.ID,
		UserID:    o.UserID,
		Restored:  append([]LineItem(nil), o.Items...),
	})
	return nil
}

// MarkPaid moves a PENDING order to PAID.
func (o *Order) MarkPaid(now time.Time) error {
	if o.Status != StatusPending {
		return &TransitionError{Operation: "pay", From: o.Status}
	}
	o.Status = StatusPaid
	o.UpdatedAt = now
	o.record(OrderPaid{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, UserID: o.UserID, Total: o.Total})
	return nil
}

// OverrideStatus sets any known status without checking the transition.
func (o *Order) OverrideStatus(status Status, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	from := o.Status
	o.Status = status
	o.UpdatedAt = now
	o.record(OrderStatusChanged{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, From: from, To: status})
	return nil
}

// Deletable reports whether the order reached a state that allows removal.
func (o *Order) Deletable() bool {
	return o.Status == StatusCancelled || o.Status == StatusCompleted
}

// Delete checks deletability and records OrderDeleted.
func (o *Order) Delete(now time.Time) error {
	if !o.Deletable() {
		return &TransitionError{Operation: "delete", From: o.Status}
	}
	o.record(OrderDeleted{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, UserID: o.UserID, Status: o.Status})
	return nil
}

// OwnedBy reports whether userID owns the order.
func (o *Order) OwnedBy(userID string) bool {
	return o != nil && o.UserID == userID
}

// Events returns recorded domain events.
func (o *Order) Events() []Event {
	return append([]Event(nil), o.events...)
}

// ClearEvents drops recorded domain events.
func (o *Order) ClearEvents() {
	o.events = nil
}

func (o *Order) record(evt Event) {
	o.events = append(o.events, evt)
}

// Clone returns a deep copy without recorded events.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = append([]LineItem(nil), o.Items...)
	cp.events = nil
	return &cp
}

var _ AggregateWithEvents = (*Order)(nil)
