package ports

import (
	"context"
	"errors"

	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
)

var (
	// ErrNotFound is returned when an order is absent or not visible to the caller.
	ErrNotFound = errors.New("order not found")
	// ErrConflict marks a transaction that lost a race with a concurrent writer; the caller may resubmit.
	ErrConflict = errors.New("order transaction conflict")
)

// ListFilter narrows ledger listings. The zero value lists every status.
type ListFilter struct {
	Status domain.Status
}

// Ledger reads committed orders.
type Ledger interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]*domain.Order, error)
}

// LedgerWriter mutates orders inside a unit of work.
type LedgerWriter interface {
	Insert(ctx context.Context, order *domain.Order) error
	// GetForUpdate loads the order and holds it against concurrent writers until the unit of work ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
	// Delete removes the order together with its line items.
	Delete(ctx context.Context, id string) error
}

// Tx exposes the writers bound to one atomic unit.
type Tx interface {
	Inventory() catalogports.Inventory
	Orders() LedgerWriter
}

// UnitOfWork runs fn atomically: every write made through tx commits together or not at all.
// Transient storage conflicts are reported as ErrConflict.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store is the persistence collaborator of the orders context.
type Store interface {
	Ledger
	UnitOfWork
}
