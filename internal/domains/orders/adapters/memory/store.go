package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	catalogmemory "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/memory"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

var (
	_ ports.Store        = (*Store)(nil)
	_ ports.LedgerWriter = (*ledgerTx)(nil)
)

// Store is an in-memory order ledger sharing units of work with an in-memory catalog.
// Units of work are serialized, so every one of them observes a consistent snapshot.
type Store struct {
	mu      sync.RWMutex
	orders  map[string]*domain.Order
	catalog *catalogmemory.Repository
}

// NewStore wires the ledger to the catalog whose stock it reserves.
func NewStore(catalog *catalogmemory.Repository) *Store {
	return &Store{orders: map[string]*domain.Order{}, catalog: catalog}
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (s *Store) ListByUser(_ context.Context, userID string, filter ports.ListFilter) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Order, 0)
	for _, order := range s.orders {
		if order.UserID != userID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		result = append(result, order.Clone())
	}
	sortNewestFirst(result)
	return result, nil
}

// Do runs fn against staged copies and publishes them only when fn succeeds.
// Rollback after Commit is a no-op.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if s.catalog == nil {
		return errors.New("memory order store has no catalog")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inventory := s.catalog.Begin()
	defer inventory.Rollback()
	tx := &unitTx{
		inventory: inventory,
		ledger: &ledgerTx{
			committed: s.orders,
			staged:    map[string]*domain.Order{},
			deleted:   map[string]struct{}{},
		},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id := range tx.ledger.deleted {
		delete(s.orders, id)
	}
	for id, order := range tx.ledger.staged {
		s.orders[id] = order.Clone()
	}
	inventory.Commit()
	return nil
}

type unitTx struct {
	inventory *catalogmemory.InventoryTx
	ledger    *ledgerTx
}

func (t *unitTx) Inventory() catalogports.Inventory { return t.inventory }
func (t *unitTx) Orders() ports.LedgerWriter         { return t.ledger }

type ledgerTx struct {
	committed map[string]*domain.Order
	staged    map[string]*domain.Order
	deleted   map[string]struct{}
}

func (l *ledgerTx) lookup(id string) (*domain.Order, bool) {
	if _, gone := l.deleted[id]; gone {
		return nil, false
	}
	if order, ok := l.staged[id]; ok {
		return order, true
	}
	order, ok := l.committed[id]
	return order, ok
}

func (l *ledgerTx) Insert(_ context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	if _, exists := l.lookup(order.ID); exists {
		return errors.New("order already exists")
	}
	delete(l.deleted, order.ID)
	l.staged[order.ID] = order.Clone()
	return nil
}

func (l *ledgerTx) GetForUpdate(_ context.Context, id string) (*domain.Order, error) {
	order, ok := l.lookup(id)
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (l *ledgerTx) UpdateStatus(_ context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	current, ok := l.lookup(order.ID)
	if !ok {
		return ports.ErrNotFound
	}
	updated := current.Clone()
	updated.Status = order.Status
	updated.UpdatedAt = order.UpdatedAt
	l.staged[order.ID] = updated
	return nil
}

func (l *ledgerTx) Delete(_ context.Context, id string) error {
	if _, ok := l.lookup(id); !ok {
		return ports.ErrNotFound
	}
	delete(l.staged, id)
	l.deleted[id] = struct{}{}
	return nil
}

func sortNewestFirst(orders []*domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
