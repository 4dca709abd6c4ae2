package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
)

var (
	_ ports.Repository = (*Repository)(nil)
	_ ports.Inventory  = (*InventoryTx)(nil)
)

// Repository is an in-memory catalog adapter.
type Repository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

// NewRepository returns an empty catalog.
func NewRepository() *Repository {
	return &Repository{products: map[string]*domain.Product{}}
}

func (r *Repository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if product.ID == "" {
		return nil, errors.New("product id is required")
	}
	clone := product.Clone()
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		if filter.Category != "" && !slices.Contains(product.Categories, filter.Category) {
			continue
		}
		if filter.InStock && product.Stock <= 0 {
			continue
		}
		result = append(result, product.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *Repository) Restock(_ context.Context, id string, qty int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if err := product.Restock(qty); err != nil {
		return nil, err
	}
	return product.Clone(), nil
}

// Begin takes the catalog write lock and returns a transaction whose stock
// changes stay private until Commit. Exactly one of Commit or Rollback must be called.
func (r *Repository) Begin() *InventoryTx {
	r.mu.Lock()
	return &InventoryTx{repo: r, staged: map[string]*domain.Product{}}
}

// InventoryTx stages stock mutations against a locked Repository.
type InventoryTx struct {
	repo   *Repository
	staged map[string]*domain.Product
	done   bool
}

func (tx *InventoryTx) load(id string) (*domain.Product, error) {
	if p, ok := tx.staged[id]; ok {
		return p, nil
	}
	p, ok := tx.repo.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	staged := p.Clone()
	tx.staged[id] = staged
	return staged, nil
}

// Reserve decrements stock on the staged copy of the product.
func (tx *InventoryTx) Reserve(_ context.Context, productID string, qty int) (*domain.Product, error) {
	if tx.done {
		return nil, errors.New("inventory transaction already finished")
	}
	p, err := tx.load(productID)
	if err != nil {
		return nil, err
	}
	if err := p.Reserve(qty); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// Release restores stock on the staged copy of the product.
func (tx *InventoryTx) Release(_ context.Context, productID string, qty int) error {
	if tx.done {
		return errors.New("inventory transaction already finished")
	}
	p, err := tx.load(productID)
	if err != nil {
		return err
	}
	return p.Release(qty)
}

// Commit publishes staged products and releases the catalog lock.
func (tx *InventoryTx) Commit() {
	if tx.done {
		return
	}
	for id, p := range tx.staged {
		tx.repo.products[id] = p
	}
	tx.finish()
}

// Rollback drops staged products and releases the catalog lock.
func (tx *InventoryTx) Rollback() {
	if tx.done {
		return
	}
	tx.finish()
}

func (tx *InventoryTx) finish() {
	tx.done = true
	tx.staged = nil
	tx.repo.mu.Unlock()
}
