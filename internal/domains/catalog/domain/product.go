package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName         = errors.New("product name is required")
	ErrInvalidPrice      = errors.New("product price must not be negative")
	ErrNegativeStock     = errors.New("product stock must not be negative")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockOverflow     = errors.New("stock would exceed the maximum quantity")
)

// MaxStock is the largest stock a product can hold; on 64-bit builds it matches the bigint stock column.
const MaxStock = math.MaxInt

// CanAdd reports whether qty more units fit on top of stock.
func CanAdd(stock, qty int) bool {
	return qty <= MaxStock-stock
}

// InsufficientStockError reports a reservation that the product cannot cover.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("product %s stock insufficient: requested %d, available %d", name, e.Requested, e.Available)
}

// Is lets errors.Is match the ErrInsufficientStock sentinel.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Product is the catalog aggregate. Price is authoritative for order totals.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Sold        int
	Categories  []string
	ImageURL    string
}

// NewProduct validates and constructs a Product.
func NewProduct(id, name string, price decimal.Decimal, stock int) (*Product, error) {
	p := &Product{ID: id, Price: price, Stock: stock}
	if err := p.Rename(name); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Rename trims and validates the product name.
func (p *Product) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	p.Name = name
	return nil
}

// Validate enforces the product invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// Reserve takes qty units out of stock and counts them as sold.
func (p *Product) Reserve(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if p.Stock < qty {
		return &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Requested: qty, Available: p.Stock}
	}
	if !CanAdd(p.Sold, qty) {
		return ErrStockOverflow
	}
	p.Stock -= qty
	p.Sold += qty
	return nil
}

// Release returns qty units to stock, undoing a prior Reserve.
func (p *Product) Release(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if !CanAdd(p.Stock, qty) {
		return ErrStockOverflow
	}
	p.Stock += qty
	p.Sold -= qty
	if p.Sold < 0 {
		p.Sold = 0
	}
	return nil
}

// Restock adds inbound inventory without touching the sold counter.
func (p *Product) Restock(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if !CanAdd(p.Stock, qty) {
		return ErrStockOverflow
	}
	p.Stock += qty
	return nil
}

// Clone returns a deep copy safe to hand out of a repository.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Categories != nil {
		cp.Categories = append([]string(nil), p.Categories...)
	}
	return &cp
}
