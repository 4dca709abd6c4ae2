package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewProduct_Validates(t *testing.T) {
	_, err := NewProduct("p1", "  ", decimal.NewFromInt(1), 1)
	require.ErrorIs(t, err, ErrEmptyName)
	_, err = NewProduct("p1", "Mug", decimal.NewFromInt(-1), 1)
	require.ErrorIs(t, err, ErrInvalidPrice)
	_, err = NewProduct("p1", "Mug", decimal.NewFromInt(1), -1)
	require.ErrorIs(t, err, ErrNegativeStock)

	p, err := NewProduct("p1", " Mug ", decimal.Zero, 0)
	require.NoError(t, err)
	require.Equal(t, "Mug", p.Name)
}

func TestReserve_DecrementsStockAndCountsSold(t *testing.T) {
	p, err := NewProduct("p1", "Mug", decimal.RequireFromString("7.99"), 5)
	require.NoError(t, err)

	require.NoError(t, p.Reserve(5))
	require.Zero(t, p.Stock)
	require.Equal(t, 5, p.Sold)

	err = p.Reserve(1)
	require.ErrorIs(t, err, ErrInsufficientStock)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Equal(t, InsufficientStockError{ProductID: "p1", ProductName: "Mug", Requested: 1, Available: 0}, *stockErr)
	require.Contains(t, err.Error(), "Mug")

	require.ErrorIs(t, p.Reserve(0), ErrInvalidQuantity)
}

func TestRelease_UndoesReserve(t *testing.T) {
	p, err := NewProduct("p1", "Mug", decimal.NewFromInt(1), 3)
	require.NoError(t, err)
	require.NoError(t, p.Reserve(2))
	require.NoError(t, p.Release(2))
	require.Equal(t, 3, p.Stock)
	require.Zero(t, p.Sold)

	require.NoError(t, p.Release(1))
	require.Equal(t, 4, p.Stock)
	require.Zero(t, p.Sold)
	require.ErrorIs(t, p.Release(-1), ErrInvalidQuantity)
}

func TestRestock_LeavesSoldAlone(t *testing.T) {
	p, err := NewProduct("p1", "Mug", decimal.NewFromInt(1), 1)
	require.NoError(t, err)
	require.NoError(t, p.Reserve(1))
	require.NoError(t, p.Restock(10))
	require.Equal(t, 10, p.Stock)
	require.Equal(t, 1, p.Sold)
	require.ErrorIs(t, p.Restock(0), ErrInvalidQuantity)
}

func TestStockChangesNeverOverflow(t *testing.T) {
	cases := []struct {
		name    string
		stock   int
		sold    int
		apply   func(*Product) error
		wantErr error
		want    int
	}{
		{"restock to the limit", math.MaxInt - 10, 0, func(p *Product) error { return p.Restock(10) }, nil, math.MaxInt},
		{"restock one past the limit", math.MaxInt - 10, 0, func(p *Product) error { return p.Restock(11) }, ErrStockOverflow, math.MaxInt - 10},
		{"restock max int on top of stock", 100, 0, func(p *Product) error { return p.Restock(math.MaxInt) }, ErrStockOverflow, 100},
		{"release to the limit", math.MaxInt - 1, 1, func(p *Product) error { return p.Release(1) }, nil, math.MaxInt},
		{"release past the limit", math.MaxInt, 1, func(p *Product) error { return p.Release(1) }, ErrStockOverflow, math.MaxInt},
		{"reserve with sold at the limit", 5, math.MaxInt, func(p *Product) error { return p.Reserve(1) }, ErrStockOverflow, 5},
		{"reserve max int from small stock", 100, 0, func(p *Product) error { return p.Reserve(math.MaxInt) }, ErrInsufficientStock, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Product{ID: "p1", Name: "Mug", Stock: tc.stock, Sold: tc.sold}
			err := tc.apply(p)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.want, p.Stock)
			require.GreaterOrEqual(t, p.Stock, 0)
		})
	}
}

func TestClone_CopiesCategories(t *testing.T) {
	p := &Product{ID: "p1", Name: "Mug", Categories: []string{"kitchen"}}
	clone := p.Clone()
	clone.Categories[0] = "garden"
	require.Equal(t, "kitchen", p.Categories[0])
}
