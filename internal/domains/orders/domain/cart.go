package domain

import (
	"math"
	"sort"
	"strings"
)

// CartItem is a client requested product and quantity. It never carries a price.
type CartItem struct {
	ProductID string
	Quantity  int
}

// Cart is the list of items submitted for placement.
type Cart []CartItem

// Validate rejects empty carts, blank product ids, non-positive quantities and
// repeated lines whose combined quantity does not fit in an int.
func (c Cart) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCart
	}
	totals := make(map[string]int, len(c))
	for _, item := range c {
		id := strings.TrimSpace(item.ProductID)
		if id == "" {
			return ErrEmptyProductID
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if totals[id] > math.MaxInt-item.Quantity {
			return ErrQuantityTooLarge
		}
		totals[id] += item.Quantity
	}
	return nil
}

// Merge folds repeated products into one line, keeping first-seen order.
// Sums saturate at math.MaxInt so a merged line never asks for less than its parts.
func (c Cart) Merge() Cart {
	index := make(map[string]int, len(c))
	merged := make(Cart, 0, len(c))
	for _, item := range c {
		id := strings.TrimSpace(item.ProductID)
		if i, ok := index[id]; ok {
			if merged[i].Quantity > math.MaxInt-item.Quantity {
				merged[i].Quantity = math.MaxInt
			} else {
				merged[i].Quantity += item.Quantity
			}
			continue
		}
		index[id] = len(merged)
		merged = append(merged, CartItem{ProductID: id, Quantity: item.Quantity})
	}
	return merged
}

// LockOrder returns the merged items sorted by product id, the order in which
// stock rows are acquired so concurrent placements cannot deadlock.
func (c Cart) LockOrder() Cart {
	sorted := append(Cart(nil), c.Merge()...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	return sorted
}
