package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

type normalizedPlaceOrderInput struct {
	UserID string           `json:"userId"`
	Items  []normalizedItem `json:"items"`
}

type normalizedItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// FingerprintPlaceOrder builds a deterministic hash of the cart (excluding the idempotency key).
// Carts that differ only in line order or in how a product's quantity is split hash the same.
func FingerprintPlaceOrder(input ports.PlaceOrderInput) (string, error) {
	normalized := normalizedPlaceOrderInput{UserID: strings.TrimSpace(input.UserID)}
	for _, item := range input.Items.LockOrder() {
		normalized.Items = append(normalized.Items, normalizedItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// scopedIdempotencyKey namespaces client keys per user so two users cannot collide.
func scopedIdempotencyKey(userID, key string) string {
	return strings.TrimSpace(userID) + ":" + strings.TrimSpace(key)
}
