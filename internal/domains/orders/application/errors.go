package application

import (
	"errors"
	"fmt"

	catalogdomain "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
)

// ErrInvalidInput signals the request violated an order invariant.
var ErrInvalidInput = errors.New("invalid order input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyUserID) ||
		errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrEmptyProductID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrQuantityTooLarge) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, catalogdomain.ErrInvalidQuantity) ||
		errors.Is(err, catalogdomain.ErrStockOverflow) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

func productNotFound(productID string) error {
	return fmt.Errorf("%w: %s", catalogports.ErrNotFound, productID)
}
