package orders

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	catalogdomain "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	orderapp "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

// Application error types carried across the workflow boundary.
const (
	ErrTypeInvalidInput        = "InvalidInput"
	ErrTypeProductNotFound     = "ProductNotFound"
	ErrTypeInsufficientStock   = "InsufficientStock"
	ErrTypeOrderNotFound       = "OrderNotFound"
	ErrTypeInvalidTransition   = "InvalidTransition"
	ErrTypeConflict            = "Conflict"
	ErrTypeIdempotencyConflict = "IdempotencyConflict"
)

// stockDetail is the serializable form of catalogdomain.InsufficientStockError.
type stockDetail struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

// EncodeError turns service errors into non-retryable Temporal application errors.
// Unknown errors pass through untouched.
func EncodeError(err error) error {
	if err == nil {
		return nil
	}
	var stockErr *catalogdomain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		detail := stockDetail(*stockErr)
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInsufficientStock, err, detail)
	case errors.Is(err, orderapp.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	case errors.Is(err, catalogports.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeProductNotFound, err)
	case errors.Is(err, orderports.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeOrderNotFound, err)
	case errors.Is(err, orderdomain.ErrInvalidTransition):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidTransition, err)
	case errors.Is(err, orderports.ErrIdempotencyConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeIdempotencyConflict, err)
	case errors.Is(err, orderports.ErrConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeConflict, err)
	default:
		return err
	}
}

// DecodeError maps an error returned by a workflow run back onto the service sentinels.
func DecodeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	msg := appErr.Error()
	switch appErr.Type() {
	case ErrTypeInsufficientStock:
		var detail stockDetail
		if appErr.HasDetails() && appErr.Details(&detail) == nil {
			stockErr := catalogdomain.InsufficientStockError(detail)
			return &stockErr
		}
		return fmt.Errorf("%w: %s", catalogdomain.ErrInsufficientStock, msg)
	case ErrTypeInvalidInput:
		return fmt.Errorf("%w: %s", orderapp.ErrInvalidInput, msg)
	case ErrTypeProductNotFound:
		return fmt.Errorf("%w: %s", catalogports.ErrNotFound, msg)
	case ErrTypeOrderNotFound:
		return fmt.Errorf("%w: %s", orderports.ErrNotFound, msg)
	case ErrTypeInvalidTransition:
		return fmt.Errorf("%w: %s", orderdomain.ErrInvalidTransition, msg)
	case ErrTypeIdempotencyConflict:
		return fmt.Errorf("%w: %s", orderports.ErrIdempotencyConflict, msg)
	case ErrTypeConflict:
		return fmt.Errorf("%w: %s", orderports.ErrConflict, msg)
	default:
		return err
	}
}
