package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	catalogdomain "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

// Service places orders and drives their lifecycle.
type Service struct {
	store       ports.Store
	idempotency ports.IdempotencyStore
	events      ports.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// Option customizes the service collaborators.
type Option func(*Service)

// WithIdempotencyStore enables Idempotency-Key replay for PlaceOrder.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithEventPublisher sets where committed domain events are sent.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// WithLogger sets the logger used for failures that do not fail the request.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides order and line item id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService wires the orders service with its store.
func NewService(store ports.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		events: ports.NoopEventPublisher,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder reserves stock for every cart line at server-held prices and stores
// the order with its line items in one unit of work.
func (s *Service) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*domain.Order, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return nil, mapError(domain.ErrEmptyUserID)
	}
	if err := input.Items.Validate(); err != nil {
		return nil, mapError(err)
	}
	orderID := s.newID()
	key := strings.TrimSpace(input.IdempotencyKey)
	useKey := key != "" && s.idempotency != nil
	if useKey {
		replayed, err := s.claimIdempotencyKey(ctx, input, orderID)
		if err != nil {
			return nil, mapError(err)
		}
		if replayed != nil {
			return replayed, nil
		}
	}

	order, err := s.placeOrder(ctx, input.UserID, input.Items, orderID)
	if err != nil {
		if useKey {
			// the client may have gone away; the key must still be released
			releaseCtx := context.WithoutCancel(ctx)
			if releaseErr := s.idempotency.Delete(releaseCtx, scopedIdempotencyKey(input.UserID, key)); releaseErr != nil {
				s.logger.WarnContext(ctx, "failed to release idempotency key",
					slog.String("order.id", orderID), slog.String("error", releaseErr.Error()))
			}
		}
		return nil, mapError(err)
	}
	s.publish(ctx, order)
	return order, nil
}

func (s *Service) placeOrder(ctx context.Context, userID string, cart domain.Cart, orderID string) (*domain.Order, error) {
	var placed *domain.Order
	err := s.store.Do(ctx, func(ctx context.Context, tx ports.Tx) error {
		order, err := domain.NewOrder(orderID, userID, s.now().UTC())
		if err != nil {
			return err
		}
		reserved := make(map[string]*catalogdomain.Product, len(cart))
		for _, item := range cart.LockOrder() {
			product, err := tx.Inventory().Reserve(ctx, item.ProductID, item.Quantity)
			if err != nil {
				if errors.Is(err, catalogports.ErrNotFound) {
					return productNotFound(item.ProductID)
				}
				return err
			}
			reserved[item.ProductID] = product
		}
		for _, item := range cart.Merge() {
			product := reserved[item.ProductID]
			if err := order.AddLine(s.newID(), product.ID, product.Name, item.Quantity, product.Price); err != nil {
				return err
			}
		}
		if err := order.Place(); err != nil {
			return err
		}
		if err := tx.Orders().Insert(ctx, order); err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *Service) claimIdempotencyKey(ctx context.Context, input ports.PlaceOrderInput, orderID string) (*domain.Order, error) {
	hash, err := FingerprintPlaceOrder(input)
	if err != nil {
		return nil, err
	}
	existing, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{
		Key:         scopedIdempotencyKey(input.UserID, input.IdempotencyKey),
		RequestHash: hash,
		OrderID:     orderID,
	})
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, ports.ErrIdempotencyConflict) || existing == nil || existing.RequestHash != hash {
		return nil, err
	}
	order, err := s.store.GetByID(ctx, existing.OrderID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("%w: a request with this idempotency key is still in progress", ports.ErrConflict)
		}
		return nil, err
	}
	if !order.OwnedBy(input.UserID) {
		return nil, ports.ErrIdempotencyConflict
	}
	return order, nil
}

// GetOrder returns an order owned by userID.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.store.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, mapError(err)
	}
	if !order.OwnedBy(userID) {
		return nil, ports.ErrNotFound
	}
	return order, nil
}

// ListOrders returns the orders owned by userID, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string, filter ports.ListFilter) ([]*domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, mapError(domain.ErrEmptyUserID)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, mapError(domain.ErrInvalidStatus)
	}
	orders, err := s.store.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// CancelOrder cancels a PENDING order and restores exactly the reserved quantities.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.mutateOwned(ctx, userID, orderID, func(ctx context.Context, tx ports.Tx, order *domain.Order) error {
		if err := order.Cancel(s.now().UTC()); err != nil {
			return err
		}
		for _, item := range releaseOrder(order.Items) {
			if err := tx.Inventory().Release(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return tx.Orders().UpdateStatus(ctx, order)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, order)
	return order, nil
}

// PayOrder simulates a successful payment, moving a PENDING order to PAID.
func (s *Service) PayOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.mutateOwned(ctx, userID, orderID, func(ctx context.Context, tx ports.Tx, order *domain.Order) error {
		if err := order.MarkPaid(s.now().UTC()); err != nil {
			return err
		}
		return tx.Orders().UpdateStatus(ctx, order)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, order)
	return order, nil
}

// UpdateStatus overwrites the status of any order. It is an administrative
// override: the transition is not checked and stock is left untouched.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error) {
	if !status.Valid() {
		return nil, mapError(domain.ErrInvalidStatus)
	}
	var updated *domain.Order
	err := s.store.Do(ctx, func(ctx context.Context, tx ports.Tx) error {
		order, err := tx.Orders().GetForUpdate(ctx, strings.TrimSpace(orderID))
		if err != nil {
			return err
		}
		if err := order.OverrideStatus(status, s.now().UTC()); err != nil {
			return err
		}
		if err := tx.Orders().UpdateStatus(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, updated)
	return updated, nil
}

// DeleteOrder removes a CANCELLED or COMPLETED order and its line items. Stock is not touched.
func (s *Service) DeleteOrder(ctx context.Context, userID, orderID string) error {
	order, err := s.mutateOwned(ctx, userID, orderID, func(ctx context.Context, tx ports.Tx, order *domain.Order) error {
		if err := order.Delete(s.now().UTC()); err != nil {
			return err
		}
		return tx.Orders().Delete(ctx, order.ID)
	})
	if err != nil {
		return mapError(err)
	}
	s.publish(ctx, order)
	return nil
}

// mutateOwned locks an order owned by userID and applies fn in one unit of work.
func (s *Service) mutateOwned(ctx context.Context, userID, orderID string, fn func(context.Context, ports.Tx, *domain.Order) error) (*domain.Order, error) {
	var result *domain.Order
	err := s.store.Do(ctx, func(ctx context.Context, tx ports.Tx) error {
		order, err := tx.Orders().GetForUpdate(ctx, strings.TrimSpace(orderID))
		if err != nil {
			return err
		}
		if !order.OwnedBy(userID) {
			return ports.ErrNotFound
		}
		if err := fn(ctx, tx, order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) publish(ctx context.Context, order *domain.Order) {
	if order == nil {
		return
	}
	events := order.Events()
	order.ClearEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order events",
			slog.String("order.id", order.ID), slog.Int("events", len(events)), slog.String("error", err.Error()))
	}
}

// releaseOrder sorts line items by product id, the same order stock is reserved in.
func releaseOrder(items []domain.LineItem) []domain.LineItem {
	sorted := append([]domain.LineItem(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	return sorted
}

var _ ports.Service = (*Service)(nil)
