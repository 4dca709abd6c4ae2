package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	ordersmemory "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, evt := range p.events {
		names = append(names, evt.EventName())
	}
	return names
}

type fixture struct {
	catalog   *catalogmemory.Repository
	store     *ordersmemory.Store
	keys      *ordersmemory.IdempotencyStore
	publisher *recordingPublisher
	service   *Service
}

func newFixture(t *testing.T, products ...*catalogdomain.Product) *fixture {
	t.Helper()
	catalog := catalogmemory.NewRepository()
	for _, p := range products {
		_, err := catalog.Save(context.Background(), p)
		require.NoError(t, err)
	}
	store := ordersmemory.NewStore(catalog)
	keys := ordersmemory.NewIdempotencyStore()
	publisher := &recordingPublisher{}
	var seq int
	var mu sync.Mutex
	svc := NewService(store,
		WithIdempotencyStore(keys),
		WithEventPublisher(publisher),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("a1b2c3d4-0000-0000-0000-%012d", seq)
		}),
	)
	return &fixture{catalog: catalog, store: store, keys: keys, publisher: publisher, service: svc}
}

func product(t *testing.T, id, name, price string, stock int) *catalogdomain.Product {
	t.Helper()
	p, err := catalogdomain.NewProduct(id, name, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id string) (int, int) {
	t.Helper()
	p, err := f.catalog.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock, p.Sold
}

func TestPlaceOrder_UsesServerPricesAndDecrementsStock(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))

	order, err := f.service.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: "u1",
		Items:  domain.Cart{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)

	require.Equal(t, domain.StatusPending, order.Status)
	require.True(t, decimal.RequireFromString("20.00").Equal(order.Total))
	require.Len(t, order.Items, 1)
	require.Equal(t, "Keyboard", order.Items[0].ProductName)
	require.True(t, decimal.RequireFromString("10.00").Equal(order.Items[0].UnitPrice))
	require.Equal(t, "ORD-20250314092653-a1b2c3d4", order.Number)

	stock, sold := f.stock(t, "p1")
	require.Equal(t, 3, stock)
	require.Equal(t, 2, sold)
	require.Equal(t, []string{"orders.order.placed"}, f.publisher.names())
}

func TestPlaceOrder_RepeatedLinesCannotWrapQuantity(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 100))

	_, err := f.service.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: "u1",
		Items: domain.Cart{
			{ProductID: "p1", Quantity: math.MaxInt},
			{ProductID: "p1", Quantity: math.MaxInt},
			{ProductID: "p1", Quantity: 3},
		},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrQuantityTooLarge)

	stock, sold := f.stock(t, "p1")
	require.Equal(t, 100, stock)
	require.Zero(t, sold)
	orders, err := f.service.ListOrders(context.Background(), "u1", ports.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPlaceOrder_HugeSingleLineIsInsufficientStock(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 100))

	_, err := f.service.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: "u1",
		Items:  domain.Cart{{ProductID: "p1", Quantity: math.MaxInt}},
	})
	require.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)
	stock, _ := f.stock(t, "p1")
	require.Equal(t, 100, stock)
}

func TestPlaceOrder_InsufficientStockLeavesNothingBehind(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))

	_, err := f.service.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: "u1",
		Items:  domain.Cart{{ProductID: "p1", Quantity: 6}},
	})
	require.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)

	var stockErr *catalogdomain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Equal(t, "Keyboard", stockErr.ProductName)
	require.Equal(t, 6, stockErr.Requested)
	require.Equal(t, 5, stockErr.Available)

	stock, sold := f.stock(t, "p1")
	require.Equal(t, 5, stock)
	require.Zero(t, sold)

	orders, err := f.service.ListOrders(context.Background(), "u1", ports.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, orders)
	require.Empty(t, f.publisher.names())
}

func TestPlaceOrder_FailureOnLaterLineRollsBackEarlierReservations(t *testing.T) {
	f := newFixture(t,
		product(t, "p1", "Keyboard", "10.00", 5),
		product(t, "p2", "Mouse", "4.50", 1),
	)

	_, err := f.service.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: "u1",
		Items:  domain.Cart{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 3}},
	})
	require.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)

	stock, sold := f.stock(t, "p1")
	require.Equal(t, 5, stock)
	require.Zero(t, sold)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))

	_, err := f.service.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: "u1",
		Items:  domain.Cart{{ProductID: "p1", Quantity: 1}, {ProductID: "missing", Quantity: 1}},
	})
	require.ErrorIs(t, err, catalogports.ErrNotFound)
	require.ErrorContains(t, err, "missing")

	stock, _ := f.stock(t, "p1")
	require.Equal(t, 5, stock)
}

func TestPlaceOrder_RejectsInvalidCarts(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	cases := map[string]ports.PlaceOrderInput{
		"empty cart":     {UserID: "u1"},
		"zero quantity":  {UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 0}}},
		"blank product":  {UserID: "u1", Items: domain.Cart{{ProductID: " ", Quantity: 1}}},
		"missing userId": {Items: domain.Cart{{ProductID: "p1", Quantity: 1}}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.PlaceOrder(context.Background(), input)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestPlaceOrder_MergesRepeatedProducts(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))

	order, err := f.service.PlaceOrder(context.Background(), ports.PlaceOrderInput{
		UserID: "u1",
		Items:  domain.Cart{{ProductID: "p1", Quantity: 2}, {ProductID: "p1", Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.Equal(t, 5, order.Items[0].Quantity)

	stock, _ := f.stock(t, "p1")
	require.Zero(t, stock)
}

func TestCancelOrder_RestoresStockOnce(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)

	cancelled, err := f.service.CancelOrder(ctx, "u1", order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)

	stock, sold := f.stock(t, "p1")
	require.Equal(t, 5, stock)
	require.Zero(t, sold)

	_, err = f.service.CancelOrder(ctx, "u1", order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	stock, _ = f.stock(t, "p1")
	require.Equal(t, 5, stock)

	require.Equal(t, []string{"orders.order.placed", "orders.order.cancelled"}, f.publisher.names())
}

func TestCancelOrder_OnlyFromPending(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)
	_, err = f.service.PayOrder(ctx, "u1", order.ID)
	require.NoError(t, err)

	_, err = f.service.CancelOrder(ctx, "u1", order.ID)
	var transition *domain.TransitionError
	require.True(t, errors.As(err, &transition))
	require.Equal(t, domain.StatusPaid, transition.From)

	stock, _ := f.stock(t, "p1")
	require.Equal(t, 4, stock)
}

func TestUpdateStatus_OverridesAnyTransitionWithoutTouchingStock(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)

	for _, status := range []domain.Status{domain.StatusDelivered, domain.StatusPending, domain.StatusCancelled, domain.StatusShipped} {
		updated, err := f.service.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err)
		require.Equal(t, status, updated.Status)
	}

	stock, _ := f.stock(t, "p1")
	require.Equal(t, 3, stock)

	_, err = f.service.UpdateStatus(ctx, order.ID, domain.Status("LOST"))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.UpdateStatus(ctx, "missing", domain.StatusPaid)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDeleteOrder_RequiresFinishedOrder(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)

	err = f.service.DeleteOrder(ctx, "u1", order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.service.GetOrder(ctx, "u1", order.ID)
	require.NoError(t, err)

	_, err = f.service.CancelOrder(ctx, "u1", order.ID)
	require.NoError(t, err)
	require.NoError(t, f.service.DeleteOrder(ctx, "u1", order.ID))

	_, err = f.service.GetOrder(ctx, "u1", order.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
	orders, err := f.service.ListOrders(ctx, "u1", ports.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, orders)

	stock, _ := f.stock(t, "p1")
	require.Equal(t, 5, stock)
}

func TestDeleteOrder_CompletedKeepsStock(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 2}}})
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, order.ID, domain.StatusCompleted)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteOrder(ctx, "u1", order.ID))
	stock, sold := f.stock(t, "p1")
	require.Equal(t, 3, stock)
	require.Equal(t, 2, sold)
}

func TestOrders_AreInvisibleToOtherUsers(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)

	_, err = f.service.GetOrder(ctx, "u2", order.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
	_, err = f.service.CancelOrder(ctx, "u2", order.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)
	require.ErrorIs(t, f.service.DeleteOrder(ctx, "u2", order.ID), ports.ErrNotFound)

	orders, err := f.service.ListOrders(ctx, "u2", ports.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, orders)

	stock, _ := f.stock(t, "p1")
	require.Equal(t, 4, stock)
}

func TestListOrders_FiltersByStatus(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 10))
	ctx := context.Background()

	first, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)
	_, err = f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)
	_, err = f.service.PayOrder(ctx, "u1", first.ID)
	require.NoError(t, err)

	paid, err := f.service.ListOrders(ctx, "u1", ports.ListFilter{Status: domain.StatusPaid})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	require.Equal(t, first.ID, paid[0].ID)

	all, err := f.service.ListOrders(ctx, "u1", ports.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = f.service.ListOrders(ctx, "u1", ports.ListFilter{Status: "LOST"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlaceOrder_IdempotencyReplaysSameOrder(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	ctx := context.Background()
	input := ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 2}}, IdempotencyKey: "k-1"}

	first, err := f.service.PlaceOrder(ctx, input)
	require.NoError(t, err)
	second, err := f.service.PlaceOrder(ctx, input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	stock, _ := f.stock(t, "p1")
	require.Equal(t, 3, stock)
	require.Equal(t, []string{"orders.order.placed"}, f.publisher.names())
}

func TestPlaceOrder_IdempotencyConflictOnDifferentCart(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	ctx := context.Background()

	_, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 2}}, IdempotencyKey: "k-1"})
	require.NoError(t, err)
	_, err = f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 1}}, IdempotencyKey: "k-1"})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	stock, _ := f.stock(t, "p1")
	require.Equal(t, 3, stock)
}

func TestPlaceOrder_IdempotencyKeysAreScopedPerUser(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	ctx := context.Background()

	a, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 1}}, IdempotencyKey: "shared"})
	require.NoError(t, err)
	b, err := f.service.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u2", Items: domain.Cart{{ProductID: "p1", Quantity: 1}}, IdempotencyKey: "shared"})
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}

func TestPlaceOrder_FailedAttemptReleasesIdempotencyKey(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 1))
	ctx := context.Background()
	input := ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 2}}, IdempotencyKey: "retry-me"}

	_, err := f.service.PlaceOrder(ctx, input)
	require.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)

	record, err := f.keys.Get(ctx, scopedIdempotencyKey("u1", "retry-me"))
	require.NoError(t, err)
	require.Nil(t, record)

	_, err = f.catalog.Restock(ctx, "p1", 5)
	require.NoError(t, err)
	order, err := f.service.PlaceOrder(ctx, input)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, order.Status)
}

// contextBoundKeys refuses to delete on a finished context, like a network-backed store.
type contextBoundKeys struct {
	*ordersmemory.IdempotencyStore
}

func (k contextBoundKeys) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return k.IdempotencyStore.Delete(ctx, key)
}

func TestPlaceOrder_ReleasesIdempotencyKeyAfterClientDisconnect(t *testing.T) {
	catalog := catalogmemory.NewRepository()
	_, err := catalog.Save(context.Background(), product(t, "p1", "Keyboard", "10.00", 1))
	require.NoError(t, err)
	keys := contextBoundKeys{ordersmemory.NewIdempotencyStore()}
	svc := NewService(ordersmemory.NewStore(catalog), WithIdempotencyStore(keys))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.PlaceOrder(ctx, ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 2}}, IdempotencyKey: "gone"})
	require.Error(t, err)

	record, err := keys.Get(context.Background(), scopedIdempotencyKey("u1", "gone"))
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestPlaceOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t, product(t, "p1", "Keyboard", "10.00", 5))
	f.publisher.err = errors.New("broker down")

	order, err := f.service.PlaceOrder(context.Background(), ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "p1", Quantity: 1}}})
	require.NoError(t, err)
	require.Empty(t, order.Events())
}

func TestFingerprintPlaceOrder_IgnoresLineOrderAndSplits(t *testing.T) {
	a, err := FingerprintPlaceOrder(ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "b", Quantity: 1}, {ProductID: "a", Quantity: 2}}})
	require.NoError(t, err)
	b, err := FingerprintPlaceOrder(ports.PlaceOrderInput{UserID: "u1", Items: domain.Cart{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 1}, {ProductID: "a", Quantity: 1}}, IdempotencyKey: "ignored"})
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := FingerprintPlaceOrder(ports.PlaceOrderInput{UserID: "u2", Items: domain.Cart{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 1}}})
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}
