package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	catalogdomain "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   orderports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner orderports.Service, opts ...Option) orderports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) PlaceOrder(ctx context.Context, input orderports.PlaceOrderInput) (*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder",
		trace.WithAttributes(
			attribute.String("user.id", input.UserID),
			attribute.Int("cart.lines", len(input.Items)),
			attribute.Bool("idempotency.key_present", input.IdempotencyKey != ""),
		))
	defer span.End()

	s.logInfo(ctx, "placing order", slog.String("user.id", input.UserID), slog.Int("cart.lines", len(input.Items)))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, rejectionReason(err))
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("user.id", input.UserID))
	}
	span.SetAttributes(attribute.String("order.id", result.ID), attribute.String("order.total", result.Total.StringFixed(2)))
	s.metrics.recordPlaced(ctx)
	s.logInfo(ctx, "order placed",
		slog.String("order.id", result.ID),
		slog.String("order.number", result.Number),
		slog.String("order.total", result.Total.StringFixed(2)))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("order.id", orderID)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", orderID))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, userID string, filter orderports.ListFilter) ([]*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("filter.status", string(filter.Status))))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, userID, filter)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("user.id", userID))
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
}

func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("order.id", orderID)))
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.String("order.id", orderID))
	result, err := s.inner.CancelOrder(ctx, userID, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.String("order.id", orderID))
	}
	s.metrics.recordTransition(ctx, s.metrics.cancelled)
	s.logInfo(ctx, "order cancelled", slog.String("order.id", orderID), slog.Int("lines.restored", len(result.Items)))
	return result, nil
}

func (s *Service) PayOrder(ctx context.Context, userID, orderID string) (*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PayOrder",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("order.id", orderID)))
	defer span.End()

	result, err := s.inner.PayOrder(ctx, userID, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to pay order", slog.String("order.id", orderID))
	}
	s.metrics.recordTransition(ctx, s.metrics.paid)
	s.logInfo(ctx, "order paid", slog.String("order.id", orderID))
	return result, nil
}

func (s *Service) UpdateStatus(ctx context.Context, orderID string, status orderdomain.Status) (*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus",
		trace.WithAttributes(attribute.String("order.id", orderID), attribute.String("order.status", string(status))))
	defer span.End()

	s.logInfo(ctx, "overriding order status", slog.String("order.id", orderID), slog.String("status", string(status)))
	result, err := s.inner.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status", slog.String("order.id", orderID))
	}
	s.metrics.recordTransition(ctx, s.metrics.overridden)
	return result, nil
}

func (s *Service) DeleteOrder(ctx context.Context, userID, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeleteOrder",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("order.id", orderID)))
	defer span.End()

	s.logInfo(ctx, "deleting order", slog.String("order.id", orderID))
	if err := s.inner.DeleteOrder(ctx, userID, orderID); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.String("order.id", orderID))
	}
	s.metrics.recordTransition(ctx, s.metrics.deleted)
	s.logInfo(ctx, "order deleted", slog.String("order.id", orderID))
	return nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, catalogdomain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, catalogports.ErrNotFound):
		return "product_not_found"
	case errors.Is(err, orderports.ErrConflict):
		return "conflict"
	case errors.Is(err, orderports.ErrIdempotencyConflict):
		return "idempotency_conflict"
	default:
		return "other"
	}
}

type serviceMetrics struct {
	placed     metric.Int64Counter
	rejected   metric.Int64Counter
	cancelled  metric.Int64Counter
	paid       metric.Int64Counter
	overridden metric.Int64Counter
	deleted    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("orders.service.placed", metric.WithDescription("Number of orders placed"))
	rejected, _ := m.Int64Counter("orders.service.rejected", metric.WithDescription("Number of order placements rejected"))
	cancelled, _ := m.Int64Counter("orders.service.cancelled", metric.WithDescription("Number of orders cancelled"))
	paid, _ := m.Int64Counter("orders.service.paid", metric.WithDescription("Number of orders paid"))
	overridden, _ := m.Int64Counter("orders.service.status_overrides", metric.WithDescription("Number of administrative status overrides"))
	deleted, _ := m.Int64Counter("orders.service.deleted", metric.WithDescription("Number of orders deleted"))
	return serviceMetrics{
		placed:     placed,
		rejected:   rejected,
		cancelled:  cancelled,
		paid:       paid,
		overridden: overridden,
		deleted:    deleted,
	}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	if m.placed != nil {
		m.placed.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context, reason string) {
	if m.rejected != nil {
		m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(ctx, 1)
	}
}

var _ orderports.Service = (*Service)(nil)
