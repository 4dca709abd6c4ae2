package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

const (
	producerName = "orders-api"
	eventVersion = 1
)

var _ ports.EventPublisher = (*Publisher)(nil)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Envelope wraps every event written to the orders topic.
type Envelope struct {
	EventID      string          `json:"eventId"`
	EventType    string          `json:"eventType"`
	EventVersion int             `json:"eventVersion"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Producer     string          `json:"producer"`
	TraceID      string          `json:"traceId,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

// Publisher writes order events to Kafka keyed by order id.
type Publisher struct {
	writer MessageWriter
	newID  func() string
}

// NewPublisher wires a Kafka writer into the publisher.
func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer, newID: uuid.NewString}
}

// Publish encodes and writes events in a single batch.
func (p *Publisher) Publish(ctx context.Context, events ...domain.Event) error {
	if p == nil || p.writer == nil {
		return errors.New("kafka publisher not configured")
	}
	if len(events) == 0 {
		return nil
	}
	traceID := traceIDFromContext(ctx)
	messages := make([]kafkago.Message, 0, len(events))
	for _, evt := range events {
		key, payload, err := encodePayload(evt)
		if err != nil {
			return err
		}
		envelope := Envelope{
			EventID:      p.newID(),
			EventType:    evt.EventName(),
			EventVersion: eventVersion,
			OccurredAt:   evt.OccurredAt().UTC(),
			Producer:     producerName,
			TraceID:      traceID,
			Payload:      payload,
		}
		value, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("encode %s envelope: %w", evt.EventName(), err)
		}
		messages = append(messages, kafkago.Message{
			Key:   []byte(key),
			Value: value,
			Time:  envelope.OccurredAt,
			Headers: []kafkago.Header{
				{Key: "event-type", Value: []byte(envelope.EventType)},
			},
		})
	}
	return p.writer.WriteMessages(ctx, messages...)
}

type linePayload struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
}

type orderPlacedPayload struct {
	OrderID string        `json:"orderId"`
	Number  string        `json:"orderNumber"`
	UserID  string        `json:"userId"`
	Total   string        `json:"totalAmount"`
	Items   []linePayload `json:"items"`
}

type orderPaidPayload struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
	Total   string `json:"totalAmount"`
}

type orderCancelledPayload struct {
	OrderID  string        `json:"orderId"`
	UserID   string        `json:"userId"`
	Restored []linePayload `json:"restored"`
}

type statusChangedPayload struct {
	OrderID string `json:"orderId"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type orderDeletedPayload struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
	Status  string `json:"status"`
}

func encodePayload(evt domain.Event) (string, json.RawMessage, error) {
	var (
		key     string
		payload any
	)
	switch e := evt.(type) {
	case domain.OrderPlaced:
		key = e.OrderID
		payload = orderPlacedPayload{OrderID: e.OrderID, Number: e.Number, UserID: e.UserID, Total: e.Total.StringFixed(2), Items: toLinePayloads(e.Items)}
	case domain.OrderPaid:
		key = e.OrderID
		payload = orderPaidPayload{OrderID: e.OrderID, UserID: e.UserID, Total: e.Total.StringFixed(2)}
	case domain.OrderCancelled:
		key = e.OrderID
		payload = orderCancelledPayload{OrderID: e.OrderID, UserID: e.UserID, Restored: toLinePayloads(e.Restored)}
	case domain.OrderStatusChanged:
		key = e.OrderID
		payload = statusChangedPayload{OrderID: e.OrderID, From: string(e.From), To: string(e.To)}
	case domain.OrderDeleted:
		key = e.OrderID
		payload = orderDeletedPayload{OrderID: e.OrderID, UserID: e.UserID, Status: string(e.Status)}
	default:
		return "", nil, fmt.Errorf("unsupported order event %T", evt)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s payload: %w", evt.EventName(), err)
	}
	return key, raw, nil
}

func toLinePayloads(items []domain.LineItem) []linePayload {
	out := make([]linePayload, 0, len(items))
	for _, item := range items {
		out = append(out, linePayload{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
		})
	}
	return out
}

func traceIDFromContext(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
