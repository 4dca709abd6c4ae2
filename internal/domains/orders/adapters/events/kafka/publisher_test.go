package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func TestPublish_WrapsEventsInEnvelope(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewPublisher(writer)
	publisher.newID = func() string { return "evt-1" }
	at := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	err := publisher.Publish(context.Background(), domain.OrderPlaced{
		BaseEvent: domain.BaseEvent{Timestamp: at},
		OrderID:   "o1",
		Number:    "ORD-20250401100000-o1",
		UserID:    "u1",
		Total:     decimal.RequireFromString("21"),
		Items: []domain.LineItem{
			{ProductID: "p1", ProductName: "Keyboard", Quantity: 2, UnitPrice: decimal.RequireFromString("10.5")},
		},
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	require.Equal(t, "o1", string(msg.Key))
	require.Equal(t, at, msg.Time)
	require.Equal(t, []kafkago.Header{{Key: "event-type", Value: []byte("orders.order.placed")}}, msg.Headers)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	require.Equal(t, "evt-1", envelope.EventID)
	require.Equal(t, "orders.order.placed", envelope.EventType)
	require.Equal(t, 1, envelope.EventVersion)
	require.Equal(t, "orders-api", envelope.Producer)
	require.Empty(t, envelope.TraceID)

	var payload orderPlacedPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	require.Equal(t, "21.00", payload.Total)
	require.Equal(t, []linePayload{{ProductID: "p1", ProductName: "Keyboard", Quantity: 2, UnitPrice: "10.50"}}, payload.Items)
}

func TestPublish_BatchesLifecycleEvents(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewPublisher(writer)
	now := time.Now()

	err := publisher.Publish(context.Background(),
		domain.OrderPaid{BaseEvent: domain.BaseEvent{Timestamp: now}, OrderID: "o1", UserID: "u1", Total: decimal.NewFromInt(3)},
		domain.OrderStatusChanged{BaseEvent: domain.BaseEvent{Timestamp: now}, OrderID: "o1", From: domain.StatusPaid, To: domain.StatusShipped},
		domain.OrderDeleted{BaseEvent: domain.BaseEvent{Timestamp: now}, OrderID: "o1", UserID: "u1", Status: domain.StatusCompleted},
	)
	require.NoError(t, err)
	require.Len(t, writer.messages, 3)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(writer.messages[1].Value, &envelope))
	var changed statusChangedPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &changed))
	require.Equal(t, statusChangedPayload{OrderID: "o1", From: "PAID", To: "SHIPPED"}, changed)
}

type strangeEvent struct{ domain.BaseEvent }

func (strangeEvent) EventName() string { return "orders.order.strange" }

func TestPublish_Errors(t *testing.T) {
	require.NoError(t, NewPublisher(&fakeWriter{}).Publish(context.Background()))
	require.Error(t, (*Publisher)(nil).Publish(context.Background(), strangeEvent{}))

	writer := &fakeWriter{}
	err := NewPublisher(writer).Publish(context.Background(), strangeEvent{})
	require.ErrorContains(t, err, "unsupported order event")
	require.Empty(t, writer.messages)

	broken := &fakeWriter{err: errors.New("leader not available")}
	err = NewPublisher(broken).Publish(context.Background(), domain.OrderPaid{OrderID: "o1"})
	require.ErrorContains(t, err, "leader not available")
}
