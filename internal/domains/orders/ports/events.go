package ports

import (
	"context"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
)

// EventPublisher ships committed domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}

// NoopEventPublisher discards events.
var NoopEventPublisher EventPublisher = noopEventPublisher{}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, ...domain.Event) error { return nil }
