package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

const (
	defaultKeyPrefix = "orders:idem:"
	defaultTTL       = 24 * time.Hour
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps idempotency keys in Redis with an expiry.
type IdempotencyStore struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes the Redis store.
type Option func(*IdempotencyStore)

// WithTTL sets how long a key is remembered.
func WithTTL(ttl time.Duration) Option {
	return func(s *IdempotencyStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces the Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *IdempotencyStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewIdempotencyStore wires a Redis-backed idempotency store.
func NewIdempotencyStore(client goredis.Cmdable, opts ...Option) *IdempotencyStore {
	s := &IdempotencyStore{client: client, prefix: defaultKeyPrefix, ttl: defaultTTL, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type storedRecord struct {
	RequestHash string    `json:"requestHash"`
	OrderID     string    `json:"orderId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Get returns the record for key, or nil when absent or expired.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return &ports.IdempotencyRecord{
		Key:         key,
		RequestHash: stored.RequestHash,
		OrderID:     stored.OrderID,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.CreatedAt,
	}, nil
}

// Save claims key with SET NX. A key already held by another request yields ErrIdempotencyConflict.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	now := s.now()
	payload, err := json.Marshal(storedRecord{RequestHash: record.RequestHash, OrderID: record.OrderID, CreatedAt: now})
	if err != nil {
		return nil, err
	}
	claimed, err := s.client.SetNX(ctx, s.prefix+record.Key, payload, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if claimed {
		record.CreatedAt = now
		record.UpdatedAt = now
		return &record, nil
	}
	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Expired between SETNX and GET; the caller may retry with the same key.
		return nil, ports.ErrIdempotencyConflict
	}
	if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}

// Delete releases key.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *IdempotencyStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis idempotency store not configured")
	}
	return nil
}
