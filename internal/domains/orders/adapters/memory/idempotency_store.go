package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyOption tunes an IdempotencyStore.
type IdempotencyOption func(*IdempotencyStore)

// WithKeyTTL expires keys after ttl, like the Redis store does. Zero keeps them forever.
func WithKeyTTL(ttl time.Duration) IdempotencyOption {
	return func(s *IdempotencyStore) { s.ttl = ttl }
}

// WithIdempotencyClock swaps the time source.
func WithIdempotencyClock(now func() time.Time) IdempotencyOption {
	return func(s *IdempotencyStore) {
		if now != nil {
			s.now = now
		}
	}
}

// IdempotencyStore keeps idempotency keys in a map for local runs and tests.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]ports.IdempotencyRecord
	ttl  time.Duration
	now  func() time.Time
}

func NewIdempotencyStore(opts ...IdempotencyOption) *IdempotencyStore {
	s := &IdempotencyStore{keys: make(map[string]ports.IdempotencyRecord), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.live(key)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Save claims the key. A second claim with a different fingerprint or order
// gets the stored record back alongside ErrIdempotencyConflict.
func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.live(record.Key); ok {
		if stored.RequestHash == record.RequestHash && stored.OrderID == record.OrderID {
			return &stored, nil
		}
		return &stored, ports.ErrIdempotencyConflict
	}

	record.CreatedAt = s.now()
	record.UpdatedAt = record.CreatedAt
	s.keys[record.Key] = record
	return &record, nil
}

func (s *IdempotencyStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
	return nil
}

// live returns the record for key, dropping it first if it has expired.
// Callers hold s.mu.
func (s *IdempotencyStore) live(key string) (ports.IdempotencyRecord, bool) {
	rec, ok := s.keys[key]
	if !ok {
		return rec, false
	}
	if s.ttl > 0 && s.now().Sub(rec.CreatedAt) >= s.ttl {
		delete(s.keys, key)
		return ports.IdempotencyRecord{}, false
	}
	return rec, true
}
