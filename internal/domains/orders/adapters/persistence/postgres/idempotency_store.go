package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

var errIdempotencyNotConfigured = errors.New("postgres idempotency store not configured")

// idempotencyKey is one row of order_idempotency_keys.
type idempotencyKey struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128;not null"`
	OrderID     string    `gorm:"column:order_id;size:36"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyKey) TableName() string { return "order_idempotency_keys" }

func (k idempotencyKey) record() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         k.Key,
		RequestHash: k.RequestHash,
		OrderID:     k.OrderID,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   k.UpdatedAt,
	}
}

// IdempotencyStore claims Idempotency-Key values in the order_idempotency_keys table.
type IdempotencyStore struct {
	db *gorm.DB
}

func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errIdempotencyNotConfigured
	}
	var row idempotencyKey
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return row.record(), nil
}

// Save inserts the claim with ON CONFLICT DO NOTHING. When another request
// already holds the key, the stored row decides between replay and conflict.
func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errIdempotencyNotConfigured
	}
	row := idempotencyKey{Key: record.Key, RequestHash: record.RequestHash, OrderID: record.OrderID}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return row.record(), nil
	}

	stored, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		// released between our insert and read; the caller may retry
		return nil, ports.ErrConflict
	}
	if stored.RequestHash != record.RequestHash || stored.OrderID != record.OrderID {
		return stored, ports.ErrIdempotencyConflict
	}
	return stored, nil
}

func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return errIdempotencyNotConfigured
	}
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&idempotencyKey{}).Error
}
