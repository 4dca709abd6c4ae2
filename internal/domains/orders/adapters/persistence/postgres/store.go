package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catalogpostgres "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	platformpostgres "github.com/Apurer/go-gin-shop-api/internal/platform/postgres"
)

var (
	_ ports.Store        = (*Store)(nil)
	_ ports.LedgerWriter = (*ledgerTx)(nil)
)

// Models lists the tables owned by the orders adapter, for migrations.
func Models() []any {
	return []any{&orderRecord{}, &lineItemRecord{}, &idempotencyKey{}}
}

// orderRecord maps the order header to the orders table.
type orderRecord struct {
	ID        string           `gorm:"primaryKey;column:id;size:36"`
	Number    string           `gorm:"column:number;size:40;uniqueIndex;not null"`
	UserID    string           `gorm:"column:user_id;size:36;not null;index:idx_orders_user_status"`
	Status    string           `gorm:"column:status;type:varchar(16);not null;index:idx_orders_user_status"`
	Total     decimal.Decimal  `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Items     []lineItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;index"`
	UpdatedAt time.Time        `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// lineItemRecord maps a snapshotted line item to the order_items table.
type lineItemRecord struct {
	ID          string          `gorm:"primaryKey;column:id;size:36"`
	OrderID     string          `gorm:"column:order_id;size:36;not null;index"`
	Position    int             `gorm:"column:position;not null"`
	ProductID   string          `gorm:"column:product_id;size:36;not null;index"`
	ProductName string          `gorm:"column:product_name;size:255;not null"`
	Quantity    int             `gorm:"column:quantity;not null;check:chk_order_items_quantity_positive,quantity > 0"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
}

func (lineItemRecord) TableName() string { return "order_items" }

// Store persists the order ledger in PostgreSQL and runs units of work that
// also reserve catalog stock on the same transaction.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed ledger. Caller manages DB lifecycle and migrations.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetByID fetches an order with its line items.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	err := s.db.WithContext(ctx).Preload("Items", orderItemsByPosition).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// ListByUser returns the user's orders newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, filter ports.ListFilter) ([]*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Preload("Items", orderItemsByPosition).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	var records []orderRecord
	if err := query.Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

// Do runs fn inside a database transaction shared by the ledger and the catalog inventory.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &unitTx{
			inventory: catalogpostgres.NewInventory(tx),
			ledger:    &ledgerTx{tx: tx},
		})
	})
	if err != nil && platformpostgres.IsTransient(err) {
		return fmt.Errorf("%w: %w", ports.ErrConflict, err)
	}
	return err
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres order store not configured")
	}
	return nil
}

type unitTx struct {
	inventory *catalogpostgres.Inventory
	ledger    *ledgerTx
}

func (t *unitTx) Inventory() catalogports.Inventory { return t.inventory }
func (t *unitTx) Orders() ports.LedgerWriter         { return t.ledger }

type ledgerTx struct {
	tx *gorm.DB
}

func (l *ledgerTx) Insert(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	record := toRecord(order)
	db := l.tx.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(&record).Error; err != nil {
		return err
	}
	if len(record.Items) == 0 {
		return nil
	}
	return db.Create(&record.Items).Error
}

func (l *ledgerTx) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	db := l.tx.WithContext(ctx)
	var record orderRecord
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	if err := db.Where("order_id = ?", id).Order("position").Find(&record.Items).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (l *ledgerTx) UpdateStatus(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}
	result := l.tx.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{"status": string(order.Status), "updated_at": order.UpdatedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (l *ledgerTx) Delete(ctx context.Context, id string) error {
	db := l.tx.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&lineItemRecord{}).Error; err != nil {
		return err
	}
	result := db.Delete(&orderRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func orderItemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func toRecord(order *domain.Order) orderRecord {
	record := orderRecord{
		ID:        order.ID,
		Number:    order.Number,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
		Items:     make([]lineItemRecord, 0, len(order.Items)),
	}
	for i, item := range order.Items {
		record.Items = append(record.Items, lineItemRecord{
			ID:          item.ID,
			OrderID:     order.ID,
			Position:    i,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return record
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:        r.ID,
		Number:    r.Number,
		UserID:    r.UserID,
		Status:    domain.Status(r.Status),
		Total:     r.Total,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Items:     make([]domain.LineItem, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		order.Items = append(order.Items, domain.LineItem{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return order
}
