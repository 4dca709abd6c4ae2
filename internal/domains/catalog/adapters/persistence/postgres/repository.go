package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
)

var (
	_ ports.Repository = (*Repository)(nil)
	_ ports.Inventory  = (*Inventory)(nil)
)

// Models lists the tables owned by the catalog adapter, for migrations.
func Models() []any {
	return []any{&productRecord{}}
}

// productRecord maps the product aggregate to the products table.
type productRecord struct {
	ID          string          `gorm:"primaryKey;column:id;size:36"`
	Name        string          `gorm:"column:name;size:255;not null"`
	Description string          `gorm:"column:description;type:text"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null;check:chk_products_stock_non_negative,stock >= 0"`
	Sold        int             `gorm:"column:sold;not null;default:0"`
	Categories  pq.StringArray  `gorm:"column:categories;type:text[]"`
	ImageURL    string          `gorm:"column:image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Repository persists products in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed catalog. Caller manages DB lifecycle and migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts or updates a product.
func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(product)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":        record.Name,
				"description": record.Description,
				"price":       record.Price,
				"stock":       record.Stock,
				"sold":        record.Sold,
				"categories":  record.Categories,
				"image_url":   record.ImageURL,
				"updated_at":  gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a product by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return loadProduct(r.db.WithContext(ctx), id)
}

// List returns products ordered by name.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Model(&productRecord{})
	if filter.Category != "" {
		query = query.Where("? = ANY(categories)", filter.Category)
	}
	if filter.InStock {
		query = query.Where("stock > 0")
	}
	var records []productRecord
	if err := query.Order("name, id").Find(&records).Error; err != nil {
		return nil, err
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}

// Restock adds qty to stock in a single UPDATE guarded against bigint overflow.
func (r *Repository) Restock(ctx context.Context, id string, qty int) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	db := r.db.WithContext(ctx)
	result := db.Model(&productRecord{}).
		Where("id = ? AND stock <= ?", id, domain.MaxStock-qty).
		Update("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := loadProduct(db, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrStockOverflow
	}
	return loadProduct(db, id)
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

// Inventory applies stock mutations on a transaction-scoped handle.
type Inventory struct {
	tx *gorm.DB
}

// NewInventory binds the inventory to tx. Mutations commit or roll back with it.
func NewInventory(tx *gorm.DB) *Inventory {
	return &Inventory{tx: tx}
}

// Reserve runs a conditional decrement so concurrent reservations can never drive stock below zero.
func (i *Inventory) Reserve(ctx context.Context, productID string, qty int) (*domain.Product, error) {
	if i == nil || i.tx == nil {
		return nil, errors.New("postgres inventory not configured")
	}
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	db := i.tx.WithContext(ctx)
	result := db.Model(&productRecord{}).
		Where("id = ? AND stock >= ? AND sold <= ?", productID, qty, domain.MaxStock-qty).
		Updates(map[string]any{
			"stock": gorm.Expr("stock - ?", qty),
			"sold":  gorm.Expr("sold + ?", qty),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		current, err := loadProduct(db, productID)
		if err != nil {
			return nil, err
		}
		if current.Stock >= qty {
			return nil, domain.ErrStockOverflow
		}
		return nil, &domain.InsufficientStockError{
			ProductID:   current.ID,
			ProductName: current.Name,
			Requested:   qty,
			Available:   current.Stock,
		}
	}
	return loadProduct(db, productID)
}

// Release restores stock and rolls back the sold counter, never below zero.
func (i *Inventory) Release(ctx context.Context, productID string, qty int) error {
	if i == nil || i.tx == nil {
		return errors.New("postgres inventory not configured")
	}
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	db := i.tx.WithContext(ctx)
	result := db.Model(&productRecord{}).
		Where("id = ? AND stock <= ?", productID, domain.MaxStock-qty).
		Updates(map[string]any{
			"stock": gorm.Expr("stock + ?", qty),
			"sold":  gorm.Expr("GREATEST(sold - ?, 0)", qty),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := loadProduct(db, productID); err != nil {
			return err
		}
		return domain.ErrStockOverflow
	}
	return nil
}

func loadProduct(db *gorm.DB, id string) (*domain.Product, error) {
	var record productRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func toRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Sold:        p.Sold,
		Categories:  pq.StringArray(p.Categories),
		ImageURL:    p.ImageURL,
	}
}

func (r productRecord) toDomain() *domain.Product {
	var categories []string
	if len(r.Categories) > 0 {
		categories = append([]string(nil), r.Categories...)
	}
	return &domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Sold:        r.Sold,
		Categories:  categories,
		ImageURL:    r.ImageURL,
	}
}
