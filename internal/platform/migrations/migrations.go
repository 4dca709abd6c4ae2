package migrations

import (
	"gorm.io/gorm"

	catalogpg "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/persistence/postgres"
	orderspg "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/persistence/postgres"
	userspg "github.com/Apurer/go-gin-shop-api/internal/domains/users/adapters/persistence/postgres"
)

// Run applies the schema for the bounded contexts. Products come first so
// order_items can reference them.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	var models []any
	models = append(models, catalogpg.Models()...)
	models = append(models, userspg.Models()...)
	models = append(models, orderspg.Models()...)
	return db.AutoMigrate(models...)
}
