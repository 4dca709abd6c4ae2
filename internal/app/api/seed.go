package api

import (
	"context"

	"github.com/shopspring/decimal"

	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
)

var demoProducts = []catalogports.ProductInput{
	{Name: "Mechanical Keyboard", Description: "Tenkeyless, hot-swappable switches", Price: decimal.RequireFromString("89.90"), Stock: 100, Categories: []string{"peripherals"}},
	{Name: "Wireless Mouse", Description: "2.4 GHz, 6 buttons", Price: decimal.RequireFromString("24.50"), Stock: 250, Categories: []string{"peripherals"}},
	{Name: "27\" Monitor", Description: "1440p IPS panel", Price: decimal.RequireFromString("279.00"), Stock: 40, Categories: []string{"displays"}},
	{Name: "USB-C Hub", Description: "7 ports with power delivery", Price: decimal.RequireFromString("39.99"), Stock: 150, Categories: []string{"accessories"}},
	{Name: "Laptop Stand", Description: "Aluminium, adjustable height", Price: decimal.RequireFromString("32.00"), Stock: 5, Categories: []string{"accessories"}},
}

// SeedCatalog adds the demo products to an empty catalog and reports how many were created.
func SeedCatalog(ctx context.Context, catalog catalogports.Service) (int, error) {
	existing, err := catalog.ListProducts(ctx, catalogports.ListFilter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, input := range demoProducts {
		if _, err := catalog.CreateProduct(ctx, input); err != nil {
			return i, err
		}
	}
	return len(demoProducts), nil
}
